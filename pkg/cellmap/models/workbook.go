package models

// SharedStrings is the workbook's shared-string table, indexed by position.
type SharedStrings []string

// Lookup returns the string at idx and whether idx is inside the table.
func (s SharedStrings) Lookup(idx int) (string, bool) {
	if idx < 0 || idx >= len(s) {
		return "", false
	}
	return s[idx], true
}
