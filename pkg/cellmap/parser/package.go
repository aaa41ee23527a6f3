package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/slofurno/cellmap-go/pkg/cellmap/models"
)

// ErrSheetNotFound indicates the requested worksheet is not part of the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrNoSheets indicates the workbook declares no worksheets.
var ErrNoSheets = errors.New("workbook has no worksheets")

const (
	workbookPath      = "xl/workbook.xml"
	workbookRelsPath  = "xl/_rels/workbook.xml.rels"
	sharedStringsPath = "xl/sharedStrings.xml"
)

// sheetEntry locates a worksheet part inside the package.
type sheetEntry struct {
	name string
	path string
}

// Package is an opened xlsx package. It is not safe for concurrent use.
type Package struct {
	zr      *zip.Reader
	closer  io.Closer
	sheets  []sheetEntry
	sstPath string
	closed  bool
}

// OpenFile opens the xlsx package at path.
func OpenFile(path string) (*Package, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	p, err := newPackage(&rc.Reader)
	if err != nil {
		rc.Close()
		return nil, err
	}
	p.closer = rc
	return p, nil
}

// OpenReader opens an xlsx package from r. Closing the package does not close r.
func OpenReader(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	return newPackage(zr)
}

func newPackage(zr *zip.Reader) (*Package, error) {
	workbookXML, err := readZipFile(zr, workbookPath)
	if err != nil {
		return nil, err
	}
	if workbookXML == nil {
		return nil, fmt.Errorf("open package: missing %s", workbookPath)
	}

	relsXML, err := readZipFile(zr, workbookRelsPath)
	if err != nil {
		return nil, err
	}
	if relsXML == nil {
		return nil, fmt.Errorf("open package: missing %s", workbookRelsPath)
	}

	sheetsInfo, err := parseWorkbookSheets(workbookXML)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", workbookPath, err)
	}
	rels, err := parseWorkbookRels(relsXML)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", workbookRelsPath, err)
	}

	p := &Package{zr: zr, sstPath: sharedStringsPath}
	for _, s := range sheetsInfo {
		rel, ok := rels[s.rID]
		if !ok || !strings.Contains(strings.ToLower(rel.relType), "worksheet") {
			continue
		}
		p.sheets = append(p.sheets, sheetEntry{name: s.name, path: resolveRelativePath(rel.target, "xl")})
	}
	for _, rel := range rels {
		if strings.HasSuffix(rel.relType, "/sharedStrings") {
			p.sstPath = resolveRelativePath(rel.target, "xl")
			break
		}
	}

	return p, nil
}

// SheetNames returns the worksheet names in workbook order.
func (p *Package) SheetNames() []string {
	names := make([]string, len(p.sheets))
	for i, s := range p.sheets {
		names[i] = s.name
	}
	return names
}

// SharedStrings reads the shared-string table. A package without one yields an empty table.
func (p *Package) SharedStrings() (models.SharedStrings, error) {
	f := findZipFile(p.zr, p.sstPath)
	if f == nil {
		return models.SharedStrings{}, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.sstPath, err)
	}
	defer rc.Close()

	sst, err := parseSharedStrings(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.sstPath, err)
	}
	return sst, nil
}

// Sheet opens a streaming reader over the named worksheet. An empty name selects the
// first worksheet in workbook order.
func (p *Package) Sheet(name string) (*SheetReader, error) {
	if p.closed {
		return nil, errors.New("package is closed")
	}
	if len(p.sheets) == 0 {
		return nil, ErrNoSheets
	}

	entry := p.sheets[0]
	if name != "" {
		found := false
		for _, s := range p.sheets {
			if s.name == name {
				entry, found = s, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
		}
	}

	f := findZipFile(p.zr, entry.path)
	if f == nil {
		return nil, fmt.Errorf("%w: part %s for %q is missing", ErrSheetNotFound, entry.path, entry.name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", entry.path, err)
	}

	sr, err := newSheetReader(entry.name, rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("read %s: %w", entry.path, err)
	}
	return sr, nil
}

// Close releases the package. It is safe to call more than once.
func (p *Package) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// findZipFile looks a part up by name, ignoring case as some writers vary it.
func findZipFile(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	for _, f := range r.File {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// readZipFile returns the content of a part, or nil if the part does not exist.
func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	f := findZipFile(r, name)
	if f == nil {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// resolveRelativePath resolves a relationship target against baseDir.
// Absolute targets ("/xl/worksheets/sheet1.xml") are package-rooted.
func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(baseDir, target)
}

type workbookSheet struct {
	name string
	rID  string
}

// parseWorkbookSheets returns the sheet declarations of workbook.xml in order.
func parseWorkbookSheets(data []byte) ([]workbookSheet, error) {
	var result []workbookSheet
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var s workbookSheet
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "name":
					s.name = attr.Value
				case "id":
					s.rID = attr.Value
				}
			}
			if s.name != "" && s.rID != "" {
				result = append(result, s)
			}
		}
	}

	return result, nil
}

type workbookRel struct {
	relType string
	target  string
}

// parseWorkbookRels maps relationship ids to their type and target.
func parseWorkbookRels(data []byte) (map[string]workbookRel, error) {
	result := make(map[string]workbookRel)
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rID string
			var rel workbookRel
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rID = attr.Value
				case "Type":
					rel.relType = attr.Value
				case "Target":
					rel.target = attr.Value
				}
			}
			if rID != "" {
				result[rID] = rel
			}
		}
	}

	return result, nil
}

// xlsxRun is a rich text run (r element).
type xlsxRun struct {
	T string `xml:"t"`
}

// xlsxRichText holds the text of an si or is element. Phonetic runs (rPh) are ignored.
type xlsxRichText struct {
	T    *string   `xml:"t"`
	Runs []xlsxRun `xml:"r"`
}

func (t xlsxRichText) text() string {
	if len(t.Runs) == 0 {
		if t.T == nil {
			return ""
		}
		return *t.T
	}
	var b strings.Builder
	if t.T != nil {
		b.WriteString(*t.T)
	}
	for _, r := range t.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

// parseSharedStrings streams the si elements of sharedStrings.xml.
func parseSharedStrings(r io.Reader) (models.SharedStrings, error) {
	decoder := xml.NewDecoder(r)
	sst := models.SharedStrings{}

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "sst":
			for _, attr := range se.Attr {
				if attr.Name.Local == "uniqueCount" {
					var n int
					if _, err := fmt.Sscan(attr.Value, &n); err == nil && n > 0 && n < 1<<20 {
						sst = make(models.SharedStrings, 0, n)
					}
				}
			}
		case "si":
			var si xlsxRichText
			if err := decoder.DecodeElement(&si, &se); err != nil {
				return nil, err
			}
			sst = append(sst, si.text())
		}
	}

	return sst, nil
}
