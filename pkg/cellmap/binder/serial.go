package binder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Epoch is day zero of spreadsheet serial dates.
var Epoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	// maxSerialDays is one past the serial number of 9999-12-31.
	maxSerialDays = 2958466
	msPerDay      = 24 * 60 * 60 * 1000
	day           = 24 * time.Hour
)

// SerialTime converts a serial day count to a point in time. Whole days are added as
// calendar days and the fraction is rounded to the nearest millisecond.
func SerialTime(days float64) (time.Time, error) {
	if err := checkSerial(days); err != nil {
		return time.Time{}, err
	}
	whole := math.Trunc(days)
	return Epoch.AddDate(0, 0, int(whole)).Add(fraction(days - whole)), nil
}

// SerialDuration converts a serial day count to the elapsed time of day it denotes.
// Whole days are discarded: 2.5 yields 12h. The result is in [0, 24h).
func SerialDuration(days float64) (time.Duration, error) {
	if err := checkSerial(days); err != nil {
		return 0, err
	}
	d := fraction(days-math.Trunc(days)) % day
	if d < 0 {
		d += day
	}
	return d, nil
}

func checkSerial(days float64) error {
	if math.IsNaN(days) || math.IsInf(days, 0) || math.Abs(days) > maxSerialDays {
		return fmt.Errorf("serial date %v out of range", days)
	}
	return nil
}

// fraction converts a fraction of a day to a duration rounded to the millisecond.
func fraction(f float64) time.Duration {
	return time.Duration(math.Round(f*msPerDay)) * time.Millisecond
}

// ParseSerialTime parses raw as a serial day count and converts it with SerialTime.
func ParseSerialTime(raw string) (time.Time, error) {
	days, err := parseSerial(raw)
	if err != nil {
		return time.Time{}, err
	}
	return SerialTime(days)
}

// ParseSerialDuration parses raw as a serial day count and converts it with SerialDuration.
func ParseSerialDuration(raw string) (time.Duration, error) {
	days, err := parseSerial(raw)
	if err != nil {
		return 0, err
	}
	return SerialDuration(days)
}

func parseSerial(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}
