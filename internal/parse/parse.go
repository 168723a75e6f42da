// Package parse extracts the addressing and coordinate fields embedded in
// decoded message text. The patterns are fixed to the multimon-ng output
// format and kept here so a decoder format change touches one place.
package parse

import (
	"regexp"
	"strconv"
)

var (
	addressPattern = regexp.MustCompile(`Address:\s*(\d+)`)
	coordPattern   = regexp.MustCompile(`X=(\d+)\s+Y=(\d+)`)
)

// Address returns the RIC address carried by a message, if any.
func Address(message string) (string, bool) {
	m := addressPattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Coordinates returns the RT90 northing/easting pair embedded in a message,
// if present and numeric. Digit runs too long for an int are treated as
// absent; garbled pages carry them occasionally.
func Coordinates(message string) (x, y int, ok bool) {
	m := coordPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, 0, false
	}
	x, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	y, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}
