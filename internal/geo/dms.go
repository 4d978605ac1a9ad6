package geo

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidDMS is returned when a compact DMS string cannot be decoded.
var ErrInvalidDMS = errors.New("invalid DMS coordinate")

var (
	punctuatedLat = regexp.MustCompile(`^([NS])\s?(\d{2})°(\d{2})'(\d{2})"?$`)
	punctuatedLon = regexp.MustCompile(`^([EW])\s?(\d{3})°(\d{2})'(\d{2})"?$`)
	compactLat    = regexp.MustCompile(`^([NS])?(\d{6})([NS])?$`)
	compactLon    = regexp.MustCompile(`^([EW])?(\d{7})([EW])?$`)
)

// DMS is a decoded degrees/minutes/seconds coordinate.
type DMS struct {
	Degrees    int
	Minutes    int
	Seconds    int
	Hemisphere byte
}

// Decimal converts to signed decimal degrees. S and W are negative.
func (d DMS) Decimal() float64 {
	v := float64(d.Degrees) + float64(d.Minutes)/60 + float64(d.Seconds)/3600
	if d.Hemisphere == 'S' || d.Hemisphere == 'W' {
		v = -v
	}
	return v
}

// splitDMS breaks an absolute decimal value into whole degrees, minutes
// and rounded seconds, carrying 60" into minutes and 60' into degrees.
func splitDMS(v float64) (deg, mins, secs int) {
	abs := math.Abs(v)
	d := math.Floor(abs)
	m := math.Floor((abs - d) * 60)
	s := math.Round((abs - d - m/60) * 3600)
	deg, mins, secs = int(d), int(m), int(s)
	if secs >= 60 {
		secs -= 60
		mins++
	}
	if mins >= 60 {
		mins -= 60
		deg++
	}
	return deg, mins, secs
}

func hemispheres(lat, lon float64) (byte, byte) {
	latDir, lonDir := byte('N'), byte('E')
	if lat < 0 {
		latDir = 'S'
	}
	if lon < 0 {
		lonDir = 'W'
	}
	return latDir, lonDir
}

// DecimalToDMS formats a position in the punctuated form, e.g.
// N35°43'36" and E139°47'44".
func DecimalToDMS(lat, lon float64) (latDMS, lonDMS string) {
	latDir, lonDir := hemispheres(lat, lon)
	d, m, s := splitDMS(lat)
	latDMS = fmt.Sprintf(`%c%02d°%02d'%02d"`, latDir, d, m, s)
	d, m, s = splitDMS(lon)
	lonDMS = fmt.Sprintf(`%c%03d°%02d'%02d"`, lonDir, d, m, s)
	return latDMS, lonDMS
}

// FormatCompactDMS formats a position as "N354336 E1394744".
func FormatCompactDMS(lat, lon float64) string {
	latDir, lonDir := hemispheres(lat, lon)
	ld, lm, ls := splitDMS(lat)
	od, om, osec := splitDMS(lon)
	return fmt.Sprintf("%c%02d%02d%02d %c%03d%02d%02d", latDir, ld, lm, ls, lonDir, od, om, osec)
}

// ParsePunctuatedDMS decodes the punctuated form produced by DecimalToDMS.
// It reports false when the text does not match or a field is out of range.
func ParsePunctuatedDMS(dms string, isLatitude bool) (float64, bool) {
	re := punctuatedLon
	if isLatitude {
		re = punctuatedLat
	}
	match := re.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(dms)))
	if match == nil {
		return 0, false
	}

	d, err := decodeFields(match[2], match[3], match[4], match[1][0], isLatitude)
	if err != nil {
		return 0, false
	}
	return d.Decimal(), true
}

// ParseCompactDMS decodes fixed-width quick-entry text: [H]DDMMSS[H] for
// latitude, [H]DDDMMSS[H] for longitude. The hemisphere letter may lead or
// trail (a leading letter wins) and defaults to N or E.
func ParseCompactDMS(input string, isLatitude bool) (DMS, error) {
	re, width, degWidth := compactLon, 7, 3
	if isLatitude {
		re, width, degWidth = compactLat, 6, 2
	}

	trimmed := strings.ToUpper(strings.TrimSpace(input))
	match := re.FindStringSubmatch(trimmed)
	if match == nil {
		return DMS{}, fmt.Errorf("%w: %q must be %d digits with an optional hemisphere", ErrInvalidDMS, input, width)
	}

	hemisphere := byte('E')
	if isLatitude {
		hemisphere = 'N'
	}
	switch {
	case match[1] != "":
		hemisphere = match[1][0]
	case match[3] != "":
		hemisphere = match[3][0]
	}

	digits := match[2]
	return decodeFields(digits[:degWidth], digits[degWidth:degWidth+2], digits[degWidth+2:], hemisphere, isLatitude)
}

func decodeFields(degStr, minStr, secStr string, hemisphere byte, isLatitude bool) (DMS, error) {
	deg, err := strconv.Atoi(degStr)
	if err != nil {
		return DMS{}, fmt.Errorf("%w: degrees %q", ErrInvalidDMS, degStr)
	}
	mins, err := strconv.Atoi(minStr)
	if err != nil {
		return DMS{}, fmt.Errorf("%w: minutes %q", ErrInvalidDMS, minStr)
	}
	secs, err := strconv.Atoi(secStr)
	if err != nil {
		return DMS{}, fmt.Errorf("%w: seconds %q", ErrInvalidDMS, secStr)
	}

	if mins >= 60 || secs >= 60 {
		return DMS{}, fmt.Errorf("%w: minutes and seconds must be below 60", ErrInvalidDMS)
	}

	d := DMS{Degrees: deg, Minutes: mins, Seconds: secs, Hemisphere: hemisphere}
	limit := 180.0
	if isLatitude {
		limit = 90
	}
	if math.Abs(d.Decimal()) > limit {
		return DMS{}, fmt.Errorf("%w: %d degrees exceeds %v", ErrInvalidDMS, deg, limit)
	}
	return d, nil
}
