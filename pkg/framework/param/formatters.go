package param

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Common parameter formatters and parsers

// FrequencyFormatter formats frequency values with Hz/kHz
func FrequencyFormatter(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	if hz < 1 {
		return fmt.Sprintf("%.3f Hz", hz)
	}
	return fmt.Sprintf("%.2f Hz", hz)
}

// FrequencyParser parses frequency strings
func FrequencyParser(str string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(str))
	if strings.HasSuffix(s, "khz") {
		v, err := parseFloat(strings.TrimSuffix(s, "khz"))
		return v * 1000, err
	}
	return parseFloat(strings.TrimSuffix(s, "hz"))
}

// DecibelFormatter formats dB values
func DecibelFormatter(db float64) string {
	if db <= -60 {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// DecibelParser parses dB strings
func DecibelParser(str string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(str))
	if strings.Contains(s, "inf") {
		return -96.0, nil
	}
	return parseFloat(strings.TrimSuffix(s, "db"))
}

// PercentFormatter formats a 0-1 value as a percentage
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value*100)
}

// PercentParser parses "40%" as 0.4 and a bare number as itself.
func PercentParser(str string) (float64, error) {
	s := strings.TrimSpace(str)
	if strings.HasSuffix(s, "%") {
		v, err := parseFloat(strings.TrimSuffix(s, "%"))
		return v / 100, err
	}
	return parseFloat(s)
}

// SemitoneFormatter formats a transposition in semitones.
func SemitoneFormatter(st float64) string {
	return fmt.Sprintf("%+.2f st", st)
}

// SemitoneParser parses "+7 st", "-12" or "5 semitones".
func SemitoneParser(str string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(str))
	s = strings.TrimSuffix(s, "semitones")
	s = strings.TrimSuffix(s, "st")
	return parseFloat(s)
}

// TimeFormatter formats seconds with appropriate units
func TimeFormatter(sec float64) string {
	if sec < 1 {
		return fmt.Sprintf("%.1f ms", sec*1000)
	}
	return fmt.Sprintf("%.2f s", sec)
}

// TimeParser parses "250ms" or "1.5s" into seconds; bare numbers are seconds.
func TimeParser(str string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(str))
	if strings.HasSuffix(s, "ms") {
		v, err := parseFloat(strings.TrimSuffix(s, "ms"))
		return v / 1000, err
	}
	return parseFloat(strings.TrimSuffix(s, "s"))
}

// PanFormatter formats a 0-1 pan position
func PanFormatter(pan float64) string {
	c := pan*2 - 1
	switch {
	case c > -0.01 && c < 0.01:
		return "C"
	case c < 0:
		return fmt.Sprintf("%.0fL", -c*100)
	default:
		return fmt.Sprintf("%.0fR", c*100)
	}
}

// PanParser parses "C", "40L", "25R" or a bare 0-1 position.
func PanParser(str string) (float64, error) {
	s := strings.ToUpper(strings.TrimSpace(str))
	switch {
	case s == "C" || s == "CENTER":
		return 0.5, nil
	case strings.HasSuffix(s, "L"):
		v, err := parseFloat(strings.TrimSuffix(s, "L"))
		return 0.5 - v/200, err
	case strings.HasSuffix(s, "R"):
		v, err := parseFloat(strings.TrimSuffix(s, "R"))
		return 0.5 + v/200, err
	}
	return parseFloat(s)
}

// OnOffFormatter formats boolean as On/Off
func OnOffFormatter(value float64) string {
	if value > 0.5 {
		return "On"
	}
	return "Off"
}

// OnOffParser parses On/Off strings
func OnOffParser(str string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "on", "yes", "true", "1":
		return 1, nil
	case "off", "no", "false", "0":
		return 0, nil
	default:
		return 0, errors.Errorf("expected 'on' or 'off', got: %s", str)
	}
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Errorf("invalid number: %s", strings.TrimSpace(s))
	}
	return v, nil
}
