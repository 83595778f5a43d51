package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TimeCode is a minute:second position on the original timeline.
type TimeCode struct {
	Minutes int
	Seconds float64
}

func NewTimeCode(seconds float64) TimeCode {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	minutes := math.Floor(seconds / 60)

	return TimeCode{
		Minutes: int(minutes),
		Seconds: seconds - minutes*60,
	}
}

// ParseTimeCode accepts "MM:SS" and "MM:SS.fff". Minutes may exceed 59, seconds may not.
func ParseTimeCode(s string) (TimeCode, error) {
	raw := strings.TrimSpace(s)

	minPart, secPart, ok := strings.Cut(raw, ":")
	if !ok || len(minPart) == 0 || len(secPart) == 0 {
		return TimeCode{}, fmt.Errorf("time code %q: want MM:SS", s)
	}

	if !isDigits(minPart) {
		return TimeCode{}, fmt.Errorf("time code %q: bad minutes", s)
	}

	minutes, err := strconv.Atoi(minPart)
	if err != nil {
		return TimeCode{}, fmt.Errorf("time code %q: bad minutes", s)
	}

	whole, frac, hasFrac := strings.Cut(secPart, ".")
	if !isDigits(whole) || (hasFrac && !isDigits(frac)) {
		return TimeCode{}, fmt.Errorf("time code %q: bad seconds", s)
	}

	seconds, err := strconv.ParseFloat(secPart, 64)
	if err != nil || seconds >= 60 {
		return TimeCode{}, fmt.Errorf("time code %q: bad seconds", s)
	}

	return TimeCode{Minutes: minutes, Seconds: seconds}, nil
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// Offset returns the position in seconds.
func (tc TimeCode) Offset() float64 {
	return float64(tc.Minutes)*60 + tc.Seconds
}

func (tc TimeCode) String() string {
	sec := strconv.FormatFloat(tc.Seconds, 'f', -1, 64)
	if tc.Seconds < 10 {
		sec = "0" + sec
	}

	return fmt.Sprintf("%02d:%s", tc.Minutes, sec)
}

func (tc TimeCode) MarshalText() ([]byte, error) {
	return []byte(tc.String()), nil
}

func (tc *TimeCode) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeCode(string(text))
	if err != nil {
		return err
	}

	*tc = parsed

	return nil
}
