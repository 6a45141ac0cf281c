package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/volatiletech/null/v8"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// DigitsOnly drops every non-digit character from `s`.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// FirstName returns the first word of a full name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Today returns t truncated to midnight UTC.
func Today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// so we walk up until we find it. Falls back to the current directory.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

const DateLayout = "2006-01-02"

// ParseDate parses an optional "YYYY-MM-DD" date, returning an invalid null.Time for empty strings.
func ParseDate(s string) (null.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return null.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return null.Time{}, err
	}
	return null.TimeFrom(t), nil
}

// ParseDateOrZero parses a date already checked by the `datetime=2006-01-02` validation tag.
// Unparsable input yields an invalid null.Time with a zero Time.
func ParseDateOrZero(s string) null.Time {
	t, _ := ParseDate(s)
	return t
}

// NullString returns a valid null.String unless s is blank.
func NullString(s string) null.String {
	s = strings.TrimSpace(s)
	return null.NewString(s, s != "")
}
