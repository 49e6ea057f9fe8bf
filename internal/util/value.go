package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reISO = regexp.MustCompile(`^(\d{4})-(\d{2})`)
	reBR  = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})`)
)

// DecimalString formats a raw monetary value with two fraction digits
// and a comma separator. Blank input yields "0"; unparseable input is
// returned trimmed as-is. The literal "0" passes through unchanged so
// already normalized values survive re-formatting.
func DecimalString(v string) string {
	s := strings.TrimSpace(v)
	if s == "" || s == "0" {
		return "0"
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strings.Replace(strconv.FormatFloat(parsed, 'f', 2, 64), ".", ",", 1)
}

// FloatOrZero is the best-effort numeric parse used for internal
// summation only. Never surfaced directly in a report.
func FloatOrZero(v string) float64 {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// ZeroOrValue trims identifier fields, mapping blanks to "0".
func ZeroOrValue(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return "0"
	}
	return s
}

// Competence normalizes a date into the MM/YYYY competence period.
// Accepts ISO (YYYY-MM...) and Brazilian (DD/MM/YYYY) forms.
func Competence(date string) string {
	s := strings.TrimSpace(date)
	if s == "" {
		return "0"
	}
	if m := reISO.FindStringSubmatch(s); m != nil {
		return m[2] + "/" + m[1]
	}
	if m := reBR.FindStringSubmatch(s); m != nil {
		return m[2] + "/" + m[3]
	}
	return "0"
}

// CompetenceISO converts an explicit YYYY-MM competence tag, returning
// ok=false when the tag does not look ISO at all.
func CompetenceISO(v string) (string, bool) {
	m := reISO.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return "", false
	}
	return m[2] + "/" + m[1], true
}
