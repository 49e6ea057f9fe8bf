package util

import "testing"

func TestDecimalString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "blank", input: "", want: "0"},
		{name: "spaces", input: "   ", want: "0"},
		{name: "zero literal stays", input: "0", want: "0"},
		{name: "integer", input: "150", want: "150,00"},
		{name: "decimal", input: "150.5", want: "150,50"},
		{name: "already two digits", input: "80.00", want: "80,00"},
		{name: "unparseable kept", input: "abc", want: "abc"},
		{name: "trimmed", input: " 12.3 ", want: "12,30"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecimalString(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDecimalStringIdempotent(t *testing.T) {
	inputs := []string{"", "0", "150", "150.5", "abc", "1234.567"}
	for _, in := range inputs {
		once := DecimalString(in)
		twice := DecimalString(once)
		if twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestFloatOrZero(t *testing.T) {
	if got := FloatOrZero("12.5"); got != 12.5 {
		t.Fatalf("got %v", got)
	}
	if got := FloatOrZero(""); got != 0 {
		t.Fatalf("got %v", got)
	}
	if got := FloatOrZero("n/a"); got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestZeroOrValue(t *testing.T) {
	if got := ZeroOrValue(" abc "); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := ZeroOrValue("  "); got != "0" {
		t.Fatalf("got %q", got)
	}
}

func TestCompetence(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "2024-03-15", want: "03/2024"},
		{input: "2024-03", want: "03/2024"},
		{input: "15/03/2024", want: "03/2024"},
		{input: "2024-03-15T10:00:00-03:00", want: "03/2024"},
		{input: "", want: "0"},
		{input: "garbage", want: "0"},
	}

	for _, tc := range cases {
		if got := Competence(tc.input); got != tc.want {
			t.Fatalf("Competence(%q) = %q want %q", tc.input, got, tc.want)
		}
	}
}

func TestCompetenceISO(t *testing.T) {
	got, ok := CompetenceISO("2024-07")
	if !ok || got != "07/2024" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
	if _, ok := CompetenceISO("15/03/2024"); ok {
		t.Fatalf("BR date should not parse as ISO competence")
	}
}
