package util

import "testing"

func TestParseSize(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		wantQty  string
		wantUnit string
	}{
		{name: "integer with unit", input: "107 OZ", wantQty: "107", wantUnit: "OZ"},
		{name: "decimal", input: "2.5 LB", wantQty: "2.5", wantUnit: "LB"},
		{name: "trailing dot", input: "12. OZ", wantQty: "12", wantUnit: "OZ"},
		{name: "unit keeps tail", input: "16 OZ FMLY", wantQty: "16", wantUnit: "OZ FMLY"},
		{name: "glued unit", input: "64OZ", wantQty: "64", wantUnit: "OZ"},
		{name: "no unit", input: "12", wantQty: "12"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseSize(tc.input)
			if !parsed.Magnitude.Valid {
				t.Fatalf("magnitude is absent")
			}
			if got := parsed.Magnitude.Decimal.String(); got != tc.wantQty {
				t.Fatalf("got %v want %v", got, tc.wantQty)
			}
			if got := Deref(parsed.Unit); got != tc.wantUnit {
				t.Fatalf("unit got %q want %q", got, tc.wantUnit)
			}
		})
	}
}

func TestParseSizeWithoutDigits(t *testing.T) {
	parsed := ParseSize("-OZ")
	if parsed.Magnitude.Valid {
		t.Fatalf("expected absent magnitude, got %v", parsed.Magnitude.Decimal)
	}
	if Deref(parsed.Unit) != "OZ" {
		t.Fatalf("unit=%v", parsed.Unit)
	}
}
