package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+1 (650) 253-0000", "+16502530000"},
		{"(650) 253-0000", "+16502530000"},
		{"16502530000", "+16502530000"},
		{"whatsapp:+16502530000", "+16502530000"},
		{"  ", ""},
		{"not-a-number", "not-a-number"},
	}

	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Fatalf("NormalizeE164(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestIsE164(t *testing.T) {
	if !IsE164("+16502530000") {
		t.Fatalf("expected E.164 number to be accepted")
	}
	if IsE164("4155552671") {
		t.Fatalf("expected number without + to be rejected")
	}
}
