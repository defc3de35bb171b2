package validate

import "testing"

func TestSubdomain(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"findjanedoe", true},
		{"find-jane-doe", true},
		{"abc", true},
		{"a1b2c3", true},
		{"ab", false},                        // too short
		{"", false},                          //
		{"FindJane", false},                  // uppercase
		{"-findjane", false},                 // leading hyphen
		{"findjane-", false},                 // trailing hyphen
		{"find--jane", false},                // consecutive hyphens
		{"find jane", false},                 // space
		{"find.jane", false},                 // dot
		{"www", false},                       // reserved
		{"api", false},                       // reserved
		{"admin", false},                     // reserved
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},   // 50 chars
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false}, // 51 chars
	}

	for _, tc := range cases {
		if got := Subdomain(tc.value); got != tc.ok {
			t.Errorf("Subdomain(%q) = %v, want %v", tc.value, got, tc.ok)
		}
	}
}

func TestReservedSubdomain(t *testing.T) {
	if !ReservedSubdomain("WWW") {
		t.Error("reserved check must be case insensitive")
	}
	if ReservedSubdomain("findjanedoe") {
		t.Error("findjanedoe is not reserved")
	}
}

func TestCustomDomain(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"findjanedoe.org", true},
		{"www.findjanedoe.org", true},
		{"sub.domain.co.uk", true},
		{"", false},
		{"no-dots", false},
		{"https://findjanedoe.org", false},
		{"findjanedoe.org/path", false},
		{"find janedoe.org", false},
		{"domain.1", false},
	}

	for _, tc := range cases {
		if got := CustomDomain(tc.value); got != tc.ok {
			t.Errorf("CustomDomain(%q) = %v, want %v", tc.value, got, tc.ok)
		}
	}
}

func TestColor(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"#fff", true},
		{"#1d4ed8", true},
		{"#ABCDEF", true},
		{"rgb(255, 0, 0)", true},
		{"rgba(255, 0, 0, 0.5)", true},
		{"RGB(0,0,0)", true},
		{"navy", true},
		{"Transparent", true},
		{"", false},
		{"#ffff", false},
		{"#gggggg", false},
		{"rgb(255, 0)", false},
		{"chartreuse", false},
		{"not a color", false},
	}

	for _, tc := range cases {
		if got := Color(tc.value); got != tc.ok {
			t.Errorf("Color(%q) = %v, want %v", tc.value, got, tc.ok)
		}
	}
}

func TestMissingCaseFields(t *testing.T) {
	missing := MissingCaseFields(CaseFields{})
	if len(missing) != 3 {
		t.Fatalf("MissingCaseFields(empty) = %v, want 3 entries", missing)
	}

	missing = MissingCaseFields(CaseFields{FirstName: "Jane", LastName: "  ", Subdomain: "findjanedoe"})
	if len(missing) != 1 || missing[0] != "last_name" {
		t.Fatalf("MissingCaseFields = %v, want [last_name]", missing)
	}

	if missing := MissingCaseFields(CaseFields{FirstName: "Jane", LastName: "Doe", Subdomain: "findjanedoe"}); missing != nil {
		t.Fatalf("complete fields reported missing: %v", missing)
	}
}
