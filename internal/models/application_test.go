package models

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Status
	}{
		{"applied lowercase", "applied", StatusApplied},
		{"applied capitalized", "Applied", StatusApplied},
		{"interview", "Interview", StatusInterview},
		{"interview uppercase", "INTERVIEW", StatusInterview},
		{"rejected", "rejected", StatusRejected},
		{"rejected with whitespace", "  Rejected  ", StatusRejected},
		{"empty defaults to applied", "", StatusApplied},
		{"unknown defaults to applied", "Ghosted", StatusApplied},
		{"null string defaults to applied", "null", StatusApplied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStatus(tt.input); got != tt.expected {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusApplied, StatusInterview, StatusRejected} {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if Status("Offer").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already normalized", "backend engineer", "backend engineer"},
		{"mixed case", "Backend Engineer", "backend engineer"},
		{"extra internal whitespace", "Backend   Engineer", "backend engineer"},
		{"surrounding whitespace", "  Backend Engineer\t", "backend engineer"},
		{"tabs and newlines", "Backend\tEngineer\n", "backend engineer"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeKey(tt.input); got != tt.expected {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSameKey(t *testing.T) {
	tests := []struct {
		name                     string
		role1, org1, role2, org2 string
		expected                 bool
	}{
		{"exact match", "Backend Engineer", "Acme", "Backend Engineer", "Acme", true},
		{"case insensitive", "Backend Engineer", "Acme", "backend engineer", "ACME", true},
		{"whitespace normalized", "Backend  Engineer", " Acme ", "Backend Engineer", "Acme", true},
		{"different role", "Backend Engineer", "Acme", "Frontend Engineer", "Acme", false},
		{"different organization", "Backend Engineer", "Acme", "Backend Engineer", "Globex", false},
		{"both different", "Backend Engineer", "Acme", "Data Scientist", "Globex", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameKey(tt.role1, tt.org1, tt.role2, tt.org2); got != tt.expected {
				t.Errorf("SameKey(%q, %q, %q, %q) = %v, want %v",
					tt.role1, tt.org1, tt.role2, tt.org2, got, tt.expected)
			}
		})
	}
}
