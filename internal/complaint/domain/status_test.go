package domain

import "testing"

// TestParseStatus tests normalization of status strings
func TestParseStatus(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Status
		ok       bool
	}{
		{"Canonical uppercase", "NEW", StatusNew, true},
		{"Canonical lowercase", "resolved", StatusResolved, true},
		{"Mixed case", "Under_Review", StatusUnderReview, true},
		{"Surrounding whitespace", "  CLOSED  ", StatusClosed, true},
		{"Legacy pending", "PENDING", StatusNew, true},
		{"Legacy pending lowercase", "pending", StatusNew, true},
		{"Legacy hyphenated review", "under-review", StatusUnderReview, true},
		{"Legacy hyphenated progress", "In-Progress", StatusInProgress, true},
		{"Escalated", "ESCALATED", StatusEscalated, true},
		{"Unknown value", "bogus", "", false},
		{"Empty string", "", "", false},
		{"Whitespace only", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := ParseStatus(tt.input)

			if ok != tt.ok {
				t.Fatalf("ParseStatus(%q): expected ok=%v, got %v", tt.input, tt.ok, ok)
			}
			if status != tt.expected {
				t.Errorf("ParseStatus(%q): expected %q, got %q", tt.input, tt.expected, status)
			}
		})
	}
}
