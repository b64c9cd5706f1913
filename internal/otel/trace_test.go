package otel

import "testing"

func TestParseTrace(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
		{"yes", true},
	}
	for _, tt := range tests {
		if got := parseTrace(tt.in); got != tt.want {
			t.Errorf("parseTrace(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetTrace(t *testing.T) {
	prev := TraceEnabled()
	defer SetTrace(prev)

	SetTrace(true)
	if !TraceEnabled() {
		t.Error("tracing should be on")
	}
	SetTrace(false)
	if TraceEnabled() {
		t.Error("tracing should be off")
	}
}
