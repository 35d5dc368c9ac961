package redact

import "testing"

func TestID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"12345678Z", "1234****Z"},
		{"X1234567L", "X123****L"},
		{"B12345674", "B123****4"},
		{"ABC", "ABC****C"},
		{"AB", "***"},
		{"", "***"},
	}
	for _, tt := range tests {
		if got := ID(tt.in); got != tt.want {
			t.Errorf("ID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"JUAN", "J***"},
		{"ÀNGELA", "À*****"},
		{"  ", "***"},
		{"", "***"},
	}
	for _, tt := range tests {
		if got := Name(tt.in); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPtr(t *testing.T) {
	if got := Ptr(nil, ID); got != "***" {
		t.Errorf("Ptr(nil) = %q", got)
	}
	v := "12345678Z"
	if got := Ptr(&v, ID); got != "1234****Z" {
		t.Errorf("Ptr(&v) = %q", got)
	}
}
