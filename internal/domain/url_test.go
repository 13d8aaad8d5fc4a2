package domain

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "https://a.com/x", "https://a.com/x"},
		{"query", "https://a.com/x?y=1", "https://a.com/x"},
		{"fragment", "https://a.com/x#top", "https://a.com/x"},
		{"fragment containing question mark", "https://a.com/x#a?b", "https://a.com/x"},
		{"both", "https://a.com/x?y=1#top", "https://a.com/x"},
		{"schemeless", "a.com/x?y=1", "a.com/x"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.input); got != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		host   string
		wantOK bool
	}{
		{"https", "https://Docs.Example.com/page", "docs.example.com", true},
		{"with port", "http://localhost:8080/x", "localhost", true},
		{"no scheme", "example.com/page", "", false},
		{"browser page", "about:blank", "", false},
		{"garbage", "http://[::1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, ok := Hostname(tt.input)
			if ok != tt.wantOK || host != tt.host {
				t.Errorf("Hostname(%q) = (%q, %v), want (%q, %v)", tt.input, host, ok, tt.host, tt.wantOK)
			}
		})
	}
}
