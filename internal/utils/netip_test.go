package utils

import (
	"net/http/httptest"
	"testing"
)

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"127.0.0.1/32", "::1/128", "10.0.0.0/8", "192.0.2.5", "garbage", ""})

	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"::ffff:127.0.0.1", true},
		{"10.20.30.40", true},
		{"192.0.2.5", true},
		{"192.0.2.6", false},
		{"", false},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
	if NewIPMatcher(nil).IsEmpty() != true {
		t.Error("empty list should give an empty matcher")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"remote addr", "127.0.0.1:5555", "", "", false, "127.0.0.1"},
		{"ipv6 remote", "[::1]:5555", "", "", false, "::1"},
		{"untrusted xff ignored", "127.0.0.1:5555", "203.0.113.9", "", false, "127.0.0.1"},
		{"trusted xff", "127.0.0.1:5555", "203.0.113.9, 10.0.0.1", "", true, "203.0.113.9"},
		{"trusted real ip", "127.0.0.1:5555", "", "203.0.113.7", true, "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
