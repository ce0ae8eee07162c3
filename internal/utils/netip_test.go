package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr only", "10.0.0.1:5555", nil, false, "10.0.0.1"},
		{"ignores headers when untrusted", "10.0.0.1:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"}, false, "10.0.0.1"},
		{"cloudflare header first", "10.0.0.1:5555", map[string]string{"CF-Connecting-IP": "5.6.7.8", "X-Forwarded-For": "1.2.3.4"}, true, "5.6.7.8"},
		{"left-most forwarded", "10.0.0.1:5555", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 9.9.9.9"}, true, "1.2.3.4"},
		{"real ip fallback", "10.0.0.1:5555", map[string]string{"X-Real-IP": "8.8.8.8"}, true, "8.8.8.8"},
		{"ipv6 remote", "[::1]:80", nil, false, "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"192.168.1.0/24", " 10.0.0.7 ", "not-an-ip", "", "fd00::/8"})

	tests := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.42", true},
		{"192.168.2.1", false},
		{"10.0.0.7", true},
		{"::ffff:10.0.0.7", true},
		{"10.0.0.8", false},
		{"fd12::1", true},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() || m.IsEmpty() {
		t.Error("IsEmpty() mismatch")
	}
}
