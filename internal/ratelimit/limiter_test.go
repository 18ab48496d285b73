package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestCheckReserveDisabledWithoutRedis(t *testing.T) {
	limiter := New(nil, DefaultConfig())

	for i := 0; i < 50; i++ {
		res := limiter.CheckReserve(context.Background(), "203.0.113.7")
		if !res.Allowed {
			t.Fatalf("attempt %d blocked with no redis backend", i)
		}
	}
}

func TestCheckReserveNilLimiterAllows(t *testing.T) {
	var limiter *Limiter
	if res := limiter.CheckReserve(context.Background(), "203.0.113.7"); !res.Allowed {
		t.Fatal("nil limiter should allow")
	}
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		xRealIP    string
		trustProxy bool
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:54321",
			want:       "203.0.113.7",
		},
		{
			name:       "xff ignored without proxy trust",
			remoteAddr: "203.0.113.7:54321",
			xff:        "198.51.100.1",
			want:       "203.0.113.7",
		},
		{
			name:       "xff rightmost public",
			remoteAddr: "10.0.0.1:80",
			xff:        "198.51.100.1, 10.0.0.2, 192.168.1.5",
			trustProxy: true,
			want:       "198.51.100.1",
		},
		{
			name:       "xff all private falls back to rightmost",
			remoteAddr: "10.0.0.1:80",
			xff:        "10.0.0.3, 192.168.1.5",
			trustProxy: true,
			want:       "192.168.1.5",
		},
		{
			name:       "x-real-ip when no xff",
			remoteAddr: "10.0.0.1:80",
			xRealIP:    "198.51.100.9",
			trustProxy: true,
			want:       "198.51.100.9",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/bookings", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xRealIP != "" {
				req.Header.Set("X-Real-IP", tc.xRealIP)
			}
			if got := GetClientIP(req, tc.trustProxy); got != tc.want {
				t.Errorf("GetClientIP() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"fe80::1", true},
		{"203.0.113.7", false},
		{"2001:db8::1", false},
		{"not-an-ip", false},
	}
	for _, tc := range cases {
		if got := isPrivateIP(tc.ip); got != tc.want {
			t.Errorf("isPrivateIP(%s) = %v, want %v", tc.ip, got, tc.want)
		}
	}
}
