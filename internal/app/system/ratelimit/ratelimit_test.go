package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ideaslab/server/internal/app/system/ratelimit"
)

func TestAllow_BlocksOverLimit(t *testing.T) {
	l := ratelimit.New(3, time.Minute)

	for i := range 3 {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("fourth attempt should be blocked")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other keys should be unaffected")
	}
}

func TestReset_ClearsWindow(t *testing.T) {
	l := ratelimit.New(1, time.Minute)

	if !l.Allow("1.2.3.4") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("second attempt should be blocked")
	}

	l.Reset("1.2.3.4")
	if !l.Allow("1.2.3.4") {
		t.Error("attempt after reset should be allowed")
	}
}

func TestRemaining(t *testing.T) {
	l := ratelimit.New(5, time.Minute)

	if got := l.Remaining("k"); got != 5 {
		t.Errorf("fresh key: got %d, want 5", got)
	}
	l.Allow("k")
	l.Allow("k")
	if got := l.Remaining("k"); got != 3 {
		t.Errorf("after two attempts: got %d, want 3", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr with port", "10.0.0.1:51234", nil, "10.0.0.1"},
		{"remote addr without port", "10.0.0.1", nil, "10.0.0.1"},
		{"x-forwarded-for single", "10.0.0.1:51234", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "203.0.113.9"},
		{"x-forwarded-for chain", "10.0.0.1:51234", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, "203.0.113.9"},
		{"x-real-ip", "10.0.0.1:51234", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ratelimit.ClientIP(r); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
