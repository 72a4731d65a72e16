package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow_UnderLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestAllow_OverLimit(t *testing.T) {
	l := New(2, time.Minute)

	l.Allow("key")
	l.Allow("key")

	if l.Allow("key") {
		t.Error("third request should be blocked")
	}
}

func TestAllow_SeparateKeys(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Allow("a") {
		t.Error("first request for key a should be allowed")
	}
	if !l.Allow("b") {
		t.Error("first request for key b should be allowed")
	}
	if l.Allow("a") {
		t.Error("second request for key a should be blocked")
	}
}

func TestAllow_WindowExpiry(t *testing.T) {
	l := New(1, 10*time.Millisecond)

	l.Allow("key")
	time.Sleep(20 * time.Millisecond)

	if !l.Allow("key") {
		t.Error("request after window expiry should be allowed")
	}
}

func TestReset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("key")
	l.Reset("key")

	if !l.Allow("key") {
		t.Error("request after reset should be allowed")
	}
}

func TestClientIP_XForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if ip := ClientIP(r); ip != "203.0.113.9" {
		t.Errorf("ClientIP = %q, want %q", ip, "203.0.113.9")
	}
}

func TestClientIP_RemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:54321"

	if ip := ClientIP(r); ip != "192.0.2.7" {
		t.Errorf("ClientIP = %q, want %q", ip, "192.0.2.7")
	}
}

func TestSignInLimiter_EmailLimit(t *testing.T) {
	sl := &SignInLimiter{
		ipLimiter:    New(100, time.Minute),
		emailLimiter: New(2, time.Minute),
	}

	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := sl.Check(r, "User@Example.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	// Same account, different casing: still blocked.
	ok, reason := sl.Check(r, "user@example.com")
	if ok {
		t.Error("third attempt for the same email should be blocked")
	}
	if reason == "" {
		t.Error("blocked attempt should carry a reason")
	}

	sl.ResetEmail("user@example.com")
	if ok, _ := sl.Check(r, "user@example.com"); !ok {
		t.Error("attempt after reset should be allowed")
	}
}
