package security

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	password := "testPassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty string")
	}

	if hash == password {
		t.Error("HashPassword() returned unhashed password")
	}

	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == hash2 {
		t.Error("HashPassword() should produce different hashes due to salt")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "mySecurePassword"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "correct password", password: password, hash: hash, want: true},
		{name: "incorrect password", password: "wrongPassword", hash: hash, want: false},
		{name: "empty password", password: "", hash: hash, want: false},
		{name: "garbage hash", password: password, hash: "not-a-hash", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEntityID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewEntityID()
		if !IsEntityID(id) {
			t.Fatalf("NewEntityID() = %q, not a 24-hex id", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIsEntityID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"65a1f0c2b3d4e5f601234567", true},
		{"65A1F0C2B3D4E5F601234567", true},
		{"65a1f0c2b3d4e5f60123456", false},
		{"65a1f0c2b3d4e5f6012345678", false},
		{"zza1f0c2b3d4e5f601234567", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsEntityID(tt.in); got != tt.want {
			t.Errorf("IsEntityID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerificationTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.IssueVerificationToken(42, "parent@example.com")
	if err != nil {
		t.Fatalf("IssueVerificationToken() error = %v", err)
	}

	claims, err := issuer.ParseVerificationToken(token)
	if err != nil {
		t.Fatalf("ParseVerificationToken() error = %v", err)
	}
	if claims.Email != "parent@example.com" || claims.Subject != "42" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerificationTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.IssueVerificationToken(1, "a@b.co")
	if err != nil {
		t.Fatalf("IssueVerificationToken() error = %v", err)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other", time.Hour)
		if _, err := other.ParseVerificationToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenIssuer("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := late.ParseVerificationToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := issuer.ParseVerificationToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestCSRFToken(t *testing.T) {
	gen := NewCSRFGenerator("csrf-secret")

	token, err := gen.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if !gen.ValidateToken("session-1", token) {
		t.Error("expected token to validate for its session")
	}
	if gen.ValidateToken("session-2", token) {
		t.Error("token must not validate for another session")
	}
	if _, err := gen.GenerateToken(""); !errors.Is(err, ErrNoSession) {
		t.Errorf("GenerateToken(\"\") error = %v, want ErrNoSession", err)
	}
	if NewCSRFGenerator("other-secret").ValidateToken("session-1", token) {
		t.Error("token must not validate under another secret")
	}
	for _, bad := range []string{"", "not-hex", token[:len(token)-2], strings.ToUpper(token) + "00"} {
		if gen.ValidateToken("session-1", bad) {
			t.Errorf("ValidateToken(%q) = true, want false", bad)
		}
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request inside the window should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := GetClientIP(r); got != "10.0.0.1" {
		t.Errorf("GetClientIP() = %q, want 10.0.0.1", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := GetClientIP(r); got != "203.0.113.7" {
		t.Errorf("GetClientIP() = %q, want first forwarded address", got)
	}
}

func TestCreateSessionCookieSecureBehindProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	cookie := CreateSessionCookie(r, SessionCookieName, "abc", time.Now().Add(time.Hour))
	if !cookie.Secure || !cookie.HttpOnly {
		t.Errorf("expected secure http-only cookie, got %+v", cookie)
	}
	if !strings.EqualFold(cookie.Name, SessionCookieName) {
		t.Errorf("cookie name = %q", cookie.Name)
	}
}

func TestIsSecureRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   bool
	}{
		{"plain http", "", "", false},
		{"forwarded proto https", "X-Forwarded-Proto", "HTTPS", true},
		{"forwarded proto chain", "X-Forwarded-Proto", "https, http", true},
		{"forwarded proto http first", "X-Forwarded-Proto", "http, https", false},
		{"rfc forwarded", "Forwarded", `for=203.0.113.7;proto="https";host=example.org`, true},
		{"rfc forwarded http", "Forwarded", "for=203.0.113.7;proto=http", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			if got := IsSecureRequest(r); got != tt.want {
				t.Errorf("IsSecureRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateDeleteCookieMatchesSessionCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	set := CreateSessionCookie(r, SessionCookieName, "abc", time.Now().Add(time.Hour))
	del := CreateDeleteCookie(r, SessionCookieName)

	if del.MaxAge >= 0 || del.Value != "" {
		t.Errorf("delete cookie should expire immediately, got %+v", del)
	}
	if del.Path != set.Path || del.SameSite != set.SameSite || del.HttpOnly != set.HttpOnly || del.Secure != set.Secure {
		t.Errorf("delete cookie flags %+v differ from session cookie %+v", del, set)
	}
}
