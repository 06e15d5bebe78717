package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestTokenService uses a fixed secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// CONSTRUCTION
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_ValidSecret(t *testing.T) {
	if _, err := NewTokenService("this-is-16-chars"); err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
}

// =========================================================================
// GENERATE / VALIDATE
// =========================================================================

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("github:1", "Ada", "ada")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := strings.Count(token, "."); got != 2 {
		t.Errorf("Generate() token has %d dots, want 2", got)
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("github:42", "Ada Lovelace", "ada")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	id, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if id.TokenIdentifier != "cofounder-match|github:42" {
		t.Errorf("TokenIdentifier = %q, want %q", id.TokenIdentifier, "cofounder-match|github:42")
	}
	if id.Subject != "github:42" || id.Issuer != SessionIssuer {
		t.Errorf("Subject/Issuer = %q/%q", id.Subject, id.Issuer)
	}
	if id.Name != "Ada Lovelace" || id.Nickname != "ada" {
		t.Errorf("hints = %q/%q, want Ada Lovelace/ada", id.Name, id.Nickname)
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)

	expired, err := ts.GenerateWithDuration("github:1", "", "", -time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}
	valid, _ := ts.Generate("github:1", "", "")
	tampered := valid[:len(valid)-3] + "xxx"

	other, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!")
	foreign, _ := other.Generate("github:1", "", "")

	noSubject, _ := ts.Generate("", "", "")

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"tampered signature", tampered},
		{"different secret", foreign},
		{"empty subject", noSubject},
		{"empty string", ""},
		{"garbage", "not.a.jwt.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token); err == nil {
				t.Fatalf("Validate(%s) should fail", tt.name)
			}
		})
	}
}

// =========================================================================
// IDENTIFY (cookie source)
// =========================================================================

func TestIdentify_NoCookie(t *testing.T) {
	ts := newTestTokenService(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := ts.Identify(req); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Identify() error = %v, want ErrNoCredentials", err)
	}
}

func TestIdentify_ValidCookie(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("github:7", "", "grace")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})

	id, err := ts.Identify(req)
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if id.Nickname != "grace" {
		t.Errorf("Nickname = %q, want grace", id.Nickname)
	}
}
