package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCurrentWithoutToken(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	if _, err := mgr.Current(); !errors.Is(err, ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing, got %v", err)
	}
	if _, err := mgr.Token(); !errors.Is(err, ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing from Token, got %v", err)
	}
}

func TestCurrentWithoutUserClearsToken(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(TokenKey, "tok")
	mgr := NewManager(store)

	if _, err := mgr.Current(); !errors.Is(err, ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing, got %v", err)
	}
	if _, err := store.Get(TokenKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected token to be cleared, got %v", err)
	}
}

func TestCurrentWithCorruptUserClearsEverything(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(TokenKey, "tok")
	_ = store.Set(UserKey, "{not json")
	mgr := NewManager(store)

	if _, err := mgr.Current(); !errors.Is(err, ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing, got %v", err)
	}
	for _, key := range []string{TokenKey, UserKey} {
		if _, err := store.Get(key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s to be cleared, got %v", key, err)
		}
	}
}

func TestSaveCurrentClear(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	want := Session{Token: "tok", User: User{Name: "Grace", Email: "grace@example.com"}}

	if err := mgr.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := mgr.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	token, err := mgr.Token()
	if err != nil || token != "tok" {
		t.Fatalf("expected token 'tok', got %q (%v)", token, err)
	}

	if err := mgr.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := mgr.Current(); !errors.Is(err, ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing after clear, got %v", err)
	}
}

func TestSaveRejectsEmptyToken(t *testing.T) {
	if err := NewManager(NewMemoryStore()).Save(Session{}); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestDisplayName(t *testing.T) {
	if got := (Session{}).DisplayName(); got != "User" {
		t.Fatalf("expected fallback name, got %q", got)
	}
	if got := (Session{User: User{Name: "Ada"}}).DisplayName(); got != "Ada" {
		t.Fatalf("expected 'Ada', got %q", got)
	}
}

func TestPeek(t *testing.T) {
	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expires := issued.Add(7 * 24 * time.Hour)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-42",
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := Peek("Bearer " + signed)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
	if claims.Expired(issued) || !claims.Expired(expires) {
		t.Fatalf("unexpected Expired() results")
	}
}

func TestPeekRejectsGarbage(t *testing.T) {
	if _, err := Peek("not-a-token"); err == nil {
		t.Fatalf("expected error")
	}
}
