package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := manager.Generate("user-123", "user@example.com")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if token == "" {
			t.Fatal("Generate returned empty token")
		}

		claims, err := manager.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != "user-123" {
			t.Errorf("UserID = %s, want user-123", claims.UserID)
		}
		if claims.Email != "user@example.com" {
			t.Errorf("Email = %s, want user@example.com", claims.Email)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := NewJWTManager("test-secret-key", -time.Minute)
		token, err := expired.Generate("user-123", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := NewJWTManager("different-secret", time.Hour)
		token, err := other.Generate("user-123", "")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := manager.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
		}
	})
}
