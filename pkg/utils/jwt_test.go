package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/filedepot/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	ConfigureJWT("round-trip-secret", 1)

	user := &models.User{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Email:     "user@test.com",
		Role:      models.UserRoleUser,
	}

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("user id mismatch: %s", claims.UserID)
	}
	if claims.Email != user.Email || claims.Role != user.Role {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	ConfigureJWT("signing-secret", 1)

	user := &models.User{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Email:     "user@test.com",
		Role:      models.UserRoleUser,
	}
	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	t.Run("garbage token", func(t *testing.T) {
		if _, err := ValidateToken("definitely.not.ajwt"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		ConfigureJWT("a-different-secret", 1)
		defer ConfigureJWT("signing-secret", 1)
		if _, err := ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("foreign issuer", func(t *testing.T) {
		// Correctly signed but minted by someone else.
		foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "some-other-service",
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := foreign.SignedString([]byte("signing-secret"))
		if err != nil {
			t.Fatalf("signing failed: %v", err)
		}
		if _, err := ValidateToken(signed); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}
