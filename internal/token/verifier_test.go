package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "auth-service"
	testAudience = "inventory-service"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "user-1",
		"role": "ROLE_ADMIN",
		"iss":  testIssuer,
		"aud":  testAudience,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func TestParseAndValidate_OK(t *testing.T) {
	v := NewHSVerifier(testSecret, testIssuer, testAudience)
	raw := signToken(t, testSecret, validClaims())

	claims, err := v.ParseAndValidate(context.Background(), raw)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "ROLE_ADMIN" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.Exp.IsZero() {
		t.Fatal("expected exp to be populated")
	}
}

func TestParseAndValidate_Rejections(t *testing.T) {
	v := NewHSVerifier(testSecret, testIssuer, testAudience)

	cases := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"wrong secret", func(t *testing.T) string {
			return signToken(t, "other-secret", validClaims())
		}},
		{"wrong issuer", func(t *testing.T) string {
			c := validClaims()
			c["iss"] = "someone-else"
			return signToken(t, testSecret, c)
		}},
		{"wrong audience", func(t *testing.T) string {
			c := validClaims()
			c["aud"] = "billing-service"
			return signToken(t, testSecret, c)
		}},
		{"expired", func(t *testing.T) string {
			c := validClaims()
			c["exp"] = time.Now().Add(-time.Minute).Unix()
			return signToken(t, testSecret, c)
		}},
		{"missing subject", func(t *testing.T) string {
			c := validClaims()
			delete(c, "sub")
			return signToken(t, testSecret, c)
		}},
		{"wrong algorithm", func(t *testing.T) string {
			tok := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
			s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
			if err != nil {
				t.Fatalf("sign none: %v", err)
			}
			return s
		}},
		{"garbage", func(t *testing.T) string {
			return "not.a.token"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.ParseAndValidate(context.Background(), tc.token(t)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
