package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — проверенная идентичность вызывающего из access-токена auth-service.
type Claims struct {
	Subject string
	Role    string
	Exp     time.Time
}

// HSVerifier валидирует HS256 access-токены, выпущенные auth-service.
// Сервис только потребляет идентичность — выпуск и отзыв токенов не здесь.
type HSVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewHSVerifier(secret, issuer, audience string) *HSVerifier {
	return &HSVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

type customClaims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (v *HSVerifier) ParseAndValidate(ctx context.Context, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &customClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithAudience(v.audience), jwt.WithIssuer(v.issuer))
	if err != nil {
		return nil, err
	}
	cc, ok := parsed.Claims.(*customClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if cc.Sub == "" {
		return nil, errors.New("token without subject")
	}

	claims := &Claims{Subject: cc.Sub, Role: cc.Role}
	if cc.ExpiresAt != nil {
		claims.Exp = cc.ExpiresAt.Time
	}
	return claims, nil
}
