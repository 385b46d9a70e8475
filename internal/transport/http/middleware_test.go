package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventory-service/internal/service"
	"inventory-service/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"plain", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"lowercase scheme", "bearer abc", "abc", true},
		{"quoted", `Bearer "abc"`, "abc", true},
		{"single quoted", "Bearer 'abc'", "abc", true},
		{"extra spaces", "Bearer   abc  ", "abc", true},
		{"no scheme", "abc.def.ghi", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractBearerToken(tc.header)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ExtractBearerToken(%q) = (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
			}
		})
	}
}

const (
	mwSecret   = "mw-secret"
	mwIssuer   = "auth-service"
	mwAudience = "inventory-service"
)

func signAccessToken(t *testing.T, sub, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iss":  mwIssuer,
		"aud":  mwAudience,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(mwSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func authTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	verifier := token.NewHSVerifier(mwSecret, mwIssuer, mwAudience)
	r := gin.New()
	r.GET("/whoami", AuthRequired(verifier, zap.NewNop()), func(c *gin.Context) {
		caller, _ := service.CallerFromContext(c.Request.Context())
		role, _ := service.RoleFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"caller": caller, "role": string(role)})
	})
	return r
}

func TestAuthRequired_ValidToken(t *testing.T) {
	r := authTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signAccessToken(t, "order-service", "ROLE_ORDER_SERVICE"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !containsAll(body, "order-service", "ROLE_ORDER_SERVICE") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestAuthRequired_EmptyRoleDefaultsToReadOnly(t *testing.T) {
	r := authTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signAccessToken(t, "reporting", ""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !containsAll(w.Body.String(), string(service.RoleReadOnly)) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthRequired_Rejections(t *testing.T) {
	r := authTestRouter(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong secret", "Bearer " + signWith(t, "other-secret")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}

func signWith(t *testing.T, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"iss": mwIssuer,
		"aud": mwAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}
