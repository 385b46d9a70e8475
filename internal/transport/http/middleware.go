package http

import (
	"net/http"
	"strings"

	"inventory-service/internal/service"
	"inventory-service/internal/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthRequired валидирует Bearer-токен, выпущенный auth-service, и кладёт
// проверенную идентичность вызывающего в контекст запроса.
func AuthRequired(verifier *token.HSVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewErrorResponse("UNAUTHORIZED", "missing Authorization header"))
			return
		}
		tok, ok := ExtractBearerToken(authz)
		if !ok || tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewErrorResponse("UNAUTHORIZED", "invalid Authorization header"))
			return
		}

		claims, err := verifier.ParseAndValidate(c.Request.Context(), tok)
		if err != nil {
			log.Warn("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewErrorResponse("UNAUTHORIZED", "invalid token"))
			return
		}

		role := service.Role(claims.Role)
		if role == "" {
			role = service.RoleReadOnly
		}
		ctx := service.WithCaller(c.Request.Context(), claims.Subject, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ExtractBearerToken извлекает токен из заголовка Authorization,
// устойчиво к лишним кавычкам по краям.
func ExtractBearerToken(authz string) (string, bool) {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	t := strings.TrimSpace(parts[1])
	t = strings.Trim(t, " \"'")
	return t, true
}
