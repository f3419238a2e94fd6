package handler

import (
	"net/http"
	"strings"

	"reviewhub/internal/app/reviews/entity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims структура claims для JWT токена
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	RoleName string `json:"role_name"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет JWT токен в запросах для Gin
type AuthMiddleware struct {
	jwtSecret string
}

// NewAuthMiddleware создает новый middleware для аутентификации
func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// Authenticate требует валидный JWT токен и добавляет данные пользователя в контекст Gin
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.parseToken(c)
		if err != "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err})
			c.Abort()
			return
		}

		setViewer(c, claims)
		c.Next()
	}
}

// OptionalAuthenticate разбирает токен если он есть, но пропускает анонимные запросы.
// Создание отзывов и чтение списков доступны без аккаунта
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		claims, err := m.parseToken(c)
		if err != "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err})
			c.Abort()
			return
		}

		setViewer(c, claims)
		c.Next()
	}
}

// RequireRole пропускает только пользователей с одной из указанных ролей
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleName, exists := c.Get("role_name")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		roleNameStr, ok := roleName.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid role data"})
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			if roleNameStr == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// parseToken извлекает и валидирует Bearer токен.
// Возвращает claims или текст ошибки для ответа
func (m *AuthMiddleware) parseToken(c *gin.Context) (*JWTClaims, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "Authorization header required"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "Invalid authorization header format"
	}

	token, err := jwt.ParseWithClaims(parts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, "Invalid or expired token"
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, "Invalid token claims"
	}

	return claims, ""
}

func setViewer(c *gin.Context, claims *JWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("role_name", claims.RoleName)
}

// viewerFromContext собирает идентичность текущего пользователя из контекста Gin.
// Для запроса без токена возвращает анонимного Viewer
func viewerFromContext(c *gin.Context) entity.Viewer {
	viewer := entity.Viewer{}

	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok {
			viewer.UserID = s
		}
	}
	if v, ok := c.Get("email"); ok {
		if s, ok := v.(string); ok {
			viewer.Email = s
		}
	}
	if v, ok := c.Get("role_name"); ok {
		if s, ok := v.(string); ok {
			viewer.Role = s
		}
	}

	return viewer
}
