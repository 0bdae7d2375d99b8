package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/platform/ctxutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

// studentClaims carries the learner identity issued by the identity service.
// The student id lives in the student_id claim, falling back to sub.
type studentClaims struct {
	StudentID string `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, jwtSecretKey string) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("middleware", "AuthMiddleware"),
		secret: []byte(jwtSecretKey),
	}
}

// RequireAuth verifies the bearer token and attaches StudentData to the
// request context. Tokens are HS256 only.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		studentID, err := am.parseStudentID(tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		ctx := ctxutil.WithStudentData(c.Request.Context(), &ctxutil.StudentData{
			StudentID:   studentID,
			TokenString: tokenString,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) parseStudentID(tokenString string) (uuid.UUID, error) {
	claims := &studentClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}
	if !parsed.Valid {
		return uuid.Nil, jwt.ErrTokenNotValidYet
	}
	raw := strings.TrimSpace(claims.StudentID)
	if raw == "" {
		raw = strings.TrimSpace(claims.Subject)
	}
	return uuid.Parse(raw)
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return strings.TrimSpace(c.Query("token"))
}
