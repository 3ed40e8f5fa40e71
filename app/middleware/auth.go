package appMiddleware

import (
	"os"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "userID"
const UserRoleKey contextKey = "userRole"

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

var JwtSecretKey = secretFromEnv("JWT_SECRET_KEY", "dev-secret-key")

// ExpectedAudience is checked against the aud claim of incoming tokens when
// set. main overrides it from the jwt config section.
var ExpectedAudience = os.Getenv("JWT_AUDIENCE")

func secretFromEnv(name, fallback string) []byte {
	if v := os.Getenv(name); v != "" {
		return []byte(v)
	}
	return []byte(fallback)
}
