package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT(secret []byte) {
	TokenAuth = jwtauth.New("HS256", secret, nil)
}

// GenerateToken signs a session token. The claims key is the user's stable
// external identifier (pid), never the row id.
func GenerateToken(pid string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"pid": pid,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// GetPidFromClaims extracts the claims key from a verified token.
func GetPidFromClaims(claims map[string]interface{}) (string, error) {
	pid, ok := claims["pid"].(string)
	if !ok || pid == "" {
		return "", errors.New("pid claim is missing or not a string")
	}
	return pid, nil
}
