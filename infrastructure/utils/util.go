package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"creator-hub/infrastructure/logger"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	var claims jwt.MapClaims = payload
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}

// stateTTL bounds how long an OAuth authorization round-trip may take.
const stateTTL = 10 * time.Minute

// SignState produces the OAuth state parameter: a short-lived signed token
// carrying the initiating user's id, so the callback never has to guess whose
// credential it is committing.
func SignState(userID, platform, secretKey string) (string, error) {
	return GenerateToken(map[string]interface{}{
		"user_id":  userID,
		"platform": platform,
		"exp":      GetCurrentTime().Add(stateTTL).Unix(),
	}, secretKey)
}

// ParseState validates the state parameter and returns the user id it was
// signed for. Expired or tampered states are rejected outright.
func ParseState(state, platform, secretKey string) (string, error) {
	token, err := jwt.Parse(state, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid state: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid state claims")
	}
	if p, _ := claims["platform"].(string); p != platform {
		return "", fmt.Errorf("state issued for platform %q, callback is %q", p, platform)
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", fmt.Errorf("state missing user id")
	}
	return userID, nil
}
