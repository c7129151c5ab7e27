package authUtils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// Claims carried by an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	WardID string `json:"ward_id,omitempty"`
	jwt.StandardClaims
}

// GenerateToken signs a token for the user. The returned token id (jti) is
// what logout revokes.
func GenerateToken(secret, userID, role, wardID string, ttl time.Duration, now time.Time) (token, tokenID string, expiresAt time.Time, err error) {
	if secret == "" {
		return "", "", time.Time{}, errors.New("JWT secret is not set")
	}

	tokenID = uuid.NewString()
	expiresAt = now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		WardID: wardID,
		StandardClaims: jwt.StandardClaims{
			Id:        tokenID,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, tokenID, expiresAt, nil
}

// ParseToken validates signature, algorithm and expiry.
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" || claims.Id == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
