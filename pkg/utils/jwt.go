package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the resolved identity. RobotID is set only on robot tokens.
type Claims struct {
	UserID  uuid.UUID  `json:"user_id,omitempty"`
	RobotID *uuid.UUID `json:"robot_id,omitempty"`
	Email   string     `json:"email,omitempty"`
	Role    string     `json:"role"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

func GenerateUserToken(userID uuid.UUID, email, role, secret string, expiryHours int) (*TokenPair, error) {
	return generate(Claims{UserID: userID, Email: email, Role: role}, userID.String(), secret, expiryHours)
}

func GenerateRobotToken(robotID uuid.UUID, secret string, expiryHours int) (*TokenPair, error) {
	return generate(Claims{RobotID: &robotID, Role: "robot"}, robotID.String(), secret, expiryHours)
}

func generate(claims Claims, subject, secret string, expiryHours int) (*TokenPair, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if expiryHours <= 0 {
		expiryHours = 24
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(expiryHours) * time.Hour)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenPair{AccessToken: signed, ExpiresAt: expiresAt.Unix()}, nil
}

func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.Role == "robot" && claims.RobotID == nil {
		return nil, errors.New("robot token without robot id")
	}

	return claims, nil
}
