package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var jwtSecret = []byte(secret())

func secret() string {
	if v := os.Getenv("KITCHEN_JWT_SECRET"); v != "" {
		return v
	}
	return "8c2a7f6e-41d3-4b9a-9f55-0d2e8c1b7a44"
}

type Claims struct {
	CashierID int64  `json:"cashier_id"`
	ShopID    int64  `json:"shop_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

func GenerateToken(cashierID, shopID int64, username string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := &Claims{
		CashierID: cashierID,
		ShopID:    shopID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   username,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(jwtSecret)
	return s, exp, err
}

func ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
