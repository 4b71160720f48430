// Package jwt emite y valida los tokens de acceso a la API de facturación.
// Un token vale para un único emisor: lleva el RUC en cuyo nombre se firma.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret el secreto HMAC no está configurado.
var ErrEmptySecret = errors.New("jwt: secret vacío")

// Identity quién llama y en nombre de qué RUC.
type Identity struct {
	UserID string
	RUC    string
	Role   string // "admin" | "facturador" | "auditor"
}

// Claims claims estándar más RUC y rol; el usuario va en "sub".
type Claims struct {
	jwt.RegisteredClaims
	RUC  string `json:"ruc"`
	Role string `json:"role"`
}

// Generate firma un token HS256 para id con vigencia ttl.
func Generate(secret string, id Identity, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		RUC:  id.RUC,
		Role: id.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma, vigencia y emisor (si issuer no es vacío) y devuelve la identidad.
func Parse(secret, issuer, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, ErrEmptySecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("jwt: claims inválidos")
	}
	return Identity{UserID: claims.Subject, RUC: claims.RUC, Role: claims.Role}, nil
}
