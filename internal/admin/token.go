package admin

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles granted to admin accounts.
const (
	RoleTables = "tables"
	RoleAudit  = "audit"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a verified admin token carries.
type Claims struct {
	Username string
	Roles    []string
	Expires  time.Time
}

// IssueToken signs an HS256 token for the account.
func IssueToken(secret, username string, roles []string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"sub":   username,
		"roles": roles,
		"exp":   jwt.NewNumericDate(exp).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ParseToken verifies the signature and expiry of an admin token.
func ParseToken(secret, token string) (*Claims, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	username, _ := mc["sub"].(string)
	if username == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{Username: username}
	if raw, ok := mc["roles"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				claims.Roles = append(claims.Roles, s)
			}
		}
	}
	if exp, ok := mc["exp"].(float64); ok {
		claims.Expires = time.Unix(int64(exp), 0)
	}
	return claims, nil
}

// Has reports whether the token grants the role.
func (c *Claims) Has(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
