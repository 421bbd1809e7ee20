package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload issued by the identity provider.
type Claims struct {
	UserID string `json:"uid"`
	jwtlib.RegisteredClaims
}

// Verifier checks HMAC-signed tokens. A Verifier without a secret is disabled.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Enabled reports whether a secret was configured.
func (v *Verifier) Enabled() bool { return v != nil && len(v.secret) > 0 }

// Sign creates a token for userID. The service never issues tokens itself;
// this exists for tooling and tests.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(v.secret)
}

// Parse validates a token string and returns the claims.
func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	if !v.Enabled() {
		return nil, errors.New("jwt secret is not configured")
	}
	opts := []jwtlib.ParserOption{jwtlib.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(v.issuer))
	}
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}
