package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid is the only failure kind Verify reports. Signature,
// format and expiry problems are deliberately not distinguishable by
// callers; the cause stays wrapped inside for logs.
var ErrTokenInvalid = errors.New("token expired or invalid")

type Codec struct {
	secret []byte
}

func New(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Issue signs a token with subject, iat = now and exp = now + ttl. Extra
// claims are merged in but cannot override the registered ones. Every
// token carries a fresh jti so that two issues in the same second still
// produce distinct strings.
func (c *Codec) Issue(subject string, extra map[string]any, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))
	claims["jti"] = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *Codec) Verify(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (c *Codec) ExtractSubject(raw string) (string, error) {
	claims, err := c.Verify(raw)
	if err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return sub, nil
}
