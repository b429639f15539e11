// README: HMAC JWT and development token verifiers for deployments without Firebase.
package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the caller role next to the registered claims; Subject is the uid.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) TokenVerifier {
	return &jwtVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *jwtVerifier) VerifyIDToken(_ context.Context, raw string) (*FirebaseToken, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	out := &FirebaseToken{UID: claims.Subject, Claims: map[string]interface{}{}}
	if claims.Role != "" {
		out.Claims["role"] = claims.Role
	}
	return out, nil
}

// IssueJWT signs an HS256 token for uid; the CLI uses it to mint test tokens.
func IssueJWT(secret, issuer, uid, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type devVerifier struct{}

// NewDevVerifier trusts the bearer value as "uid" or "uid:role". Local use only.
func NewDevVerifier() TokenVerifier {
	return devVerifier{}
}

func (devVerifier) VerifyIDToken(_ context.Context, raw string) (*FirebaseToken, error) {
	uid, role, _ := strings.Cut(strings.TrimSpace(raw), ":")
	if uid == "" {
		return nil, fmt.Errorf("%w: empty uid", ErrInvalidToken)
	}
	out := &FirebaseToken{UID: uid, Claims: map[string]interface{}{}}
	if role != "" {
		out.Claims["role"] = role
	}
	return out, nil
}
