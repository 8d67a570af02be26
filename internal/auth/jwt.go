package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"admincore/internal/apperr"
)

// Signer issues and verifies HS256 access tokens. Verification is fully
// stateless: signature, expiry, issuer and audience only. Expiry is strict,
// no leeway.
type Signer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewSigner(secret []byte, issuer, audience string, ttl time.Duration) *Signer {
	return &Signer{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Sign mints an access token for the principal.
func (s *Signer) Sign(userID int64, username string, roles []string) (string, error) {
	now := s.now().UTC()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(userID, 10),
		"username": username,
		"roles":    roles,
		"iss":      s.issuer,
		"aud":      s.audience,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry, issuer and audience and returns the
// embedded principal claims. Any failure maps to ErrUnauthenticated.
func (s *Signer) Verify(tokenStr string) (Claims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrUnauthenticated
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !tok.Valid {
		return Claims{}, apperr.ErrUnauthenticated
	}
	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, apperr.ErrUnauthenticated
	}
	sub, _ := mapc["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, apperr.ErrUnauthenticated
	}
	username, _ := mapc["username"].(string)
	var roles []string
	if arr, ok := mapc["roles"].([]interface{}); ok {
		for _, v := range arr {
			if r, ok := v.(string); ok {
				roles = append(roles, r)
			}
		}
	}
	return Claims{UserID: userID, Username: username, Roles: roles}, nil
}
