package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails signature, issuer,
// audience, or expiry checks. Callers never learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the identity claims carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username      string `json:"username"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Authenticated bool   `json:"authenticated"`
}

// UserID returns the numeric subject claim, or 0 if it is malformed.
func (c *Claims) UserID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// TokenManager mints and validates signed session tokens. Tokens are
// stateless: validity is cryptographic and temporal only.
type TokenManager struct {
	secret     []byte
	issuer     string
	audience   string
	expiration time.Duration
	now        func() time.Time
}

func NewTokenManager(secret, issuer, audience string, expirationHours int) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		audience:   audience,
		expiration: time.Duration(expirationHours) * time.Hour,
		now:        time.Now,
	}
}

// Issue signs a token for the user, expiring after the configured hours.
func (m *TokenManager) Issue(userID int64, username, firstName, lastName string) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.expiration)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username:      username,
		GivenName:     firstName,
		FamilyName:    lastName,
		Authenticated: true,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses the token and enforces signature, issuer, audience, and
// expiry. A token failing any check is rejected outright.
func (m *TokenManager) Validate(tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
