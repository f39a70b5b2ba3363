// Package auth issues and validates the bearer tokens devices use against
// the household server. A device proves membership once with the household
// join code and then holds a signed token carrying the account and device
// identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 30 * 24 * time.Hour
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingAccountClaim  = errors.New("account claim must be provided")
	errMissingDeviceClaim   = errors.New("device claim must be provided")
)

// DeviceIdentity is the validated identity carried by a device token.
type DeviceIdentity struct {
	AccountID string
	DeviceID  string
}

type deviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// TokenIssuerConfig configures the device JWT issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// TokenIssuer issues device JWTs after join code verification.
type TokenIssuer struct {
	config TokenIssuerConfig
	clock  func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		config: TokenIssuerConfig{
			SigningSecret: cfg.SigningSecret,
			Issuer:        cfg.Issuer,
			Audience:      cfg.Audience,
			TokenTTL:      ttl,
			Clock:         clock,
		},
		clock: clock,
	}
}

// IssueDeviceToken produces a signed JWT and its expiry (seconds) for an
// enrolled device.
func (i *TokenIssuer) IssueDeviceToken(_ context.Context, identity DeviceIdentity) (string, int64, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", 0, errMissingSigningSecret
	}
	if identity.AccountID == "" {
		return "", 0, errMissingAccountClaim
	}
	if identity.DeviceID == "" {
		return "", 0, errMissingDeviceClaim
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.config.TokenTTL).UTC()

	claims := deviceClaims{
		DeviceID: identity.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.AccountID,
			Issuer:    i.config.Issuer,
			Audience:  []string{i.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.config.SigningSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}

// ValidateToken ensures the device JWT is well formed and returns its
// identity.
func (i *TokenIssuer) ValidateToken(tokenString string) (DeviceIdentity, error) {
	if len(i.config.SigningSecret) == 0 {
		return DeviceIdentity{}, errMissingSigningSecret
	}

	claims := &deviceClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.config.SigningSecret, nil
		},
		jwt.WithAudience(i.config.Audience),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		return DeviceIdentity{}, err
	}
	if claims.Subject == "" {
		return DeviceIdentity{}, errMissingAccountClaim
	}
	if claims.DeviceID == "" {
		return DeviceIdentity{}, errMissingDeviceClaim
	}
	return DeviceIdentity{AccountID: claims.Subject, DeviceID: claims.DeviceID}, nil
}
