package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// Codec issues and verifies signed, expiring tokens. It holds no state beyond
// the signer, so verification never consults a session store.
type Codec struct {
	signer Signer
	issuer string
	now    func() time.Time
}

// CodecOption defines a function type to modify the Codec instance.
type CodecOption func(*Codec)

// WithNowFunc sets the clock used for issuing and expiry checks (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// WithIssuer sets the iss claim. Tokens from a different issuer fail verification.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func NewCodec(signer Signer, options ...CodecOption) (*Codec, error) {
	if signer == nil {
		return nil, pkgerrors.New("[NewCodec] signer is required")
	}
	c := &Codec{
		signer: signer,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Issue signs claims valid for ttl from now. Every token gets a unique jti so two
// tokens issued for the same user within the same second still differ.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", pkgerrors.Errorf("[Codec.Issue] ttl must be positive, got %s", ttl)
	}
	now := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    c.issuer,
		Subject:   strconv.FormatInt(claims.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	raw, err := c.signer.Sign(&claims)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Codec.Issue]")
	}
	return raw, nil
}

// Verify checks signature, shape and expiry. Failures wrap ErrExpired, ErrMalformed or ErrBadSignature.
func (c *Codec) Verify(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, c.signer.GetVerificationKey, options...); err != nil {
		return nil, classify(err)
	}

	if claims.UserID <= 0 || !claims.Role.Valid() || (claims.Use != UseAccess && claims.Use != UseRefresh) {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
