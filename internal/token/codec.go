package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

// Compile-time interface check.
var _ core.TokenCodec = (*Codec)(nil)

// sessionClaims is the JWT body of a session token.
type sessionClaims struct {
	ProfileID  string `json:"profile_id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	PictureURL string `json:"picture,omitempty"`
	// Millisecond timestamps; the registered iat/exp only carry whole seconds.
	IssuedAtMs  int64 `json:"iat_ms"`
	ExpiresAtMs int64 `json:"exp_ms"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a shared HMAC secret.
// It performs no I/O.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces the wall clock used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec from the JWT settings in cfg.
func NewCodec(cfg *config.Config, opts ...Option) (*Codec, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: empty secret", ErrTokenGeneration)
	}
	if cfg.JWTExpiration <= 0 {
		return nil, fmt.Errorf("%w: non-positive expiration", ErrTokenGeneration)
	}

	var method jwt.SigningMethod
	switch cfg.JWTSigningAlgorithm {
	case "", config.SigningHS256:
		method = jwt.SigningMethodHS256
	case config.SigningHS384:
		method = jwt.SigningMethodHS384
	case config.SigningHS512:
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, cfg.JWTSigningAlgorithm)
	}

	c := &Codec{
		secret: []byte(cfg.JWTSecret),
		method: method,
		issuer: cfg.JWTIssuer,
		ttl:    cfg.JWTExpiration,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClaims stamps claims for a profile with the codec clock and lifetime,
// at millisecond precision.
func (c *Codec) NewClaims(profileID, email, name, pictureURL string) core.SessionClaims {
	issuedAt := c.now().UTC().Truncate(time.Millisecond)
	return core.SessionClaims{
		ProfileID:  profileID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(c.ttl),
	}
}

// Issue signs claims. Identical claims always yield the identical token.
// Timestamps finer than a millisecond are rejected since they cannot survive
// a round trip.
func (c *Codec) Issue(claims core.SessionClaims) (string, error) {
	if claims.ProfileID == "" {
		return "", fmt.Errorf("%w: missing profile id", ErrInvalidClaims)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", fmt.Errorf("%w: expiry not after issue time", ErrInvalidClaims)
	}
	if !wholeMillis(claims.IssuedAt) || !wholeMillis(claims.ExpiresAt) {
		return "", fmt.Errorf("%w: sub-millisecond timestamp", ErrInvalidClaims)
	}

	body := sessionClaims{
		ProfileID:  claims.ProfileID,
		Email:      claims.Email,
		Name:       claims.Name,
		PictureURL:  claims.PictureURL,
		IssuedAtMs:  claims.IssuedAt.UnixMilli(),
		ExpiresAtMs: claims.ExpiresAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   claims.ProfileID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(claims.ExpiresAt)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, body).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the claims.
// Errors are always ErrExpiredToken or wrap ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (*core.SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var body sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &body, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || body.ProfileID == "" || body.Subject != body.ProfileID || body.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	issuedAt := time.UnixMilli(body.IssuedAtMs).UTC()
	expiresAt := time.UnixMilli(body.ExpiresAtMs).UTC()
	if body.IssuedAtMs == 0 || !expiresAt.After(issuedAt) ||
		issuedAt.Unix() != body.IssuedAt.Unix() ||
		ceilSecond(expiresAt).Unix() != body.ExpiresAt.Unix() {
		return nil, fmt.Errorf("%w: inconsistent timestamps", ErrInvalidToken)
	}
	if !c.now().Before(expiresAt) {
		return nil, ErrExpiredToken
	}

	return &core.SessionClaims{
		ProfileID:  body.ProfileID,
		Email:      body.Email,
		Name:       body.Name,
		PictureURL: body.PictureURL,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
	}, nil
}

func wholeMillis(t time.Time) bool {
	return t.Nanosecond()%int(time.Millisecond) == 0
}

// ceilSecond rounds t up so the registered exp never precedes the exact expiry.
func ceilSecond(t time.Time) time.Time {
	if t.Nanosecond() == 0 {
		return t
	}
	return t.Truncate(time.Second).Add(time.Second)
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}
