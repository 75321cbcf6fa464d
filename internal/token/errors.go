package token

import "errors"

var (
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrInvalidClaims indicates claims that cannot be issued
	ErrInvalidClaims = errors.New("invalid session claims")

	// ErrUnsupportedAlgorithm indicates a signing algorithm outside HS256/384/512
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)
