package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned by TokenExpiry for tokens that are not three
// dot-separated segments with a base64url JSON object payload.
var ErrMalformedToken = errors.New("malformed token")

// segmentParser only decodes segments; signatures are never checked on the
// client, the token is opaque to it.
var segmentParser = jwt.NewParser()

// maxExpSeconds bounds exp values time.Unix can represent. Anything past it
// is clamped to a far-future (or far-past) instant.
const maxExpSeconds = 1 << 62

// TokenExpiry decodes the payload segment of token and returns its expiry
// claim. The boolean is false when the token carries no exp claim.
// Fractional seconds are kept.
func TokenExpiry(token string) (time.Time, bool, error) {
	claims, err := decodeTokenClaims(token)
	if err != nil {
		return time.Time{}, false, err
	}

	raw, ok := claims["exp"]
	if !ok || raw == nil {
		return time.Time{}, false, nil
	}

	n, ok := raw.(json.Number)
	if !ok {
		return time.Time{}, false, fmt.Errorf("%w: exp claim is not a number", ErrMalformedToken)
	}

	exp, err := numericDateTime(n)
	if err != nil {
		return time.Time{}, false, err
	}
	return exp, true, nil
}

// numericDateTime converts a NumericDate (seconds since the epoch, possibly
// fractional) without truncating or overflowing.
func numericDateTime(n json.Number) (time.Time, error) {
	if sec, err := n.Int64(); err == nil {
		return time.Unix(clampSeconds(sec), 0), nil
	}

	// out-of-range values come back as ±Inf with ErrRange
	f, err := n.Float64()
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return time.Time{}, fmt.Errorf("%w: exp claim: %v", ErrMalformedToken, err)
	}
	switch {
	case math.IsNaN(f):
		return time.Time{}, fmt.Errorf("%w: exp claim is not a number", ErrMalformedToken)
	case f >= maxExpSeconds:
		return time.Unix(maxExpSeconds, 0), nil
	case f <= -maxExpSeconds:
		return time.Unix(-maxExpSeconds, 0), nil
	}

	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), nil
}

func clampSeconds(sec int64) int64 {
	return max(min(sec, maxExpSeconds), -maxExpSeconds)
}

// IsTokenValid reports whether token is well formed and not yet expired.
// It never panics and fails closed on any decoding problem; the empty string
// stands for an absent token.
//
// A token without an exp claim is treated as never expiring. This matches
// the development tokens the backend issues today and should be revisited
// before tokens without expiry reach production.
func IsTokenValid(token string) bool {
	return IsTokenValidAt(token, time.Now())
}

// IsTokenValidAt is IsTokenValid evaluated at now.
func IsTokenValidAt(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	exp, ok, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	if !ok {
		return true
	}

	return now.Before(exp)
}

func decodeTokenClaims(token string) (jwt.MapClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	// numbers stay json.Number so exp keeps its full precision
	var claims jwt.MapClaims
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrMalformedToken)
	}
	// "null" decodes cleanly into a nil map
	if claims == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedToken)
	}

	return claims, nil
}
