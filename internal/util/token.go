package util

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// WatchClaims is the payload of the platform's video-watch token. The token
// is consumed as an opaque credential; only the duration threshold is read,
// the signature is deliberately not verified here.
type WatchClaims struct {
	VideoDuration *float64 `json:"videoDuration"`
	jwt.RegisteredClaims
}

var watchTokenParser = jwt.NewParser()

// DecodeWatchToken decodes the claims of a watch token without verifying its
// signature. Any malformed input (segments, base64, JSON) yields an error
// wrapping ErrInvalidWatchToken; claims are never partially populated.
func DecodeWatchToken(token string) (*WatchClaims, error) {
	claims := &WatchClaims{}
	if _, _, err := watchTokenParser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWatchToken, err)
	}
	return claims, nil
}
