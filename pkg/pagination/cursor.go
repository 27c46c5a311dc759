package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCursor is returned when a cursor token cannot be decoded into a
// non-negative sort key.
var ErrInvalidCursor = errors.New("invalid cursor")

// EncodeCursor turns a sort key into an opaque, URL-safe token: the base64
// (URL alphabet) encoding of the key's decimal form with the trailing '='
// padding stripped.
//
// Cursors are opaque, not secret. Anyone can decode them.
func EncodeCursor(id int64) string {
	raw := base64.URLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
	return strings.TrimRight(raw, "=")
}

// DecodeCursor reverses EncodeCursor. Padding is restored to a multiple of
// four before decoding, so both stripped and padded tokens are accepted.
// Any token that is empty, not valid base64, not a base-10 integer or
// negative yields an error wrapping ErrInvalidCursor.
func DecodeCursor(token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", ErrInvalidCursor)
	}

	if rem := len(token) % 4; rem != 0 {
		token += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: payload is not an integer", ErrInvalidCursor)
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: negative key", ErrInvalidCursor)
	}

	return id, nil
}
