package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the keyset position of the last row a page returned. At holds
// the row's sort timestamp in unix nanoseconds; lists ordered by id alone
// leave it zero.
type Cursor struct {
	ID uint64 `json:"id"`
	At int64  `json:"at,omitempty"`
}

func (c Cursor) IsZero() bool { return c.ID == 0 }

func (c Cursor) Time() time.Time { return time.Unix(0, c.At).UTC() }

// Encode turns c into an opaque URL-safe token.
func Encode(c Cursor) string {
	b, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(b)
}

// Decode parses a token from a request. A nil or empty token is the first
// page.
func Decode(token *string) (Cursor, error) {
	if token == nil || *token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(*token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.ID == 0 {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}

// Page expects items fetched with limit+1. It cuts the probe row and, when
// there was one, returns the token resuming after the last kept item.
func Page[T any](items []T, limit int, cursorOf func(T) Cursor) ([]T, *string) {
	if len(items) <= limit {
		return items, nil
	}
	items = items[:limit]
	token := Encode(cursorOf(items[limit-1]))
	return items, &token
}
