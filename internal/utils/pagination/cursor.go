package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned for tokens that do not decode to a Cursor.
var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the opaque keyset pagination state we encode/decode.
// ID + UpdatedUnix (in millis) establish a stable position in a list
// ordered by (updated_at DESC, id DESC).
type Cursor struct {
	ID          uint64 `json:"id"`
	UpdatedUnix int64  `json:"updated_unix,omitempty"`
}

// Empty reports whether c points at the first page.
func (c Cursor) Empty() bool {
	return c.ID == 0 || c.UpdatedUnix == 0
}

// Time returns the cursor's timestamp.
func (c Cursor) Time() time.Time {
	return time.UnixMilli(c.UpdatedUnix).UTC()
}

// After builds the cursor that resumes after an item with the given id and timestamp.
func After(id uint64, updated time.Time) Cursor {
	return Cursor{ID: id, UpdatedUnix: updated.UnixMilli()}
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
