package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 250
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

type Cursor struct {
	ID string `json:"id,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

// Limit clamps the requested page size.
func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// After returns the id encoded in the page token, or "" for the first page.
func (p Pagination) After() (string, error) {
	token := strings.TrimSpace(p.PageToken)
	if token == "" {
		return "", nil
	}
	cursor, err := DecodeCursor(token)
	if err != nil || strings.TrimSpace(cursor.ID) == "" {
		return "", ErrInvalidPageToken
	}
	return cursor.ID, nil
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

// BuildCursorPageInfo trims a limit+1 result set and derives the next token.
func BuildCursorPageInfo[T any](data []T, limit int, extractCursor func(T) string) ([]T, PageInfo) {
	if len(data) == 0 {
		return data, PageInfo{HasMore: false}
	}

	if len(data) <= limit {
		return data, PageInfo{HasMore: false}
	}

	data = data[:limit]
	token, err := EncodeCursor(Cursor{ID: extractCursor(data[len(data)-1])})
	if err != nil {
		return data, PageInfo{HasMore: false}
	}
	return data, PageInfo{HasMore: true, NextPageToken: token}
}
