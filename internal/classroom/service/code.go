package service

import (
	"crypto/rand"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/touchbase/internal/classroom/domain"
)

// newCode takes the tail of a fresh ULID's random component, which is
// Crockford base32 and free of ambiguous letters.
func newCode() string {
	id := ulid.MustNew(ulid.Now(), rand.Reader).String()
	return id[len(id)-domain.CodeLength:]
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
