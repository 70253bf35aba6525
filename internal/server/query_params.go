package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
)

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

// optionalID parses an id query value; empty yields zero.
func optionalID(value, field string) (snowflake.ID, error) {
	id, err := parseOptionalSnowflakeID(value)
	if err != nil {
		return 0, newValidationError(field, "invalid_"+field, "invalid "+field)
	}
	if id == nil {
		return 0, nil
	}
	return *id, nil
}

// requiredID parses a path or body id that must be present.
func requiredID(value, field string) (snowflake.ID, error) {
	id, err := parseOptionalSnowflakeID(value)
	if err != nil || id == nil {
		return 0, newValidationError(field, "invalid_"+field, "invalid "+field)
	}
	return *id, nil
}

// looseID accepts an id sent either as a JSON string or a JSON number.
type looseID string

func (l *looseID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*l = ""
		return nil
	}
	*l = looseID(strings.Trim(raw, `"`))
	return nil
}

func (l looseID) String() string { return strings.TrimSpace(string(l)) }
