package sqlutil

import (
	"database/sql"
	"encoding/json"

	"github.com/sqlc-dev/pqtype"
)

// Helpers for converting between Go values and nullable column types

// ToNullString maps the empty string to NULL
func ToNullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

// FromNullString converts sql.NullString to a string with default
func FromNullString(val sql.NullString, defaultVal string) string {
	if !val.Valid {
		return defaultVal
	}
	return val.String
}

// ToNullInt32 maps zero to NULL
func ToNullInt32(val int) sql.NullInt32 {
	if val == 0 {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(val), Valid: true}
}

// FromNullInt32 converts sql.NullInt32 to int, NULL becoming zero
func FromNullInt32(val sql.NullInt32) int {
	if !val.Valid {
		return 0
	}
	return int(val.Int32)
}

// ToNullRawMessage wraps a JSON document for a nullable jsonb column
func ToNullRawMessage(val json.RawMessage) pqtype.NullRawMessage {
	if len(val) == 0 {
		return pqtype.NullRawMessage{}
	}
	return pqtype.NullRawMessage{RawMessage: val, Valid: true}
}

// FromNullRawMessage unwraps a nullable jsonb column, NULL becoming nil
func FromNullRawMessage(val pqtype.NullRawMessage) json.RawMessage {
	if !val.Valid {
		return nil
	}
	return val.RawMessage
}
