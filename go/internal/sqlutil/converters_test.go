package sqlutil

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
)

func TestNullString(t *testing.T) {
	assert.Equal(t, sql.NullString{}, ToNullString(""))
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, ToNullString("x"))
	assert.Equal(t, "fallback", FromNullString(sql.NullString{}, "fallback"))
	assert.Equal(t, "x", FromNullString(sql.NullString{String: "x", Valid: true}, "fallback"))
}

func TestNullInt32(t *testing.T) {
	assert.False(t, ToNullInt32(0).Valid)
	assert.Equal(t, sql.NullInt32{Int32: 30, Valid: true}, ToNullInt32(30))
	assert.Equal(t, 0, FromNullInt32(sql.NullInt32{}))
	assert.Equal(t, 30, FromNullInt32(sql.NullInt32{Int32: 30, Valid: true}))
}

func TestNullRawMessage(t *testing.T) {
	assert.False(t, ToNullRawMessage(nil).Valid)

	doc := json.RawMessage(`{"genre":"rock"}`)
	wrapped := ToNullRawMessage(doc)
	assert.True(t, wrapped.Valid)
	assert.JSONEq(t, string(doc), string(FromNullRawMessage(wrapped)))
	assert.Nil(t, FromNullRawMessage(pqtype.NullRawMessage{}))
}
