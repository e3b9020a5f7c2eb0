package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Song struct {
	ID          uuid.UUID
	Title       string
	Artist      string
	PreviewUrl  sql.NullString
	DurationSec sql.NullInt32
	Active      bool
	Metadata    pqtype.NullRawMessage
	CreatedAt   time.Time
}
