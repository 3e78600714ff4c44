package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Actions recorded by this service.
const (
	ActionUserCreated  = "user.created"
	ActionLoginSuccess = "user.login.success"
)

type Entry struct {
	UserID   *string
	UserName string
	Action   string
	ClientID *string
	Metadata []byte
}

// Write records an audit entry; failures are returned so callers can ignore if needed.
func Write(ctx context.Context, db *pgxpool.Pool, e Entry) error {
	if db == nil {
		return nil
	}

	var metadata interface{}
	if len(e.Metadata) > 0 {
		raw := json.RawMessage(e.Metadata)
		metadata = raw
	}

	_, err := db.Exec(ctx, `
INSERT INTO audit_logs (user_id, user_name, action, client_id, metadata)
VALUES ($1, $2, $3, $4, $5)
`, e.UserID, e.UserName, e.Action, e.ClientID, metadata)

	return err
}
