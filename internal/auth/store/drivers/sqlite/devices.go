package sqlite

import (
	"context"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
)

type devicesRepo struct {
	db dbtx
}

func (r *devicesRepo) AddUserDevice(ctx context.Context, d domain.UserDevice) error {
	if d.AuthorizedAt.IsZero() {
		d.AuthorizedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_devices (id, user_id, client_id, scopes, authorized_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.ClientID, joinScopes(d.Scopes), d.AuthorizedAt)
	return err
}

func (r *devicesRepo) ListUserDevices(ctx context.Context, userID string) ([]domain.UserDevice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, client_id, scopes, authorized_at
		 FROM user_devices WHERE user_id = ? ORDER BY authorized_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserDevice
	for rows.Next() {
		var (
			d      domain.UserDevice
			scopes string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.ClientID, &scopes, &d.AuthorizedAt); err != nil {
			return nil, err
		}
		d.Scopes = splitScopes(scopes)
		out = append(out, d)
	}
	return out, rows.Err()
}
