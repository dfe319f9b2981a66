package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/store"
)

type deviceCodesRepo struct {
	db dbtx
}

const deviceCodeColumns = `id, code, user_code, client_id, requested_scopes, status,
	user_id, granted_scopes, domain_access, poll_interval, last_polled_at, expires_at, created_at`

func (r *deviceCodesRepo) scanDeviceCode(row interface{ Scan(...any) error }) (domain.DeviceCode, error) {
	var (
		dc         domain.DeviceCode
		status     string
		requested  string
		granted    string
		access     string
		userID     sql.NullString
		lastPolled sql.NullTime
	)
	err := row.Scan(&dc.ID, &dc.Code, &dc.UserCode, &dc.ClientID, &requested, &status,
		&userID, &granted, &access, &dc.PollInterval, &lastPolled, &dc.ExpiresAt, &dc.CreatedAt)
	if err != nil {
		return domain.DeviceCode{}, mapNotFound(err)
	}

	dc.Status = domain.DeviceCodeStatus(status)
	dc.RequestedScopes = splitScopes(requested)
	dc.GrantedScopes = splitScopes(granted)
	dc.UserID = mapNullStringPtr(userID)
	dc.LastPolledAt = mapNullTimePtr(lastPolled)

	if dc.DomainAccess, err = decodeAccess(access); err != nil {
		return domain.DeviceCode{}, err
	}
	return dc, nil
}

func (r *deviceCodesRepo) CreateDeviceCode(ctx context.Context, dc domain.DeviceCode) error {
	access, err := encodeAccess(dc.DomainAccess)
	if err != nil {
		return err
	}
	if dc.CreatedAt.IsZero() {
		dc.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO device_codes (id, code, user_code, client_id, requested_scopes, status,
		   user_id, granted_scopes, domain_access, poll_interval, last_polled_at, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dc.ID, dc.Code, dc.UserCode, dc.ClientID, joinScopes(dc.RequestedScopes), string(dc.Status),
		mapOptionalString(dc.UserID), joinScopes(dc.GrantedScopes), access,
		dc.PollInterval, mapOptionalTime(dc.LastPolledAt), dc.ExpiresAt, dc.CreatedAt)
	return err
}

func (r *deviceCodesRepo) GetDeviceCodeByCode(ctx context.Context, code string) (domain.DeviceCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceCodeColumns+` FROM device_codes WHERE code = ?`, code)
	return r.scanDeviceCode(row)
}

func (r *deviceCodesRepo) GetDeviceCodeByUserCode(ctx context.Context, userCode string) (domain.DeviceCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceCodeColumns+` FROM device_codes WHERE user_code = ?`, userCode)
	return r.scanDeviceCode(row)
}

func (r *deviceCodesRepo) UpdateDeviceCodeDecision(ctx context.Context, dc domain.DeviceCode) error {
	access, err := encodeAccess(dc.DomainAccess)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE device_codes
		 SET status = ?, user_id = ?, granted_scopes = ?, domain_access = ?
		 WHERE id = ?`,
		string(dc.Status), mapOptionalString(dc.UserID), joinScopes(dc.GrantedScopes), access, dc.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *deviceCodesRepo) TouchDeviceCodePoll(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE device_codes SET last_polled_at = ? WHERE id = ?`, at, id)
	return err
}

func (r *deviceCodesRepo) DeleteDeviceCode(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM device_codes WHERE id = ?`, id)
	return err
}

func (r *deviceCodesRepo) DeleteExpiredDeviceCodes(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM device_codes WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
