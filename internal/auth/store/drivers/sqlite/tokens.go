package sqlite

import (
	"context"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/store"
)

type tokensRepo struct {
	db dbtx
}

const tokenColumns = `id, user_id, client_id, access_hash, refresh_hash, scopes,
	domain_access, access_expires_at, expires_at, created_at`

func (r *tokensRepo) scanToken(row interface{ Scan(...any) error }) (domain.Token, error) {
	var (
		t      domain.Token
		scopes string
		access string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.ClientID, &t.AccessHash, &t.RefreshHash, &scopes,
		&access, &t.AccessExpiresAt, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}

	t.Scopes = splitScopes(scopes)
	if t.DomainAccess, err = decodeAccess(access); err != nil {
		return domain.Token{}, err
	}
	return t, nil
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	access, err := encodeAccess(t.DomainAccess)
	if err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tokens (id, user_id, client_id, access_hash, refresh_hash, scopes,
		   domain_access, access_expires_at, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ClientID, t.AccessHash, t.RefreshHash, joinScopes(t.Scopes),
		access, t.AccessExpiresAt, t.ExpiresAt, t.CreatedAt)
	return err
}

func (r *tokensRepo) GetTokenByAccessHash(ctx context.Context, hash string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE access_hash = ?`, hash)
	return r.scanToken(row)
}

func (r *tokensRepo) GetTokenByRefreshHash(ctx context.Context, hash string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE refresh_hash = ?`, hash)
	return r.scanToken(row)
}

func (r *tokensRepo) UpdateTokenDomainAccess(ctx context.Context, id string, access map[string][]string) error {
	encoded, err := encodeAccess(access)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET domain_access = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *tokensRepo) DeleteToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, id)
	return err
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
