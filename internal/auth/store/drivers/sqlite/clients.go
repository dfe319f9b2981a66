package sqlite

import (
	"context"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
)

type clientsRepo struct {
	db dbtx
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	var (
		c      domain.Client
		scopes string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, allowed_scopes, created_at FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &scopes, &c.CreatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.AllowedScopes = splitScopes(scopes)
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, allowed_scopes, created_at FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Client
	for rows.Next() {
		var (
			c      domain.Client
			scopes string
		)
		if err := rows.Scan(&c.ID, &c.Name, &scopes, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.AllowedScopes = splitScopes(scopes)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, allowed_scopes, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, joinScopes(c.AllowedScopes), c.CreatedAt)
	return err
}

func (r *clientsRepo) DeleteClient(ctx context.Context, clientID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, clientID)
	return err
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
