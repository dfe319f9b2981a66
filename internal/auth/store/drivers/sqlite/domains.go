package sqlite

import (
	"context"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
)

type domainsRepo struct {
	db dbtx
}

func (r *domainsRepo) GetDomainByName(ctx context.Context, name string) (domain.DomainRecord, error) {
	var (
		d      domain.DomainRecord
		scopes string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT name, full_name, category, description, scopes FROM domains WHERE name = ?`, name).
		Scan(&d.Name, &d.FullName, &d.Category, &d.Description, &scopes)
	if err != nil {
		return domain.DomainRecord{}, mapNotFound(err)
	}
	d.Scopes = splitScopes(scopes)
	return d, nil
}

func (r *domainsRepo) ListDomains(ctx context.Context) ([]domain.DomainRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, full_name, category, description, scopes FROM domains ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DomainRecord
	for rows.Next() {
		var (
			d      domain.DomainRecord
			scopes string
		)
		if err := rows.Scan(&d.Name, &d.FullName, &d.Category, &d.Description, &scopes); err != nil {
			return nil, err
		}
		d.Scopes = splitScopes(scopes)
		out = append(out, d)
	}
	return out, rows.Err()
}
