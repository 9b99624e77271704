package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/ASGawde/AgriGPT/store"
)

// UpsertSubsidyScheme inserts or updates a scheme record keyed by its name.
func (d *DB) UpsertSubsidyScheme(ctx context.Context, scheme *store.SubsidyScheme) (*store.SubsidyScheme, error) {
	stmt := `
		INSERT INTO subsidy_scheme (scheme_name, eligibility, benefits, application_steps, documents, notes, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (scheme_name)
		DO UPDATE SET
			eligibility = EXCLUDED.eligibility,
			benefits = EXCLUDED.benefits,
			application_steps = EXCLUDED.application_steps,
			documents = EXCLUDED.documents,
			notes = EXCLUDED.notes,
			embedding = EXCLUDED.embedding
		RETURNING id
	`

	vector := pgvector.NewVector(scheme.Embedding)
	err := d.db.QueryRowContext(ctx, stmt,
		scheme.SchemeName,
		scheme.Eligibility,
		scheme.Benefits,
		scheme.ApplicationSteps,
		scheme.Documents,
		scheme.Notes,
		vector,
	).Scan(&scheme.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert subsidy scheme")
	}

	return scheme, nil
}

// SearchSubsidySchemes returns the schemes closest to the query vector by
// cosine distance.
func (d *DB) SearchSubsidySchemes(ctx context.Context, find *store.FindSubsidyScheme) ([]*store.SubsidyScheme, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = 3
	}

	query := `
		SELECT id, scheme_name, eligibility, benefits, application_steps, documents, notes
		FROM subsidy_scheme
		ORDER BY embedding <=> $1
		LIMIT $2
	`

	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(find.Vector), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search subsidy schemes")
	}
	defer rows.Close()

	list := []*store.SubsidyScheme{}
	for rows.Next() {
		var scheme store.SubsidyScheme
		err := rows.Scan(
			&scheme.ID,
			&scheme.SchemeName,
			&scheme.Eligibility,
			&scheme.Benefits,
			&scheme.ApplicationSteps,
			&scheme.Documents,
			&scheme.Notes,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan subsidy scheme")
		}
		list = append(list, &scheme)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
