package registry

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pool is the subset of pgxpool.Pool the property source needs. pgxmock
// satisfies it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PropertySource reads canonical property names from the relational store.
type PropertySource struct {
	pool Pool
}

// NewPropertySource creates a PropertySource backed by the given pool.
func NewPropertySource(pool Pool) *PropertySource {
	return &PropertySource{pool: pool}
}

// KnownNames returns every active canonical property name, ordered by name
// so reconciliation tie-breaking is deterministic across runs.
func (s *PropertySource) KnownNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name FROM properties WHERE status = 'active' ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "registry: query property names")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "registry: scan property name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "registry: iterate property names")
	}

	zap.L().Debug("registry: property names loaded", zap.Int("count", len(names)))
	return names, nil
}
