package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// DBPool abstracts pgxpool.Pool so tests can substitute a mock pool.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists the base catalog, per-client custom opportunities, and
// per-client watchlists.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

func NewStore(pool DBPool, log *zap.Logger) *Store {
	return &Store{pool: pool, log: log.Named("store")}
}

// listSQL returns the base catalog plus the client's custom rows, ordered by
// deadline. Deadlines come back normalized to YYYY-MM-DD.
const listSQL = `
	SELECT id, name, to_char(deadline, 'YYYY-MM-DD'), region, type, stage,
		owner, funding, fit, focus, link, false AS custom
	FROM opportunities
	UNION ALL
	SELECT id, name, to_char(deadline, 'YYYY-MM-DD'), region, type, stage,
		owner, funding, fit, focus, link, true AS custom
	FROM custom_opportunities
	WHERE client_id = $1
	ORDER BY 3 ASC
`

func (s *Store) ListOpportunities(ctx context.Context, clientID string) ([]models.Opportunity, error) {
	rows, err := s.pool.Query(ctx, listSQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("list opportunities failed: %w", err)
	}
	defer rows.Close()

	opps := []models.Opportunity{}
	for rows.Next() {
		var o models.Opportunity
		if err := rows.Scan(
			&o.ID, &o.Name, &o.Deadline, &o.Region, &o.Type, &o.Stage,
			&o.Owner, &o.Funding, &o.Fit, &o.Focus, &o.Link, &o.Custom,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return opps, nil
}

const upsertCustomSQL = `
	INSERT INTO custom_opportunities
		(id, client_id, name, deadline, region, type, stage, owner, funding, fit, focus, link)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id, client_id) DO UPDATE SET
		name = EXCLUDED.name,
		deadline = EXCLUDED.deadline,
		region = EXCLUDED.region,
		type = EXCLUDED.type,
		stage = EXCLUDED.stage,
		owner = EXCLUDED.owner,
		funding = EXCLUDED.funding,
		fit = EXCLUDED.fit,
		focus = EXCLUDED.focus,
		link = EXCLUDED.link,
		updated_at = NOW()
`

// UpsertCustom stores a client's custom opportunity, replacing any previous
// row with the same id. Last write wins; there is no version column.
func (s *Store) UpsertCustom(ctx context.Context, clientID string, o models.Opportunity) error {
	_, err := s.pool.Exec(ctx, upsertCustomSQL,
		o.ID, clientID, o.Name, o.Deadline, o.Region, o.Type, o.Stage,
		o.Owner, o.Funding, o.Fit, o.Focus, o.Link,
	)
	if err != nil {
		return fmt.Errorf("upsert custom opportunity failed: %w", err)
	}
	return nil
}

// DeleteCustom removes the client's custom row and any watchlist rows that
// reference it.
func (s *Store) DeleteCustom(ctx context.Context, clientID, id string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM custom_opportunities WHERE id = $1 AND client_id = $2`, id, clientID); err != nil {
		return fmt.Errorf("delete custom opportunity failed: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM watchlist WHERE opportunity_id = $1 AND client_id = $2`, id, clientID); err != nil {
		return fmt.Errorf("delete watchlist rows failed: %w", err)
	}
	return nil
}

func (s *Store) ListWatchlist(ctx context.Context, clientID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT opportunity_id FROM watchlist WHERE client_id = $1 ORDER BY opportunity_id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist failed: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return ids, nil
}

// SetWatch toggles a watchlist pair. Both directions are idempotent.
func (s *Store) SetWatch(ctx context.Context, clientID, opportunityID string, active bool) error {
	if active {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO watchlist (client_id, opportunity_id)
			VALUES ($1, $2)
			ON CONFLICT (client_id, opportunity_id) DO NOTHING
		`, clientID, opportunityID)
		if err != nil {
			return fmt.Errorf("watchlist insert failed: %w", err)
		}
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`DELETE FROM watchlist WHERE client_id = $1 AND opportunity_id = $2`, clientID, opportunityID)
	if err != nil {
		return fmt.Errorf("watchlist delete failed: %w", err)
	}
	return nil
}

const seedSQL = `
	INSERT INTO opportunities
		(id, name, deadline, region, type, stage, owner, funding, fit, focus, link)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		deadline = EXCLUDED.deadline,
		region = EXCLUDED.region,
		type = EXCLUDED.type,
		stage = EXCLUDED.stage,
		owner = EXCLUDED.owner,
		funding = EXCLUDED.funding,
		fit = EXCLUDED.fit,
		focus = EXCLUDED.focus,
		link = EXCLUDED.link,
		updated_at = NOW()
`

// SeedCatalog upserts the base catalog rows and returns how many were written.
func (s *Store) SeedCatalog(ctx context.Context, items []models.Opportunity) (int, error) {
	count := 0
	for _, o := range items {
		_, err := s.pool.Exec(ctx, seedSQL,
			o.ID, o.Name, o.Deadline, o.Region, o.Type, o.Stage,
			o.Owner, o.Funding, o.Fit, o.Focus, o.Link,
		)
		if err != nil {
			s.log.Error("failed to seed catalog row", zap.String("id", o.ID), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}
