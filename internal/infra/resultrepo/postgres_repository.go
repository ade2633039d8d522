package resultrepo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
)

const schema = `
CREATE TABLE IF NOT EXISTS heat_results (
	id           UUID PRIMARY KEY,
	session_id   TEXT NOT NULL DEFAULT '',
	zone_type    TEXT NOT NULL,
	score        DOUBLE PRECISION NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS heat_results_session_idx ON heat_results (session_id, created_at DESC);
`

// PostgresRepository implements survey.ResultRepository using pgx.
// The full result is stored as JSONB; zone and score are projected for querying.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the results table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, result survey.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO heat_results (id, session_id, zone_type, score, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, score = EXCLUDED.score
	`, result.ID, result.SessionID, result.HeatData.ZoneType, result.Recommendations.SuitabilityScore, payload, result.CreatedAt)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (survey.Result, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT session_id, payload
		FROM heat_results
		WHERE id = $1
		LIMIT 1
	`, id)
	var (
		sessionID string
		raw       []byte
	)
	if err := row.Scan(&sessionID, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return survey.Result{}, false, nil
		}
		return survey.Result{}, false, err
	}
	var res survey.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return survey.Result{}, false, err
	}
	res.SessionID = sessionID
	return res, true, nil
}

var _ survey.ResultRepository = (*PostgresRepository)(nil)
