// internal/profilestore/postgres.go
package profilestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"

	"github.com/google/uuid"
)

const profileColumns = `id, role, display_name, category_tags, rating, location, bio,
	follower_count, engagement_rate, budget_min, budget_max, created_at`

// PostgresStore reads the profiles table. Tags are a JSONB array so a
// category filter is a containment check.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) ListByRole(ctx context.Context, role models.Role) ([]models.Profile, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE role = $1 ORDER BY created_at, id`
	return s.query(ctx, query, string(role))
}

func (s *PostgresStore) SearchByText(ctx context.Context, role models.Role, text, category string) ([]models.Profile, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}
	q := matching.NewSearchQuery(text, category)

	var (
		sb   strings.Builder
		args = []interface{}{string(role)}
	)
	sb.WriteString(`SELECT ` + profileColumns + ` FROM profiles WHERE role = $1`)
	if q.Text != "" {
		args = append(args, "%"+escapeLike(q.Text)+"%")
		fmt.Fprintf(&sb, ` AND (display_name ILIKE $%d OR EXISTS (
		SELECT 1 FROM jsonb_array_elements_text(category_tags) AS tag WHERE tag ILIKE $%d))`, len(args), len(args))
	}
	if q.Category != matching.CategoryAll {
		tags, _ := json.Marshal([]string{q.Category})
		args = append(args, string(tags))
		fmt.Fprintf(&sb, ` AND category_tags @> $%d::jsonb`, len(args))
	}
	sb.WriteString(` ORDER BY created_at, id`)

	return s.query(ctx, sb.String(), args...)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	if err := p.Validate(); err != nil {
		return models.Profile{}, err
	}
	p = p.Clone()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}

	tags, err := json.Marshal(p.CategoryTags)
	if err != nil {
		return models.Profile{}, fmt.Errorf("encode category tags: %w", err)
	}

	var followers sql.NullInt64
	var engagement, budgetMin, budgetMax sql.NullFloat64
	if p.Influencer != nil {
		followers = sql.NullInt64{Int64: p.Influencer.FollowerCount, Valid: true}
		engagement = sql.NullFloat64{Float64: p.Influencer.EngagementRate, Valid: true}
	}
	if p.Brand != nil {
		budgetMin = sql.NullFloat64{Float64: p.Brand.Budget.Min, Valid: true}
		budgetMax = sql.NullFloat64{Float64: p.Brand.Budget.Max, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, string(p.Role), p.DisplayName, string(tags), p.Rating, p.Location, p.Bio,
		followers, engagement, budgetMin, budgetMax, p.CreatedAt,
	)
	if err != nil {
		return models.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrDuplicate, p.ID)
	}
	return p, nil
}

// ConnectedMetrics returns the viewer's linked social account figures, or
// nil when no account is linked.
func (s *PostgresStore) ConnectedMetrics(ctx context.Context, userID string) (*models.ConnectedMetrics, error) {
	var m models.ConnectedMetrics
	err := s.db.QueryRowContext(ctx,
		`SELECT follower_count, engagement_rate FROM social_connections WHERE user_id = $1`, userID,
	).Scan(&m.FollowerCount, &m.EngagementRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load connected metrics: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...interface{}) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row scanner) (models.Profile, error) {
	var (
		p          models.Profile
		role       string
		tags       []byte
		followers  sql.NullInt64
		engagement sql.NullFloat64
		budgetMin  sql.NullFloat64
		budgetMax  sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &role, &p.DisplayName, &tags, &p.Rating, &p.Location, &p.Bio,
		&followers, &engagement, &budgetMin, &budgetMax, &p.CreatedAt); err != nil {
		return models.Profile{}, err
	}
	p.Role = models.Role(role)

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.CategoryTags); err != nil {
			return models.Profile{}, fmt.Errorf("decode category tags for %s: %w", p.ID, err)
		}
	}
	if followers.Valid || engagement.Valid {
		p.Influencer = &models.InfluencerMetrics{FollowerCount: followers.Int64, EngagementRate: engagement.Float64}
	}
	if budgetMin.Valid || budgetMax.Valid {
		p.Brand = &models.BrandMetrics{Budget: models.BudgetRange{Min: budgetMin.Float64, Max: budgetMax.Float64}}
	}
	return p, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
