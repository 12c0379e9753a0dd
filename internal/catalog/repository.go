package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/streamkart/storefront/internal/domain"
)

var ErrPlanNotFound = errors.New("plan not found")

// Repository is the plan catalog. Plans live in a local SQLite file:
// the catalog is small, read-mostly and ships with the deployment.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

type RepoInterface interface {
	ListPlans(ctx context.Context) ([]*domain.Plan, error)
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
	HasPlan(ctx context.Context, id string) (bool, error)
	CreatePlan(ctx context.Context, plan *domain.Plan) error
	UpdatePlan(ctx context.Context, plan *domain.Plan) error
	DeletePlan(ctx context.Context, id string) error
	Close() error
	RunMigrations(string) error
}

func NewRepository(dbPath string, log zerolog.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db, log: log}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// ListPlans returns every active plan, grouped by service for the
// browse pages.
func (r *Repository) ListPlans(ctx context.Context) ([]*domain.Plan, error) {
	query := `
		SELECT id, service_name, label, price, active, created_at
		FROM plans
		WHERE active = 1
		ORDER BY service_name, price
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return plans, nil
}

func (r *Repository) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	query := `
		SELECT id, service_name, label, price, active, created_at
		FROM plans
		WHERE id = ?
	`

	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) HasPlan(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM plans WHERE id = ? AND active = 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check plan: %w", err)
	}
	return true, nil
}

func (r *Repository) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plans (id, service_name, label, price, active, created_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		plan.ID, plan.ServiceName, plan.Label, plan.Price.String(), boolToInt(plan.Active))
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (r *Repository) UpdatePlan(ctx context.Context, plan *domain.Plan) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE plans SET service_name = ?, label = ?, price = ?, active = ?
		 WHERE id = ?`,
		plan.ServiceName, plan.Label, plan.Price.String(), boolToInt(plan.Active), plan.ID)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plan result: %w", err)
	}
	if affected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *Repository) DeletePlan(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan result: %w", err)
	}
	if affected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*domain.Plan, error) {
	p := &domain.Plan{}
	var active int
	if err := row.Scan(
		&p.ID,
		&p.ServiceName,
		&p.Label,
		&p.Price,
		&active,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	p.Active = active != 0
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
