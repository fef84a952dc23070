package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistent storage for saved projects.
type Repository interface {
	Create(ctx context.Context, p Project) error
	Get(ctx context.Context, id string) (Project, error)
	GetByApplicationNumber(ctx context.Context, applicationNumber string) (Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, p Project) error
	Delete(ctx context.Context, id string) error
}

// PgRepository implements Repository with PostgreSQL. Funding inputs are
// stored as a jsonb document and round-trip exactly as serialized.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL project repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const projectColumns = `id, application_number, country, schema_version, inputs, created_at, updated_at`

func (r *PgRepository) Create(ctx context.Context, p Project) error {
	inputs, err := json.Marshal(p.Inputs)
	if err != nil {
		return fmt.Errorf("marshaling inputs: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO projects (id, application_number, country, schema_version, inputs, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`,
		p.ID, p.ApplicationNumber, p.Country, p.SchemaVersion, inputs, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateApplication, p.ApplicationNumber)
		}
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, id string) (Project, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (r *PgRepository) GetByApplicationNumber(ctx context.Context, applicationNumber string) (Project, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE application_number = $1`, applicationNumber)
	return scanProject(row)
}

func (r *PgRepository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY application_number`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *PgRepository) Update(ctx context.Context, p Project) error {
	inputs, err := json.Marshal(p.Inputs)
	if err != nil {
		return fmt.Errorf("marshaling inputs: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE projects
		 SET country = $2, schema_version = $3, inputs = $4::jsonb, updated_at = $5
		 WHERE id = $1`,
		p.ID, p.Country, p.SchemaVersion, inputs, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	var inputs json.RawMessage
	err := row.Scan(&p.ID, &p.ApplicationNumber, &p.Country, &p.SchemaVersion, &inputs, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("scanning project: %w", err)
	}
	if err := json.Unmarshal(inputs, &p.Inputs); err != nil {
		return Project{}, fmt.Errorf("unmarshaling inputs for project %s: %w", p.ID, err)
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
