package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/policy"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
)

// PolicyRepository persists policies in PostgreSQL.
type PolicyRepository struct {
	pool *Pool
}

func NewPolicyRepository(pool *Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

const policyColumns = `id::text, policy_number, policy_type, start_date,
	end_date, premium::float8, currency, status, user_id::text,
	created_at, updated_at`

func (r *PolicyRepository) Create(ctx context.Context, p *policy.Policy) error {
	_, err := r.pool.Pgx().Exec(ctx, `
		INSERT INTO policies (
			id, policy_number, policy_type, start_date, end_date, premium,
			currency, status, user_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID.String(), p.PolicyNumber, p.PolicyType, p.StartDate, p.EndDate,
		p.Premium.ToFloat64(), p.Premium.Currency(), p.Status.String(),
		p.UserID.String(), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

func (r *PolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*policy.Policy, error) {
	row := r.pool.Pgx().QueryRow(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1`, id.String())
	p, err := scanPolicy(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NewNotFoundError("policy")
		}
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return p, nil
}

func (r *PolicyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*policy.Policy, error) {
	rows, err := r.pool.Pgx().Query(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE user_id = $1 ORDER BY start_date DESC`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("list policies by user: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

func (r *PolicyRepository) ListPolicies(ctx context.Context) ([]*policy.Policy, error) {
	rows, err := r.pool.Pgx().Query(ctx,
		`SELECT `+policyColumns+` FROM policies ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

func collectPolicies(rows pgx.Rows) ([]*policy.Policy, error) {
	var out []*policy.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPolicy(row pgx.Row) (*policy.Policy, error) {
	var (
		p        policy.Policy
		id       string
		userID   string
		premium  float64
		currency string
		status   string
	)

	err := row.Scan(&id, &p.PolicyNumber, &p.PolicyType, &p.StartDate,
		&p.EndDate, &premium, &currency, &status, &userID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse policy id: %w", err)
	}
	if p.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if p.Premium, err = values.NewMoneyFromFloat(premium, currency); err != nil {
		return nil, fmt.Errorf("parse premium: %w", err)
	}
	if p.Status, err = policy.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return &p, nil
}
