package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/values"
)

// ClaimRepository persists claims in PostgreSQL.
type ClaimRepository struct {
	pool *Pool
}

func NewClaimRepository(pool *Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

const claimColumns = `id::text, claim_number, claim_type, description,
	amount::float8, currency, status, submitted_at, documents, reports,
	user_id::text, policy_id::text, reviewed_by::text, review_notes,
	reviewed_at, created_at, updated_at`

func (r *ClaimRepository) Create(ctx context.Context, c *claim.Claim) error {
	reports, err := json.Marshal(c.Reports)
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}

	_, err = r.pool.Pgx().Exec(ctx, `
		INSERT INTO claims (
			id, claim_number, claim_type, description, amount, currency,
			status, submitted_at, documents, reports, user_id, policy_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID.String(), c.ClaimNumber, c.ClaimType, c.Description,
		c.Amount.ToFloat64(), c.Amount.Currency(), c.Status.String(),
		c.SubmittedAt, c.Documents, reports, c.UserID.String(),
		c.PolicyID.String(), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

// Update persists mutable claim state: status, review fields, documents,
// and forensic reports.
func (r *ClaimRepository) Update(ctx context.Context, c *claim.Claim) error {
	reports, err := json.Marshal(c.Reports)
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}

	var reviewedBy *string
	if c.ReviewedBy != nil {
		s := c.ReviewedBy.String()
		reviewedBy = &s
	}

	tag, err := r.pool.Pgx().Exec(ctx, `
		UPDATE claims SET
			status = $2, documents = $3, reports = $4, reviewed_by = $5,
			review_notes = $6, reviewed_at = $7, updated_at = $8
		WHERE id = $1`,
		c.ID.String(), c.Status.String(), c.Documents, reports,
		reviewedBy, c.ReviewNotes, c.ReviewedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrClaimNotFound
	}
	return nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*claim.Claim, error) {
	row := r.pool.Pgx().QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = $1`, id.String())
	c, err := scanClaim(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrClaimNotFound
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

func (r *ClaimRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*claim.Claim, error) {
	rows, err := r.pool.Pgx().Query(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE user_id = $1 ORDER BY submitted_at DESC`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("list claims by user: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (r *ClaimRepository) ListClaims(ctx context.Context) ([]*claim.Claim, error) {
	rows, err := r.pool.Pgx().Query(ctx,
		`SELECT `+claimColumns+` FROM claims ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

func collectClaims(rows pgx.Rows) ([]*claim.Claim, error) {
	var out []*claim.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClaim(row pgx.Row) (*claim.Claim, error) {
	var (
		c          claim.Claim
		id         string
		userID     string
		policyID   string
		reviewedBy *string
		amount     float64
		currency   string
		status     string
		reports    []byte
	)

	err := row.Scan(&id, &c.ClaimNumber, &c.ClaimType, &c.Description,
		&amount, &currency, &status, &c.SubmittedAt, &c.Documents, &reports,
		&userID, &policyID, &reviewedBy, &c.ReviewNotes, &c.ReviewedAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse claim id: %w", err)
	}
	if c.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if c.PolicyID, err = uuid.Parse(policyID); err != nil {
		return nil, fmt.Errorf("parse policy id: %w", err)
	}
	if reviewedBy != nil {
		rid, err := uuid.Parse(*reviewedBy)
		if err != nil {
			return nil, fmt.Errorf("parse reviewer id: %w", err)
		}
		c.ReviewedBy = &rid
	}
	if c.Amount, err = values.NewMoneyFromFloat(amount, currency); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if c.Status, err = claim.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	if len(reports) > 0 {
		if err := json.Unmarshal(reports, &c.Reports); err != nil {
			return nil, fmt.Errorf("unmarshal reports: %w", err)
		}
	}
	return &c, nil
}
