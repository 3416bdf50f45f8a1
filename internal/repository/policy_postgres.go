package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medassist/claims-backend/internal/entity"
)

// PolicyRepository defines the interface for policy lookups. The
// adjudication core only reads policy terms; deductible accumulators
// are maintained by the upstream policy administration system.
type PolicyRepository interface {
	GetByNumber(ctx context.Context, policyNumber string) (*entity.Policy, error)
	List(ctx context.Context, skip, limit int) ([]*entity.Policy, error)
}

var _ PolicyRepository = &PolicyPostgres{}

// PolicyPostgres implements PolicyRepository using PostgreSQL
type PolicyPostgres struct {
	db *pgxpool.Pool
}

func NewPolicyPostgres(db *pgxpool.Pool) *PolicyPostgres {
	return &PolicyPostgres{db: db}
}

const policyColumns = `id, policy_number, policyholder_name, status,
	deductible::float8, deductible_remaining::float8, copay::float8,
	coinsurance_rate::float8, out_of_pocket_max::float8`

func (r *PolicyPostgres) GetByNumber(ctx context.Context, policyNumber string) (*entity.Policy, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE policy_number = $1`,
		policyNumber,
	)

	policy, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("get policy: %w", err)
	}

	return policy, nil
}

func (r *PolicyPostgres) List(ctx context.Context, skip, limit int) ([]*entity.Policy, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+policyColumns+` FROM policies ORDER BY policy_number LIMIT $1 OFFSET $2`,
		limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var policies []*entity.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}

	return policies, nil
}

func scanPolicy(row pgx.Row) (*entity.Policy, error) {
	var (
		p               entity.Policy
		id              pgtype.UUID
		copay           pgtype.Float8
		coinsuranceRate pgtype.Float8
	)

	err := row.Scan(
		&id,
		&p.PolicyNumber,
		&p.PolicyholderName,
		&p.Status,
		&p.Terms.Deductible,
		&p.Terms.DeductibleRemaining,
		&copay,
		&coinsuranceRate,
		&p.Terms.OutOfPocketMax,
	)
	if err != nil {
		return nil, err
	}

	p.ID = uuidString(id)
	if copay.Valid {
		v := copay.Float64
		p.Terms.Copay = &v
	}
	if coinsuranceRate.Valid {
		v := coinsuranceRate.Float64
		p.Terms.CoinsuranceRate = &v
	}

	return &p, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	v, err := id.Value()
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
