package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	pkgerrors "beacon/pkg/errors"
)

type Repository interface {
	CreateTaggingRule(ctx context.Context, rule *TaggingRule) error
	ListTaggingRules(ctx context.Context) ([]TaggingRule, error)
	GetTaggingRule(ctx context.Context, id string) (*TaggingRule, error)
	UpdateTaggingRule(ctx context.Context, rule *TaggingRule) error
	DeleteTaggingRule(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateTaggingRule(ctx context.Context, rule *TaggingRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	dimensions, err := json.Marshal(rule.Dimensions)
	if err != nil {
		return fmt.Errorf("failed to marshal dimensions: %w", err)
	}

	query := `
		INSERT INTO tagging_rules (id, name, expression, events, dimensions, priority, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.Expression,
		pq.Array(rule.Events), dimensions,
		rule.Priority, rule.Enabled, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule with name '%s' already exists", rule.Name))
			}
		}
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule with name '%s' already exists", rule.Name))
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetTaggingRule(ctx context.Context, id string) (*TaggingRule, error) {
	query := `
		SELECT id, name, expression, events, dimensions, priority, enabled, created_at, updated_at
		FROM tagging_rules
		WHERE id = $1
	`

	rule, err := scanTaggingRule(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

func (r *PostgresRepository) ListTaggingRules(ctx context.Context) ([]TaggingRule, error) {
	query := `
		SELECT id, name, expression, events, dimensions, priority, enabled, created_at, updated_at
		FROM tagging_rules
		ORDER BY priority DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []TaggingRule
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		rule, err := scanTaggingRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	return rules, nil
}

func (r *PostgresRepository) UpdateTaggingRule(ctx context.Context, rule *TaggingRule) error {
	rule.UpdatedAt = time.Now()

	dimensions, err := json.Marshal(rule.Dimensions)
	if err != nil {
		return fmt.Errorf("failed to marshal dimensions: %w", err)
	}

	query := `
		UPDATE tagging_rules
		SET name = $1, expression = $2, events = $3, dimensions = $4, priority = $5, enabled = $6, updated_at = $7
		WHERE id = $8
	`

	res, err := r.db.ExecContext(ctx, query,
		rule.Name, rule.Expression, pq.Array(rule.Events), dimensions,
		rule.Priority, rule.Enabled, rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

func (r *PostgresRepository) DeleteTaggingRule(ctx context.Context, id string) error {
	query := `DELETE FROM tagging_rules WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTaggingRule(row rowScanner) (*TaggingRule, error) {
	var rule TaggingRule
	var dimensions []byte

	if err := row.Scan(
		&rule.ID, &rule.Name, &rule.Expression,
		pq.Array(&rule.Events), &dimensions,
		&rule.Priority, &rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(dimensions) > 0 {
		if err := json.Unmarshal(dimensions, &rule.Dimensions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dimensions: %w", err)
		}
	}

	return &rule, nil
}
