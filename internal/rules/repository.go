package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

type CustomRuleRepository interface {
	GetActiveRules(ctx context.Context) ([]CustomRule, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) CustomRuleRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetActiveRules(ctx context.Context) ([]CustomRule, error) {
	query := `
		SELECT id, name, expression, events, dimensions, priority, enabled, created_at, updated_at
		FROM tagging_rules
		WHERE enabled = true
		ORDER BY priority DESC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []CustomRule
	for rows.Next() {
		var rule CustomRule
		var dimensions []byte
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Expression,
			pq.Array(&rule.Events),
			&dimensions,
			&rule.Priority,
			&rule.Enabled,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		if len(dimensions) > 0 {
			if err := json.Unmarshal(dimensions, &rule.Dimensions); err != nil {
				return nil, fmt.Errorf("failed to decode rule dimensions: %w", err)
			}
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rules, nil
}
