package admin

import "time"

// TaggingRule is the API representation of a custom tagging rule: a CEL
// activation expression plus the events and dimensions to apply when it
// matches.
type TaggingRule struct {
	ID         string            `json:"id" db:"id"`
	Name       string            `json:"name" db:"name"`
	Expression string            `json:"expression" db:"expression"`
	Events     []int64           `json:"events" db:"events"`
	Dimensions map[string]string `json:"dimensions" db:"dimensions"`
	Priority   int               `json:"priority" db:"priority"`
	Enabled    bool              `json:"enabled" db:"enabled"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

type CreateTaggingRuleRequest struct {
	Name       string            `json:"name" binding:"required"`
	Expression string            `json:"expression" binding:"required"`
	Events     []int64           `json:"events"`
	Dimensions map[string]string `json:"dimensions"`
	Priority   int               `json:"priority"`
	Enabled    *bool             `json:"enabled"`
}

type UpdateTaggingRuleRequest struct {
	Name       *string            `json:"name"`
	Expression *string            `json:"expression"`
	Events     *[]int64           `json:"events"`
	Dimensions *map[string]string `json:"dimensions"`
	Priority   *int               `json:"priority"`
	Enabled    *bool              `json:"enabled"`
}

type RuleVersion struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"rule_id"`
	RuleType     string    `json:"rule_type"`
	RuleData     string    `json:"rule_data"`
	Version      int       `json:"version"`
	ChangedBy    string    `json:"changed_by,omitempty"`
	ChangeReason string    `json:"change_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuditLog struct {
	ID        string                 `json:"id" bson:"_id,omitempty"`
	RuleID    *string                `json:"rule_id,omitempty" bson:"rule_id,omitempty"`
	RuleType  string                 `json:"rule_type" bson:"rule_type"`
	Action    string                 `json:"action" bson:"action"`
	OldValue  map[string]interface{} `json:"old_value,omitempty" bson:"old_value,omitempty"`
	NewValue  map[string]interface{} `json:"new_value,omitempty" bson:"new_value,omitempty"`
	ChangedBy string                 `json:"changed_by" bson:"changed_by"`
	Timestamp time.Time              `json:"timestamp" bson:"timestamp"`
}
