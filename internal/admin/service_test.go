package admin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "beacon/pkg/errors"
)

type fakeRepo struct {
	rules  map[string]*TaggingRule
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rules: make(map[string]*TaggingRule)}
}

func (r *fakeRepo) CreateTaggingRule(ctx context.Context, rule *TaggingRule) error {
	r.nextID++
	rule.ID = fmt.Sprintf("rule-%d", r.nextID)
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	stored := *rule
	r.rules[rule.ID] = &stored
	return nil
}

func (r *fakeRepo) ListTaggingRules(ctx context.Context) ([]TaggingRule, error) {
	out := make([]TaggingRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, *rule)
	}
	return out, nil
}

func (r *fakeRepo) GetTaggingRule(ctx context.Context, id string) (*TaggingRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule not found")
	}
	copied := *rule
	return &copied, nil
}

func (r *fakeRepo) UpdateTaggingRule(ctx context.Context, rule *TaggingRule) error {
	if _, ok := r.rules[rule.ID]; !ok {
		return fmt.Errorf("rule not found")
	}
	stored := *rule
	r.rules[rule.ID] = &stored
	return nil
}

func (r *fakeRepo) DeleteTaggingRule(ctx context.Context, id string) error {
	if _, ok := r.rules[id]; !ok {
		return fmt.Errorf("rule not found")
	}
	delete(r.rules, id)
	return nil
}

type fakeAuditStore struct {
	logs []AuditLog
}

func (s *fakeAuditStore) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	s.logs = append(s.logs, *log)
	return nil
}

func (s *fakeAuditStore) GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error) {
	if len(s.logs) > limit {
		return s.logs[:limit], nil
	}
	return s.logs, nil
}

type fakeNotifier struct {
	calls int
}

func (n *fakeNotifier) NotifyRulesChanged(ctx context.Context) { n.calls++ }

func validCreateRequest() CreateTaggingRuleRequest {
	return CreateTaggingRuleRequest{
		Name:       "peru-receipt",
		Expression: `country == "pe" && page_name.contains("receipt")`,
		Events:     []int64{356},
		Dimensions: map[string]string{"eVar9": "peru-flow"},
		Priority:   10,
	}
}

func TestCreateTaggingRule(t *testing.T) {
	repo := newFakeRepo()
	audit := &fakeAuditStore{}
	notifier := &fakeNotifier{}
	svc := NewService(repo, WithAudit(audit), WithReloadNotifier(notifier))

	rule, err := svc.CreateTaggingRule(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.True(t, rule.Enabled, "enabled defaults to true")
	assert.Equal(t, []int64{356}, rule.Events)
	assert.Equal(t, 1, notifier.calls)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "create", audit.logs[0].Action)
	assert.Equal(t, "tagging", audit.logs[0].RuleType)
}

func TestCreateTaggingRuleRejectsBadExpression(t *testing.T) {
	svc := NewService(newFakeRepo())

	req := validCreateRequest()
	req.Expression = `country == `

	_, err := svc.CreateTaggingRule(context.Background(), req)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestCreateTaggingRuleRejectsNonBooleanExpression(t *testing.T) {
	svc := NewService(newFakeRepo())

	req := validCreateRequest()
	req.Expression = `page_name`

	_, err := svc.CreateTaggingRule(context.Background(), req)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestCreateTaggingRuleRejectsEventOutOfRange(t *testing.T) {
	svc := NewService(newFakeRepo())

	req := validCreateRequest()
	req.Events = []int64{501}

	_, err := svc.CreateTaggingRule(context.Background(), req)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUpdateTaggingRule(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, WithReloadNotifier(notifier))

	created, err := svc.CreateTaggingRule(context.Background(), validCreateRequest())
	require.NoError(t, err)

	newPriority := 99
	enabled := false
	updated, err := svc.UpdateTaggingRule(context.Background(), created.ID, UpdateTaggingRuleRequest{
		Priority: &newPriority,
		Enabled:  &enabled,
	})

	require.NoError(t, err)
	assert.Equal(t, 99, updated.Priority)
	assert.False(t, updated.Enabled)
	assert.Equal(t, created.Expression, updated.Expression)
	assert.Equal(t, 2, notifier.calls)
}

func TestUpdateTaggingRuleNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())

	name := "x"
	_, err := svc.UpdateTaggingRule(context.Background(), "missing", UpdateTaggingRuleRequest{Name: &name})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteTaggingRuleAuditsAndNotifies(t *testing.T) {
	repo := newFakeRepo()
	audit := &fakeAuditStore{}
	notifier := &fakeNotifier{}
	svc := NewService(repo, WithAudit(audit), WithReloadNotifier(notifier))

	created, err := svc.CreateTaggingRule(context.Background(), validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTaggingRule(context.Background(), created.ID))

	_, err = svc.GetTaggingRule(context.Background(), created.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, 2, notifier.calls)
	require.Len(t, audit.logs, 2)
	assert.Equal(t, "delete", audit.logs[1].Action)
}

func TestGetAuditLogsRequiresStore(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.GetAuditLogs(context.Background(), nil, 10)
	assert.Error(t, err)
}

func TestValidateDimensions(t *testing.T) {
	assert.NoError(t, validateDimensions(map[string]string{"eVar9": "x", "prop20": "y", "list1": "z", "loginStatus": "w"}))
	assert.Error(t, validateDimensions(map[string]string{"bad key": "x"}))
	assert.Error(t, validateDimensions(map[string]string{"eVar-9": "x"}))
}
