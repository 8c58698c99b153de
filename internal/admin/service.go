package admin

import (
	"context"
	"encoding/json"
	"strings"

	"beacon/internal/constants"
	pkgerrors "beacon/pkg/errors"
)

type Service interface {
	CreateTaggingRule(ctx context.Context, req CreateTaggingRuleRequest) (*TaggingRule, error)
	ListTaggingRules(ctx context.Context) ([]TaggingRule, error)
	GetTaggingRule(ctx context.Context, id string) (*TaggingRule, error)
	UpdateTaggingRule(ctx context.Context, id string, req UpdateTaggingRuleRequest) (*TaggingRule, error)
	DeleteTaggingRule(ctx context.Context, id string) error
	GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error)
	GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error)
}

type service struct {
	repo           Repository
	versioningRepo VersioningRepository
	auditStore     AuditStore
	notifier       ReloadNotifier
}

type ServiceOption func(*service)

func WithVersioning(versioningRepo VersioningRepository) ServiceOption {
	return func(s *service) {
		s.versioningRepo = versioningRepo
	}
}

func WithAudit(auditStore AuditStore) ServiceOption {
	return func(s *service) {
		s.auditStore = auditStore
	}
}

func WithReloadNotifier(notifier ReloadNotifier) ServiceOption {
	return func(s *service) {
		s.notifier = notifier
	}
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateTaggingRule(ctx context.Context, req CreateTaggingRuleRequest) (*TaggingRule, error) {
	if err := ValidateTaggingRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule := &TaggingRule{
		Name:       req.Name,
		Expression: req.Expression,
		Events:     req.Events,
		Dimensions: req.Dimensions,
		Priority:   req.Priority,
		Enabled:    getEnabledValue(req.Enabled),
	}

	if err := s.repo.CreateTaggingRule(ctx, rule); err != nil {
		if pkgerrors.IsConflict(err) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.createVersionAndAudit(ctx, rule, "create", nil)
	s.notifyChanged(ctx)

	return s.copyTaggingRule(rule), nil
}

func (s *service) ListTaggingRules(ctx context.Context) ([]TaggingRule, error) {
	rules, err := s.repo.ListTaggingRules(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return rules, nil
}

func (s *service) GetTaggingRule(ctx context.Context, id string) (*TaggingRule, error) {
	rule, err := s.repo.GetTaggingRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return s.copyTaggingRule(rule), nil
}

func (s *service) UpdateTaggingRule(ctx context.Context, id string, req UpdateTaggingRuleRequest) (*TaggingRule, error) {
	if err := ValidateUpdateTaggingRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule, err := s.repo.GetTaggingRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	oldValue, _ := s.ruleToMap(rule)
	s.updateTaggingRuleFields(rule, req)

	if err := s.repo.UpdateTaggingRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.createVersionAndAudit(ctx, rule, "update", oldValue)
	s.notifyChanged(ctx)

	return s.copyTaggingRule(rule), nil
}

func (s *service) DeleteTaggingRule(ctx context.Context, id string) error {
	rule, err := s.repo.GetTaggingRule(ctx, id)
	if err != nil {
		return s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	oldValue, _ := s.ruleToMap(rule)

	if err := s.repo.DeleteTaggingRule(ctx, id); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	if s.auditStore != nil {
		_ = s.auditStore.CreateAuditLog(ctx, s.buildAuditLog(id, "delete", oldValue, nil, getChangedBy(ctx)))
	}
	s.notifyChanged(ctx)

	return nil
}

func (s *service) GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error) {
	if s.versioningRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "versioning not enabled")
	}
	versions, err := s.versioningRepo.GetVersions(ctx, ruleID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return versions, nil
}

func (s *service) GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error) {
	if s.auditStore == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "audit logging not enabled")
	}
	if limit <= 0 || limit > constants.MaxLimit {
		limit = constants.DefaultLimit
	}
	logs, err := s.auditStore.GetAuditLogs(ctx, ruleID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return logs, nil
}

func (s *service) handleNotFoundError(err error, id string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "not found") {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
}

func (s *service) createVersionAndAudit(ctx context.Context, rule *TaggingRule, action string, oldValue map[string]interface{}) {
	if s.versioningRepo != nil {
		if ruleJSON, err := ruleToJSON(rule); err == nil {
			version := s.buildVersion(ctx, rule, ruleJSON)
			_ = s.versioningRepo.CreateVersion(ctx, version)
		}
	}

	if s.auditStore != nil {
		newValue, err := s.ruleToMap(rule)
		if err != nil {
			return
		}
		_ = s.auditStore.CreateAuditLog(ctx, s.buildAuditLog(rule.ID, action, oldValue, newValue, getChangedBy(ctx)))
	}
}

func (s *service) buildVersion(ctx context.Context, rule *TaggingRule, ruleJSON string) *RuleVersion {
	version := 1
	if nextVersion, err := s.versioningRepo.GetNextVersion(ctx, rule.ID); err == nil {
		version = nextVersion
	}

	return &RuleVersion{
		RuleID:    rule.ID,
		RuleType:  "tagging",
		RuleData:  ruleJSON,
		Version:   version,
		ChangedBy: getChangedBy(ctx),
	}
}

func (s *service) buildAuditLog(ruleID, action string, oldValue, newValue map[string]interface{}, changedBy string) *AuditLog {
	return &AuditLog{
		RuleID:    &ruleID,
		RuleType:  "tagging",
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedBy: changedBy,
	}
}

func (s *service) ruleToMap(rule *TaggingRule) (map[string]interface{}, error) {
	ruleData, err := json.Marshal(rule)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(ruleData, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) notifyChanged(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.NotifyRulesChanged(ctx)
	}
}

func (s *service) updateTaggingRuleFields(rule *TaggingRule, req UpdateTaggingRuleRequest) {
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Expression != nil {
		rule.Expression = *req.Expression
	}
	if req.Events != nil {
		rule.Events = *req.Events
	}
	if req.Dimensions != nil {
		rule.Dimensions = *req.Dimensions
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
}

func (s *service) copyTaggingRule(rule *TaggingRule) *TaggingRule {
	out := &TaggingRule{
		ID:         rule.ID,
		Name:       rule.Name,
		Expression: rule.Expression,
		Priority:   rule.Priority,
		Enabled:    rule.Enabled,
		CreatedAt:  rule.CreatedAt,
		UpdatedAt:  rule.UpdatedAt,
	}
	if rule.Events != nil {
		out.Events = make([]int64, len(rule.Events))
		copy(out.Events, rule.Events)
	}
	if rule.Dimensions != nil {
		out.Dimensions = make(map[string]string, len(rule.Dimensions))
		for k, v := range rule.Dimensions {
			out.Dimensions[k] = v
		}
	}
	return out
}

func getEnabledValue(reqEnabled *bool) bool {
	if reqEnabled == nil {
		return true
	}
	return *reqEnabled
}

func getChangedBy(ctx context.Context) string {
	if userID := ctx.Value("user_id"); userID != nil {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return "system"
}
