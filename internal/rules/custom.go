package rules

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/logger"
	"beacon/pkg/cel"
	"beacon/pkg/metrics"
)

// CustomRule is an operator-defined tagging rule: a CEL match expression
// over the page context plus the events and dimensions to apply when it
// holds. Rules are stored in Postgres and hot-reloaded.
type CustomRule struct {
	ID         string
	Name       string
	Expression string
	Events     []int64
	Dimensions map[string]string
	Priority   int
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CustomService evaluates the active custom rules against each event after
// the built-in tables ran. The rule set is swapped atomically on reload.
type CustomService struct {
	repo        CustomRuleRepository
	rules       []CustomRule
	rulesMu     sync.RWMutex
	rulesConfig config.RulesConfig
	evaluator   *cel.Evaluator
	logger      logger.Logger
}

func NewCustomService(repo CustomRuleRepository, cfg config.RulesConfig, log logger.Logger) (*CustomService, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	return &CustomService{
		repo:        repo,
		rules:       make([]CustomRule, 0),
		rulesConfig: cfg,
		evaluator:   evaluator,
		logger:      log,
	}, nil
}

// Apply runs every active custom rule against the context. Evaluation
// errors follow the configured fallback: skip leaves the document as the
// built-in tables produced it, abort fails the whole build.
func (s *CustomService) Apply(c *Context) error {
	rules := s.getActiveRules()
	if len(rules) == 0 {
		return nil
	}

	vars := s.activationVars(c)
	for _, rule := range rules {
		if err := c.Ctx.Err(); err != nil {
			return err
		}

		matched, err := s.evaluator.EvaluateMatch(c.Ctx, rule.Expression, vars)
		if err != nil {
			metrics.IncCustomRuleEvaluation(rule.ID, rule.Name, "error")
			if s.rulesConfig.Fallback.OnError == constants.FallbackAbort {
				metrics.FallbackUsageTotal.WithLabelValues("rules", "abort_on_error", "evaluation_error").Inc()
				return fmt.Errorf("custom rule %s evaluation failed: %w", rule.ID, err)
			}
			metrics.FallbackUsageTotal.WithLabelValues("rules", "skip_on_error", "evaluation_error").Inc()
			s.logger.WarnwCtx(c.Ctx, "Custom rule evaluation error, skipping rule",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
				"error", err,
			)
			continue
		}

		if !matched {
			metrics.IncCustomRuleEvaluation(rule.ID, rule.Name, "unmatched")
			continue
		}

		metrics.IncCustomRuleEvaluation(rule.ID, rule.Name, "matched")
		s.applyRule(c, rule)
	}

	return nil
}

func (s *CustomService) applyRule(c *Context, rule CustomRule) {
	for _, num := range rule.Events {
		c.Doc.AddEvent(int(num))
	}
	for key, value := range rule.Dimensions {
		applyDimension(c, key, value)
	}
	c.Log.DebugwCtx(c.Ctx, "Custom rule applied",
		"rule_id", rule.ID,
		"rule_name", rule.Name,
	)
}

// applyDimension routes a dimension assignment by key shape: eVarN, propN
// and listN address the numbered dimensions, anything else is a named
// analytics variable.
func applyDimension(c *Context, key, value string) {
	if n, ok := dimensionIndex(key, "eVar"); ok {
		c.Doc.SetEVar(n, value)
		return
	}
	if n, ok := dimensionIndex(key, "prop"); ok {
		c.Doc.SetProp(n, value)
		return
	}
	if n, ok := dimensionIndex(key, "list"); ok {
		c.Doc.SetListProp(n, value)
		return
	}
	c.Doc.SetNamedEVar(key, value)
}

func dimensionIndex(key, prefix string) (int, bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(key[len(prefix):])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (s *CustomService) activationVars(c *Context) map[string]interface{} {
	snap := c.Acc.Snapshot()
	analytics := snap.Analytics
	if analytics == nil {
		analytics = map[string]interface{}{}
	}
	elements := snap.DataElements
	if elements == nil {
		elements = map[string]interface{}{}
	}
	params := snap.QueryParams
	if params == nil {
		params = map[string]string{}
	}

	return map[string]interface{}{
		"page_name":       c.PageName,
		"page_name_event": c.PageNameEvent,
		"country":         c.Country,
		"txn_status":      c.TxnStatus,
		"link_name":       c.LinkName,
		"event_type":      c.Doc.EventType(),
		"analytics":       analytics,
		"data_elements":   elements,
		"query_params":    params,
	}
}

func (s *CustomService) getActiveRules() []CustomRule {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()

	rules := make([]CustomRule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

func (s *CustomService) ReloadRules(ctx context.Context, skipJitter ...bool) error {
	shouldSkipJitter := len(skipJitter) > 0 && skipJitter[0]

	if err := s.applyJitter(ctx, shouldSkipJitter); err != nil {
		return err
	}

	rules, err := s.repo.GetActiveRules(ctx)
	if err != nil {
		return err
	}

	s.updateRules(ctx, rules)
	return nil
}

func (s *CustomService) applyJitter(ctx context.Context, skipJitter bool) error {
	if skipJitter || s.rulesConfig.Reload.JitterMaxMilliseconds == 0 {
		return nil
	}

	jitter := time.Duration(rand.Intn(s.rulesConfig.Reload.JitterMaxMilliseconds)) * time.Millisecond
	s.logger.DebugwCtx(ctx, "Reload scheduled with jitter",
		"jitter_ms", jitter.Milliseconds(),
	)

	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CustomService) updateRules(ctx context.Context, rules []CustomRule) {
	s.rulesMu.Lock()
	s.rules = rules
	s.rulesMu.Unlock()

	metrics.SetActiveCustomRules(len(rules))
	s.logger.InfowCtx(ctx, "Successfully reloaded custom rules",
		"rules_count", len(rules),
	)
}

func (s *CustomService) StartReloader(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.rulesConfig.Reload.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	if err := s.ReloadRules(ctx); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to reload custom rules",
			"error", err,
		)
	}

	for {
		select {
		case <-ticker.C:
			if err := s.ReloadRules(ctx); err != nil {
				s.logger.ErrorwCtx(ctx, "Failed to reload custom rules",
					"error", err,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
