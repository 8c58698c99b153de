package admin

import (
	"context"

	"beacon/internal/logger"
	"beacon/internal/rules"
)

// ReloadNotifier tells the evaluation side that the rule set changed so it
// can refresh without waiting for the next scheduled reload.
type ReloadNotifier interface {
	NotifyRulesChanged(ctx context.Context)
}

type customServiceNotifier struct {
	custom *rules.CustomService
	logger logger.Logger
}

func NewReloadNotifier(custom *rules.CustomService, log logger.Logger) ReloadNotifier {
	if log == nil {
		log = logger.NopLogger()
	}
	return &customServiceNotifier{custom: custom, logger: log}
}

func (n *customServiceNotifier) NotifyRulesChanged(ctx context.Context) {
	if n.custom == nil {
		return
	}
	if err := n.custom.ReloadRules(ctx, true); err != nil {
		n.logger.WarnwCtx(ctx, "Rule reload after change failed", "error", err)
	}
}
