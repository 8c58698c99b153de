package integration

import (
	"time"

	"beacon/internal/admin"
	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/logger"
)

const (
	containerStartupTimeout = 60
	timestampDelay          = 10 * time.Millisecond
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestRulesConfig() config.RulesConfig {
	return config.RulesConfig{
		Fallback: config.FallbackConfig{
			OnError: constants.FallbackSkip,
		},
		Reload: config.ReloadConfig{
			IntervalSeconds: 60,
		},
	}
}

func createTestTaggingRule(name, expression string, priority int, enabled bool) *admin.TaggingRule {
	return &admin.TaggingRule{
		Name:       name,
		Expression: expression,
		Events:     []int64{356},
		Dimensions: map[string]string{"eVar9": "test-flow"},
		Priority:   priority,
		Enabled:    enabled,
	}
}
