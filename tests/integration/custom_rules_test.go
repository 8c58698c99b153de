package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/admin"
	"beacon/internal/rules"
)

func TestCustomRuleRepository_GetActiveRules_FiltersDisabled(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	adminRepo := admin.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	require.NoError(t, adminRepo.CreateTaggingRule(ctx, createTestTaggingRule("enabled_rule", `country == "pe"`, 10, true)))
	require.NoError(t, adminRepo.CreateTaggingRule(ctx, createTestTaggingRule("disabled_rule", `country == "mx"`, 20, false)))

	repo := rules.NewRepository(infra.PostgresDB)
	active, err := repo.GetActiveRules(ctx)
	require.NoError(t, err)

	require.Len(t, active, 1)
	assert.Equal(t, "enabled_rule", active[0].Name)
}

func TestCustomRuleRepository_GetActiveRules_Ordering(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	adminRepo := admin.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	// Same priority resolves by creation order, higher priority first.
	require.NoError(t, adminRepo.CreateTaggingRule(ctx, createTestTaggingRule("low_first", `country == "pe"`, 5, true)))
	time.Sleep(timestampDelay)
	require.NoError(t, adminRepo.CreateTaggingRule(ctx, createTestTaggingRule("low_second", `country == "mx"`, 5, true)))
	time.Sleep(timestampDelay)
	require.NoError(t, adminRepo.CreateTaggingRule(ctx, createTestTaggingRule("high", `country == "br"`, 50, true)))

	repo := rules.NewRepository(infra.PostgresDB)
	active, err := repo.GetActiveRules(ctx)
	require.NoError(t, err)

	require.Len(t, active, 3)
	assert.Equal(t, "high", active[0].Name)
	assert.Equal(t, "low_first", active[1].Name)
	assert.Equal(t, "low_second", active[2].Name)
}

func TestCustomRuleRepository_GetActiveRules_RoundTrip(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	adminRepo := admin.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestTaggingRule("round_trip", `page_name.contains("receipt") && country == "pe"`, 10, true)
	rule.Events = []int64{356, 64, 283}
	rule.Dimensions = map[string]string{"eVar9": "peru-flow", "prop1": "receipt"}
	require.NoError(t, adminRepo.CreateTaggingRule(ctx, rule))

	repo := rules.NewRepository(infra.PostgresDB)
	active, err := repo.GetActiveRules(ctx)
	require.NoError(t, err)

	require.Len(t, active, 1)
	assert.Equal(t, rule.ID, active[0].ID)
	assert.Equal(t, `page_name.contains("receipt") && country == "pe"`, active[0].Expression)
	assert.Equal(t, []int64{356, 64, 283}, active[0].Events)
	assert.Equal(t, map[string]string{"eVar9": "peru-flow", "prop1": "receipt"}, active[0].Dimensions)
}

func TestCustomRuleRepository_GetActiveRules_Empty(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := rules.NewRepository(infra.PostgresDB)
	active, err := repo.GetActiveRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}
