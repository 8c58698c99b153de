package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/admin"
	"beacon/internal/rules"
	pkgerrors "beacon/pkg/errors"
)

func createTaggingService(t *testing.T, infra *TestInfra) admin.Service {
	t.Helper()

	custom, err := rules.NewCustomService(rules.NewRepository(infra.PostgresDB), createTestRulesConfig(), createTestLogger())
	require.NoError(t, err)

	return admin.NewService(
		admin.NewRepository(infra.PostgresDB),
		admin.WithVersioning(admin.NewVersioningRepository(infra.PostgresDB)),
		admin.WithAudit(admin.NewAuditStore(infra.MongoClient, testDatabase, "rule_audit_logs")),
		admin.WithReloadNotifier(admin.NewReloadNotifier(custom, createTestLogger())),
	)
}

func TestTaggingService_CreateRecordsVersionAndAudit(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, true, false)

	service := createTaggingService(t, infra)
	ctx := context.Background()

	rule, err := service.CreateTaggingRule(ctx, admin.CreateTaggingRuleRequest{
		Name:       "peru_receipt",
		Expression: `country == "pe" && page_name.contains("receipt")`,
		Events:     []int64{356},
		Dimensions: map[string]string{"eVar9": "peru-flow"},
		Priority:   10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rule.ID)
	assert.True(t, rule.Enabled)

	versions, err := service.GetRuleVersions(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, "tagging", versions[0].RuleType)

	logs, err := service.GetAuditLogs(ctx, &rule.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "create", logs[0].Action)
	assert.Equal(t, "system", logs[0].ChangedBy)
}

func TestTaggingService_UpdateAppendsVersion(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, true, false)

	service := createTaggingService(t, infra)
	ctx := context.Background()

	rule, err := service.CreateTaggingRule(ctx, admin.CreateTaggingRuleRequest{
		Name:       "peru_receipt",
		Expression: `country == "pe"`,
		Events:     []int64{356},
		Priority:   10,
	})
	require.NoError(t, err)

	time.Sleep(timestampDelay)
	newPriority := 20
	updated, err := service.UpdateTaggingRule(ctx, rule.ID, admin.UpdateTaggingRuleRequest{
		Priority: &newPriority,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Priority)
	assert.Equal(t, `country == "pe"`, updated.Expression)

	versions, err := service.GetRuleVersions(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	logs, err := service.GetAuditLogs(ctx, &rule.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "update", logs[0].Action)
	assert.Equal(t, "create", logs[1].Action)
}

func TestTaggingService_DeleteAudits(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, true, false)

	service := createTaggingService(t, infra)
	ctx := context.Background()

	rule, err := service.CreateTaggingRule(ctx, admin.CreateTaggingRuleRequest{
		Name:       "short_lived",
		Expression: `country == "mx"`,
		Priority:   1,
	})
	require.NoError(t, err)

	time.Sleep(timestampDelay)
	require.NoError(t, service.DeleteTaggingRule(ctx, rule.ID))

	_, err = service.GetTaggingRule(ctx, rule.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	logs, err := service.GetAuditLogs(ctx, &rule.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "delete", logs[0].Action)
}

func TestTaggingService_AuditLogsAcrossRules(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, true, false)

	service := createTaggingService(t, infra)
	ctx := context.Background()

	for _, name := range []string{"rule_a", "rule_b"} {
		_, err := service.CreateTaggingRule(ctx, admin.CreateTaggingRuleRequest{
			Name:       name,
			Expression: `country == "pe"`,
			Priority:   1,
		})
		require.NoError(t, err)
		time.Sleep(timestampDelay)
	}

	logs, err := service.GetAuditLogs(ctx, nil, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
