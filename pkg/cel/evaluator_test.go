package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid simple expression",
			expr:      `page_name.contains("send-money:start")`,
			wantError: false,
		},
		{
			name:      "valid analytics access",
			expr:      `analytics.sc_login_state == "loggedin"`,
			wantError: false,
		},
		{
			name:      "invalid expression",
			expr:      `invalid syntax here!!!`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `undefinedVar == "test"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMatchExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid bool expression",
			expr:      `txn_status == "approved"`,
			wantError: false,
		},
		{
			name:      "non-bool expression",
			expr:      `page_name`,
			wantError: true,
		},
		{
			name:      "valid contains",
			expr:      `page_name.contains("bill-pay:review")`,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateMatchExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateMatch(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	ctx := context.Background()
	vars := map[string]interface{}{
		"page_name":       "us:en:website:send-money:receipt",
		"page_name_event": "send-money:receipt",
		"country":         "us",
		"txn_status":      "approved",
		"link_name":       "",
		"event_type":      "web.webpagedetails.pageViews",
		"analytics": map[string]interface{}{
			"sc_login_state": "loggedin",
			"sc_txn_fee":     4.99,
		},
		"data_elements": map[string]interface{}{
			"WUPageTypeJSObject": "responsive",
		},
		"query_params": map[string]string{
			"partnerName": "acme",
		},
	}

	tests := []struct {
		name      string
		expr      string
		want      bool
		wantError bool
	}{
		{
			name: "page contains true",
			expr: `page_name.contains("send-money:receipt")`,
			want: true,
		},
		{
			name: "page contains false",
			expr: `page_name.contains("bill-pay")`,
			want: false,
		},
		{
			name: "country and status",
			expr: `country == "us" && txn_status == "approved"`,
			want: true,
		},
		{
			name: "numeric analytics comparison",
			expr: `analytics.sc_txn_fee > 1.0`,
			want: true,
		},
		{
			name: "data element access",
			expr: `data_elements["WUPageTypeJSObject"] == "responsive"`,
			want: true,
		},
		{
			name: "query param access",
			expr: `query_params["partnerName"] != ""`,
			want: true,
		},
		{
			name:      "missing analytics key errors",
			expr:      `analytics.sc_missing == "x"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.EvaluateMatch(ctx, tt.expr, vars)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, result)
			}
		})
	}
}

func TestMatchExpressionExamplesValidate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	for name, expr := range MatchExpressionExamples {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, eval.ValidateMatchExpression(expr))
		})
	}
}
