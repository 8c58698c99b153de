package pagecontext

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"beacon/internal/logger"
)

func TestAccessorGet(t *testing.T) {
	snap := &Snapshot{
		DataElements: map[string]interface{}{
			ElemPageName: "send-money:review",
			ElemCountry:  "",
			ElemMTCN:     nil,
			ElemTxnFee:   4.99,
		},
	}
	acc := NewAccessor(snap, logger.NopLogger())

	tests := []struct {
		name    string
		element string
		def     string
		want    string
	}{
		{
			name:    "present value",
			element: ElemPageName,
			def:     "unknown",
			want:    "send-money:review",
		},
		{
			name:    "empty string falls back to default",
			element: ElemCountry,
			def:     "us",
			want:    "us",
		},
		{
			name:    "nil value falls back to default",
			element: ElemMTCN,
			def:     "",
			want:    "",
		},
		{
			name:    "missing element falls back to default",
			element: "WUNoSuchElement",
			def:     "fallback",
			want:    "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, acc.GetString(tt.element, tt.def))
		})
	}
}

func TestAccessorGetFloat(t *testing.T) {
	acc := NewAccessor(&Snapshot{
		DataElements: map[string]interface{}{
			ElemTxnFee:       "4.99",
			ElemRefundAmount: 12.5,
			ElemPrincipal:    "not a number",
		},
	}, logger.NopLogger())

	assert.Equal(t, 4.99, acc.GetFloat(ElemTxnFee, 0))
	assert.Equal(t, 12.5, acc.GetFloat(ElemRefundAmount, 0))
	assert.Equal(t, 0.0, acc.GetFloat(ElemPrincipal, 0))
	assert.Equal(t, 7.0, acc.GetFloat("missing", 7))
}

func TestAccessorNilSnapshot(t *testing.T) {
	acc := NewAccessor(nil, nil)

	assert.Equal(t, "def", acc.GetString(ElemPageName, "def"))
	assert.Equal(t, "def", acc.AnalyticsValue(KeyTxnType, "def"))
	assert.False(t, acc.AnalyticsValueSet(KeyTxnType))
	assert.Empty(t, acc.QueryParam("partnerName"))
}

func TestAnalyticsValueLowercases(t *testing.T) {
	acc := NewAccessor(&Snapshot{
		Analytics: map[string]interface{}{
			KeyTxnType:    "SEND",
			KeyLoginState: "LoggedIn",
			KeyError:      "",
		},
	}, logger.NopLogger())

	assert.Equal(t, "send", acc.AnalyticsValue(KeyTxnType, ""))
	assert.Equal(t, "loggedin", acc.AnalyticsValue(KeyLoginState, ""))
	assert.Equal(t, "none", acc.AnalyticsValue(KeyError, "none"))
}

func TestAnalyticsValueSet(t *testing.T) {
	acc := NewAccessor(&Snapshot{
		Analytics: map[string]interface{}{
			KeyThirdPartyOptIn: false,
		},
	}, logger.NopLogger())

	assert.True(t, acc.AnalyticsValueSet(KeyThirdPartyOptIn))
	assert.False(t, acc.AnalyticsValueSet(KeyTransactionID))
}
