package xdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/logger"
	"beacon/internal/pagecontext"
)

func baseSnapshot() *pagecontext.Snapshot {
	return &pagecontext.Snapshot{
		DataElements: map[string]interface{}{
			pagecontext.ElemPageName:    "send-money:review",
			pagecontext.ElemCountry:     "us",
			pagecontext.ElemAccountID:   "acct-001",
			pagecontext.ElemTimeParting: "14:30|Tuesday",
		},
		Analytics: map[string]interface{}{
			pagecontext.KeyPaymentMethod: "CreditCard",
			pagecontext.KeyTxnType:       "Send",
			pagecontext.KeyPlatform:      "Web",
		},
		URL: "https://www.example.com/us/en/send-money/review.html",
	}
}

func TestBuildBaseXDM(t *testing.T) {
	acc := pagecontext.NewAccessor(baseSnapshot(), logger.NopLogger())

	doc := BuildBaseXDM(acc, logger.NopLogger())

	assert.Equal(t, "send-money:review", doc.PageName())
	assert.Equal(t, "send-money:review", doc.VendorField(VendorPageName))
	assert.Equal(t, "us", doc.VendorField(VendorCountry))
	assert.Equal(t, "14:30|Tuesday", doc.EVar(43))
	assert.Equal(t, "page_interaction", doc.InteractionName())

	details := doc.path("web", "webPageDetails")
	require.NotNil(t, details)
	assert.Equal(t, "web", details["siteSection"])
	assert.Equal(t, false, details["isErrorPage"])
}

func TestBuildBaseXDMProductString(t *testing.T) {
	tests := []struct {
		name      string
		analytics map[string]interface{}
		want      string
	}{
		{
			name: "all three parts present",
			analytics: map[string]interface{}{
				pagecontext.KeyPaymentMethod: "CreditCard",
				pagecontext.KeyTxnType:       "Send",
				pagecontext.KeyPlatform:      "Web",
			},
			want: "web|send|creditcard",
		},
		{
			name: "delivery method appended",
			analytics: map[string]interface{}{
				pagecontext.KeyPaymentMethod:  "CreditCard",
				pagecontext.KeyTxnType:        "Send",
				pagecontext.KeyPlatform:       "Web",
				pagecontext.KeyDeliveryMethod: "Agent",
			},
			want: "web|send|creditcard|agent",
		},
		{
			name: "missing payment method yields no product",
			analytics: map[string]interface{}{
				pagecontext.KeyTxnType:  "Send",
				pagecontext.KeyPlatform: "Web",
			},
			want: "",
		},
		{
			name: "missing platform yields no product",
			analytics: map[string]interface{}{
				pagecontext.KeyPaymentMethod: "CreditCard",
				pagecontext.KeyTxnType:       "Send",
			},
			want: "",
		},
		{
			name: "delivery method alone is not enough",
			analytics: map[string]interface{}{
				pagecontext.KeyDeliveryMethod: "Agent",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &pagecontext.Snapshot{Analytics: tt.analytics}
			acc := pagecontext.NewAccessor(snap, logger.NopLogger())

			doc := BuildBaseXDM(acc, logger.NopLogger())

			assert.Equal(t, tt.want, doc.Product())
		})
	}
}

func TestBuildBaseXDMIdentity(t *testing.T) {
	t.Run("account id present", func(t *testing.T) {
		acc := pagecontext.NewAccessor(baseSnapshot(), logger.NopLogger())

		doc := BuildBaseXDM(acc, logger.NopLogger())

		identityMap := doc.IdentityMap()
		require.NotNil(t, identityMap)
		entries := identityMap["customerKey"].([]interface{})
		require.Len(t, entries, 1)
		assert.Equal(t, "acct-001", entries[0].(map[string]interface{})["id"])
	})

	t.Run("blank account id leaves identity map empty", func(t *testing.T) {
		snap := baseSnapshot()
		snap.DataElements[pagecontext.ElemAccountID] = "   "
		acc := pagecontext.NewAccessor(snap, logger.NopLogger())

		doc := BuildBaseXDM(acc, logger.NopLogger())

		identityMap := doc.IdentityMap()
		if identityMap != nil {
			assert.NotContains(t, identityMap, "customerKey")
		}
	})

	t.Run("missing account id leaves identity map empty", func(t *testing.T) {
		snap := baseSnapshot()
		delete(snap.DataElements, pagecontext.ElemAccountID)
		acc := pagecontext.NewAccessor(snap, logger.NopLogger())

		doc := BuildBaseXDM(acc, logger.NopLogger())

		assert.Nil(t, doc.IdentityMap())
	})
}

func TestBuildBaseXDMDeliveryDimension(t *testing.T) {
	tests := []struct {
		name     string
		delivery string
		wallet   string
		want     string
	}{
		{name: "plain delivery method", delivery: "agent", wallet: "", want: "agent"},
		{name: "wallet provider appended", delivery: "wallet", wallet: "mvpay", want: "wallet-mvpay"},
		{name: "wallet none not appended", delivery: "agent", wallet: "none", want: "agent"},
		{name: "no delivery method", delivery: "", wallet: "mvpay", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &pagecontext.Snapshot{
				DataElements: map[string]interface{}{
					pagecontext.ElemDeliveryMethod: tt.delivery,
					pagecontext.ElemWalletProvider: tt.wallet,
				},
			}
			acc := pagecontext.NewAccessor(snap, logger.NopLogger())

			doc := BuildBaseXDM(acc, logger.NopLogger())

			assert.Equal(t, tt.want, doc.EVar(13))
		})
	}
}

func TestBuildBaseXDMLinkNameFallback(t *testing.T) {
	snap := baseSnapshot()
	snap.DataElements[pagecontext.ElemLinkID] = "btn-login"
	acc := pagecontext.NewAccessor(snap, logger.NopLogger())

	doc := BuildBaseXDM(acc, logger.NopLogger())

	assert.Equal(t, "btn-login", doc.InteractionName())
	assert.Equal(t, "btn-login", doc.VendorField(VendorLinkName))
}
