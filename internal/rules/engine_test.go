package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/funnel"
	"beacon/internal/logger"
	"beacon/internal/pagecontext"
	"beacon/internal/xdm"
)

func newTestSnapshot(pageName string) *pagecontext.Snapshot {
	return &pagecontext.Snapshot{
		DataElements: map[string]interface{}{
			pagecontext.ElemPageName:      pageName,
			pagecontext.ElemPageNameEvent: pageName,
			pagecontext.ElemCountry:       "us",
		},
		Analytics: map[string]interface{}{},
		URL:       "https://www.example.com/us/en/page.html",
		Title:     "Send Money",
	}
}

func buildDoc(t *testing.T, snap *pagecontext.Snapshot) (*Engine, *pagecontext.Accessor, xdm.Document) {
	t.Helper()
	acc := pagecontext.NewAccessor(snap, logger.NopLogger())
	doc := xdm.BuildBaseXDM(acc, logger.NopLogger())
	engine := NewEngine(funnel.NewMemoryStore(), nil, logger.NopLogger())
	return engine, acc, doc
}

func TestPageViewUnknownPageAddsNoEvents(t *testing.T) {
	snap := newTestSnapshot("us:en:website:home")
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyPageViewRules(context.Background(), acc, doc, "v1"))

	assert.Equal(t, 0, doc.EventCount())
}

func TestPageViewDeliveryUpdateStates(t *testing.T) {
	tests := []struct {
		name   string
		state  string
		mtcn   string
		events []int
		absent []int
	}{
		{
			name:   "start",
			state:  "update-delivery-method:start",
			events: []int{252, 253},
		},
		{
			name:   "receiver assisted review",
			state:  "update-delivery-method:receiver-assisted:review",
			events: []int{265, 266},
		},
		{
			name:   "receipt without reference number",
			state:  "update-delivery-method:receipt",
			absent: []int{256},
		},
		{
			name:   "receipt with reference number",
			state:  "update-delivery-method:receipt",
			mtcn:   "1234567890",
			events: []int{256},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := newTestSnapshot("us:en:website:" + tt.state)
			snap.DataElements[pagecontext.ElemPageNameEvent] = tt.state
			if tt.mtcn != "" {
				snap.DataElements[pagecontext.ElemMTCN] = tt.mtcn
			}
			engine, acc, doc := buildDoc(t, snap)

			require.NoError(t, engine.ApplyPageViewRules(context.Background(), acc, doc, "v1"))

			for _, num := range tt.events {
				assert.True(t, doc.HasEvent(num), "expected event%d", num)
			}
			for _, num := range tt.absent {
				assert.False(t, doc.HasEvent(num), "unexpected event%d", num)
			}
		})
	}
}

func TestPageViewApprovedReceiptRecordsPurchase(t *testing.T) {
	snap := newTestSnapshot("us:en:website:send-money:receipt")
	snap.DataElements[pagecontext.ElemTxnStatus] = "Approved"
	snap.DataElements[pagecontext.ElemTxnFee] = 4.99
	snap.DataElements[pagecontext.ElemPrincipal] = 250.0
	snap.DataElements[pagecontext.ElemDiscountAmount] = 5.0
	snap.Analytics[pagecontext.KeyPaymentMethod] = "CreditCard"
	snap.Analytics[pagecontext.KeyTxnType] = "SendMoney"
	snap.Analytics[pagecontext.KeyPlatform] = "Web"
	snap.Analytics[pagecontext.KeyTransactionID] = "wu1234567890"
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyPageViewRules(context.Background(), acc, doc, "v1"))

	assert.True(t, doc.HasEvent(133))
	assert.True(t, doc.HasEvent(71))
	principal, ok := doc.EventValue(133)
	require.True(t, ok)
	assert.Equal(t, 250.0, principal)

	commerce, ok := doc["commerce"].(map[string]interface{})
	require.True(t, ok)
	purchases := commerce["purchases"].(map[string]interface{})
	assert.Equal(t, 1.0, purchases["value"])
	order := commerce["order"].(map[string]interface{})
	assert.Equal(t, "wu1234567890", order["purchaseID"])

	items := doc.ProductListItems()
	require.Len(t, items, 1)
	item, ok := items[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "web|sendmoney|creditcard", item["name"])
}

func TestPageViewReceiptSkipsFunnelBranch(t *testing.T) {
	snap := newTestSnapshot("us:en:website:send-money:receipt")
	snap.DataElements[pagecontext.ElemTxnStatus] = "approved"
	snap.Analytics[pagecontext.KeyLoginState] = "loggedin"
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyPageViewRules(context.Background(), acc, doc, "v1"))

	// The receipt chain matched, so the start-page funnel events never fire.
	assert.False(t, doc.HasEvent(5))
	assert.False(t, doc.HasEvent(11))
}

func TestPageViewDeclineRecordsDeclineEvents(t *testing.T) {
	snap := newTestSnapshot("us:en:website:send-money:declineoptions")
	snap.DataElements[pagecontext.ElemTxnFee] = 3.5
	snap.Analytics[pagecontext.KeyPaymentMethod] = "card"
	snap.Analytics[pagecontext.KeyTxnType] = "sm"
	snap.Analytics[pagecontext.KeyPlatform] = "web"
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyPageViewRules(context.Background(), acc, doc, "v1"))

	assert.True(t, doc.HasEvent(56))
	assert.True(t, doc.HasEvent(34))
}

func TestPageViewFunnelFirstVsRepeat(t *testing.T) {
	ctx := context.Background()
	store := funnel.NewMemoryStore()
	engine := NewEngine(store, nil, logger.NopLogger())

	snap := newTestSnapshot("us:en:website:send-money:receiverinformation")
	acc := pagecontext.NewAccessor(snap, logger.NopLogger())

	first := xdm.BuildBaseXDM(acc, logger.NopLogger())
	require.NoError(t, engine.ApplyPageViewRules(ctx, acc, first, "visitor-1"))
	assert.True(t, first.HasEvent(5), "first visit counts the start step")
	assert.True(t, first.HasEvent(7))
	assert.True(t, first.HasEvent(11))
	assert.True(t, first.HasEvent(12))

	second := xdm.BuildBaseXDM(acc, logger.NopLogger())
	require.NoError(t, engine.ApplyPageViewRules(ctx, acc, second, "visitor-1"))
	assert.False(t, second.HasEvent(5), "repeat visit skips the start step")
	assert.True(t, second.HasEvent(7))
	assert.True(t, second.HasEvent(12))

	// A different visitor starts fresh.
	other := xdm.BuildBaseXDM(acc, logger.NopLogger())
	require.NoError(t, engine.ApplyPageViewRules(ctx, acc, other, "visitor-2"))
	assert.True(t, other.HasEvent(5))
}

func TestPageViewRegisterSuccessSetsNewUserMarker(t *testing.T) {
	ctx := context.Background()
	store := funnel.NewMemoryStore()
	engine := NewEngine(store, nil, logger.NopLogger())

	snap := newTestSnapshot("us:en:website:profile:dashboard")
	snap.DataElements[pagecontext.ElemRegisterSuccess] = true
	acc := pagecontext.NewAccessor(snap, logger.NopLogger())
	doc := xdm.BuildBaseXDM(acc, logger.NopLogger())

	require.NoError(t, engine.ApplyPageViewRules(ctx, acc, doc, "visitor-1"))

	assert.True(t, doc.HasEvent(4))
	assert.Equal(t, "register", doc.NamedEVar("eVar42"))

	value, found, err := store.Get(ctx, "visitor-1", constants.FunnelKeyNewUser)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", value)
}

func TestLinkClickAlwaysCountsInteraction(t *testing.T) {
	snap := newTestSnapshot("us:en:website:home")
	snap.DataElements[pagecontext.ElemLinkID] = "some-unmapped-link"
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyLinkClickRules(context.Background(), acc, doc, "v1"))

	assert.True(t, doc.HasEvent(183))
	assert.Equal(t, "some-unmapped-link", doc.EVar(61))
}

func TestLinkClickWithoutNameStillCountsInteraction(t *testing.T) {
	snap := newTestSnapshot("us:en:website:home")
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyLinkClickRules(context.Background(), acc, doc, "v1"))

	assert.True(t, doc.HasEvent(183))
	assert.Empty(t, doc.EVar(61))
}

func TestLinkClickReviewContinue(t *testing.T) {
	snap := newTestSnapshot("us:en:website:send-money:review")
	snap.DataElements[pagecontext.ElemLinkID] = "button-review-continue"
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyLinkClickRules(context.Background(), acc, doc, "v1"))

	assert.True(t, doc.HasEvent(183))
	assert.True(t, doc.HasEvent(10))
	// The click still picks up the review page funnel events.
	assert.True(t, doc.HasEvent(9))
	assert.True(t, doc.HasEvent(14))
}

func TestLinkClickCancelInitiated(t *testing.T) {
	snap := newTestSnapshot("us:en:website:profile:txn-history")
	snap.DataElements[pagecontext.ElemLinkID] = "canceltxn-history"
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyLinkClickRules(context.Background(), acc, doc, "v1"))

	assert.Equal(t, "canceltxn-initiated", doc.EVar(65))
	assert.True(t, doc.HasEvent(196))
	assert.True(t, doc.HasEvent(197))
	assert.True(t, doc.HasEvent(183))
}

func TestKYCReferenceNumberHandoff(t *testing.T) {
	ctx := context.Background()
	store := funnel.NewMemoryStore()
	engine := NewEngine(store, nil, logger.NopLogger())

	// The info-step click captures the reference number.
	clickSnap := newTestSnapshot("us:en:website:kyc:info")
	clickSnap.DataElements[pagecontext.ElemLinkID] = "btn-info-next"
	clickSnap.DataElements[pagecontext.ElemPostalCode] = "REF-10001"
	clickAcc := pagecontext.NewAccessor(clickSnap, logger.NopLogger())
	clickDoc := xdm.BuildBaseXDM(clickAcc, logger.NopLogger())

	require.NoError(t, engine.ApplyLinkClickRules(ctx, clickAcc, clickDoc, "visitor-1"))
	assert.True(t, clickDoc.HasEvent(283))
	assert.Equal(t, "REF-10001", clickDoc.EVar(75))

	// The upload page view consumes it exactly once.
	viewSnap := newTestSnapshot("us:en:website:kyc:upload")
	viewAcc := pagecontext.NewAccessor(viewSnap, logger.NopLogger())
	viewDoc := xdm.BuildBaseXDM(viewAcc, logger.NopLogger())

	require.NoError(t, engine.ApplyPageViewRules(ctx, viewAcc, viewDoc, "visitor-1"))
	assert.True(t, viewDoc.HasEvent(278))
	assert.True(t, viewDoc.HasEvent(286))
	assert.Equal(t, "REF-10001", viewDoc.EVar(75))

	_, found, err := store.Get(ctx, "visitor-1", constants.FunnelKeyUniqueRefNum)
	require.NoError(t, err)
	assert.False(t, found, "reference number is consumed on read")
}

func TestSharedRulesApplyToBothKinds(t *testing.T) {
	snap := newTestSnapshot("us:en:website:home")
	snap.Title = "404 Not Found"
	snap.Analytics[pagecontext.KeyLoginSuccess] = "true"
	snap.PageLoadTime = 1234

	engine, acc, pageDoc := buildDoc(t, snap)
	require.NoError(t, engine.ApplyPageViewRules(context.Background(), acc, pageDoc, "v1"))
	assert.True(t, pageDoc.HasEvent(404))
	assert.True(t, pageDoc.HasEvent(2))
	loadTime, ok := pageDoc.EventValue(294)
	require.True(t, ok)
	assert.Equal(t, 1234.0, loadTime)

	snap.DataElements[pagecontext.ElemLinkID] = "btn-login"
	_, acc2, clickDoc := buildDoc(t, snap)
	require.NoError(t, engine.ApplyLinkClickRules(context.Background(), acc2, clickDoc, "v1"))
	assert.True(t, clickDoc.HasEvent(404))
	assert.True(t, clickDoc.HasEvent(1))
}

func TestSpainDoctransferDecline(t *testing.T) {
	snap := newTestSnapshot("es:es:website:send-money:doctransfer")
	snap.DataElements[pagecontext.ElemCountry] = "es"
	snap.DataElements[pagecontext.ElemTxnStatus] = "C2001"
	snap.Referrer = "https://www.example.com/es/es/review.html"
	engine, acc, doc := buildDoc(t, snap)

	require.NoError(t, engine.ApplyPageViewRules(context.Background(), acc, doc, "v1"))

	assert.True(t, doc.HasEvent(56))
}

type staticRuleRepo struct {
	rules []CustomRule
}

func (r *staticRuleRepo) GetActiveRules(ctx context.Context) ([]CustomRule, error) {
	return r.rules, nil
}

func TestCustomRuleApplied(t *testing.T) {
	ctx := context.Background()
	repo := &staticRuleRepo{rules: []CustomRule{
		{
			ID:         "r1",
			Name:       "promo banner",
			Expression: `page_name.contains("send-money:start") && country == "us"`,
			Events:     []int64{250},
			Dimensions: map[string]string{"eVar90": "promo-2026"},
			Enabled:    true,
		},
		{
			ID:         "r2",
			Name:       "never matches",
			Expression: `country == "xx"`,
			Events:     []int64{333},
			Enabled:    true,
		},
	}}

	custom, err := NewCustomService(repo, config.RulesConfig{}, logger.NopLogger())
	require.NoError(t, err)
	require.NoError(t, custom.ReloadRules(ctx, true))

	engine := NewEngine(funnel.NewMemoryStore(), custom, logger.NopLogger())

	snap := newTestSnapshot("us:en:website:send-money:start")
	acc := pagecontext.NewAccessor(snap, logger.NopLogger())
	doc := xdm.BuildBaseXDM(acc, logger.NopLogger())

	require.NoError(t, engine.ApplyPageViewRules(ctx, acc, doc, "v1"))

	assert.True(t, doc.HasEvent(250))
	assert.False(t, doc.HasEvent(333))
	assert.Equal(t, "promo-2026", doc.EVar(90))
}

func TestCustomRuleErrorFallback(t *testing.T) {
	ctx := context.Background()
	repo := &staticRuleRepo{rules: []CustomRule{
		{
			ID:         "bad",
			Name:       "missing analytics key",
			Expression: `analytics.sc_not_there == "x"`,
			Events:     []int64{300},
			Enabled:    true,
		},
	}}

	skipSvc, err := NewCustomService(repo, config.RulesConfig{
		Fallback: config.FallbackConfig{OnError: constants.FallbackSkip},
	}, logger.NopLogger())
	require.NoError(t, err)
	require.NoError(t, skipSvc.ReloadRules(ctx, true))

	engine := NewEngine(funnel.NewMemoryStore(), skipSvc, logger.NopLogger())
	snap := newTestSnapshot("us:en:website:home")
	acc := pagecontext.NewAccessor(snap, logger.NopLogger())
	doc := xdm.BuildBaseXDM(acc, logger.NopLogger())
	require.NoError(t, engine.ApplyPageViewRules(ctx, acc, doc, "v1"))
	assert.False(t, doc.HasEvent(300))

	abortSvc, err := NewCustomService(repo, config.RulesConfig{
		Fallback: config.FallbackConfig{OnError: constants.FallbackAbort},
	}, logger.NopLogger())
	require.NoError(t, err)
	require.NoError(t, abortSvc.ReloadRules(ctx, true))

	engine = NewEngine(funnel.NewMemoryStore(), abortSvc, logger.NopLogger())
	doc = xdm.BuildBaseXDM(acc, logger.NopLogger())
	assert.Error(t, engine.ApplyPageViewRules(ctx, acc, doc, "v1"))
}
