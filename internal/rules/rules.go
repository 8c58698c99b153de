package rules

import (
	"context"
	"strings"
	"time"

	"beacon/internal/funnel"
	"beacon/internal/logger"
	"beacon/internal/pagecontext"
	"beacon/internal/xdm"
	"beacon/pkg/metrics"
)

// Rule is one dispatchable tagging rule: a predicate over the evaluation
// context and an effect applied to the document when it holds.
type Rule struct {
	Name  string
	When  func(*Context) bool
	Apply func(*Context)
}

// Context is the evaluation state threaded through the rule lists for one
// event. It pre-resolves the values nearly every rule dispatches on so the
// predicates stay short.
type Context struct {
	Ctx       context.Context
	Acc       *pagecontext.Accessor
	Doc       xdm.Document
	Store     funnel.Store
	VisitorID string
	Log       logger.Logger

	PageName      string
	PageNameEvent string
	Country       string
	TxnStatus     string
	MTCN          string
	TxnFee        float64
	RefundAmount  float64
	Product       string
	LinkName      string
}

func newContext(ctx context.Context, acc *pagecontext.Accessor, doc xdm.Document, store funnel.Store, visitorID string, log logger.Logger) *Context {
	return &Context{
		Ctx:       ctx,
		Acc:       acc,
		Doc:       doc,
		Store:     store,
		VisitorID: visitorID,
		Log:       log,

		PageName:      acc.GetString(pagecontext.ElemPageName, ""),
		PageNameEvent: acc.GetString(pagecontext.ElemPageNameEvent, ""),
		Country:       strings.ToLower(acc.GetString(pagecontext.ElemCountry, "")),
		TxnStatus:     strings.ToLower(acc.GetString(pagecontext.ElemTxnStatus, "")),
		MTCN:          acc.GetString(pagecontext.ElemMTCN, ""),
		TxnFee:        acc.GetFloat(pagecontext.ElemTxnFee, 0),
		RefundAmount:  acc.GetFloat(pagecontext.ElemRefundAmount, 0),
		Product:       doc.Product(),
		LinkName:      acc.GetString(pagecontext.ElemLinkID, ""),
	}
}

// pageContains reports whether the page name is non-empty and contains the
// fragment. Every substring rule in the tables guards on this shape.
func (c *Context) pageContains(fragment string) bool {
	return c.PageName != "" && strings.Contains(c.PageName, fragment)
}

func (c *Context) pageLacks(fragment string) bool {
	return !strings.Contains(c.PageName, fragment)
}

// FunnelGet reads a funnel marker, treating store errors as absence so a
// degraded store never blocks tagging.
func (c *Context) FunnelGet(key string) string {
	value, found, err := c.Store.Get(c.Ctx, c.VisitorID, key)
	if err != nil {
		c.Log.Warnw("Funnel store read failed", "key", key, "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return value
}

func (c *Context) FunnelSet(key, value string, ttl time.Duration) {
	if err := c.Store.Set(c.Ctx, c.VisitorID, key, value, ttl); err != nil {
		c.Log.Warnw("Funnel store write failed", "key", key, "error", err)
	}
}

func (c *Context) FunnelDelete(key string) {
	if err := c.Store.Delete(c.Ctx, c.VisitorID, key); err != nil {
		c.Log.Warnw("Funnel store delete failed", "key", key, "error", err)
	}
}

// setCampaignEVar applies the internal campaign attribution shared by the
// send-money funnel pages: the quick-send id wins over the campaign element.
func setCampaignEVar(c *Context) {
	if campID := c.Acc.AnalyticsValue(pagecontext.KeyQuicksendID, ""); campID != "" {
		c.Doc.SetEVar(47, campID)
		return
	}
	if campaign := c.Acc.GetString(pagecontext.ElemCampaign, ""); campaign != "" {
		c.Doc.SetEVar(47, campaign)
	}
}

// runAll applies every rule in the list whose predicate holds.
func runAll(list []Rule, c *Context, kind string) {
	for i := range list {
		rule := &list[i]
		if rule.When(c) {
			rule.Apply(c)
			metrics.IncRuleMatch(rule.Name, kind)
		}
	}
}

// runFirst applies only the first matching rule and reports whether any
// matched.
func runFirst(list []Rule, c *Context, kind string) bool {
	for i := range list {
		rule := &list[i]
		if rule.When(c) {
			rule.Apply(c)
			metrics.IncRuleMatch(rule.Name, kind)
			return true
		}
	}
	return false
}

// verifyStatusIs checks the verification-status/user-id pair several
// collect-id rules share.
func (c *Context) verifyStatusIs(status string) bool {
	return c.Acc.AnalyticsValue(pagecontext.KeyVerifyStatus, "") == status &&
		c.Acc.AnalyticsValue(pagecontext.KeyUserID, "") != ""
}

// fireEventAllowed honors the explicit opt-out some KYC pages carry.
func (c *Context) fireEventAllowed() bool {
	return c.Acc.AnalyticsValue(pagecontext.KeyFireEvent, "") != "no"
}

// purchaseApproved reports whether the page carries a completed transaction.
func (c *Context) purchaseApproved() bool {
	return c.Product != "" && c.TxnStatus == "approved"
}

// applyPurchase records the standard purchase path: product with the fee,
// purchase id dimension, principal and discount events, and the commerce
// purchase record.
func (c *Context) applyPurchase(withDiscount bool) {
	txnID := c.Acc.AnalyticsValue(pagecontext.KeyTransactionID, "")
	c.Doc.SetProduct(c.Product, xdm.Price(c.TxnFee), nil)
	c.Doc.SetNamedEVar("purchaseID", txnID)
	c.Doc.AddEventValue(133, c.Acc.GetFloat(pagecontext.ElemPrincipal, 0))
	if withDiscount {
		c.Doc.AddEventValue(71, c.Acc.GetFloat(pagecontext.ElemDiscountAmount, 0))
	}
	c.Doc.AddPurchaseEvent(txnID, xdm.Price(c.TxnFee))
}

// applyDeclineEvents records the decline/hold path shared by every
// kyc-confirm, decline and under-review page: event56, and event34 with the
// fee annotated on the product when one is known.
func (c *Context) applyDeclineEvents() {
	if c.Product != "" {
		c.Doc.SetProduct(c.Product, nil, map[string]interface{}{"event34": c.TxnFee})
		c.Doc.AddEvent(56)
		c.Doc.AddEvent(34)
		return
	}
	c.Doc.AddEvent(56)
}

const (
	kindPageView  = "pageview"
	kindLinkClick = "linkclick"
	kindShared    = "shared"
)
