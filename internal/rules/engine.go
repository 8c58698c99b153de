package rules

import (
	"context"

	"beacon/internal/funnel"
	"beacon/internal/logger"
	"beacon/internal/pagecontext"
	"beacon/internal/xdm"
)

// Engine applies the built-in tagging tables and, when configured, the
// operator-defined custom rules to an event document. The same page-context
// pass backs both page views and link clicks, so a click on a receipt page
// carries the receipt events alongside its click events.
type Engine struct {
	store  funnel.Store
	custom *CustomService
	logger logger.Logger
}

func NewEngine(store funnel.Store, custom *CustomService, log logger.Logger) *Engine {
	if store == nil {
		store = funnel.NewMemoryStore()
	}
	if log == nil {
		log = logger.NopLogger()
	}
	return &Engine{store: store, custom: custom, logger: log}
}

// ApplyPageViewRules tags a page-view document in place from the page
// context. The document must already carry the base fields.
func (e *Engine) ApplyPageViewRules(ctx context.Context, acc *pagecontext.Accessor, doc xdm.Document, visitorID string) error {
	c := newContext(ctx, acc, doc, e.store, visitorID, e.logger)
	e.applyPageContext(c, kindPageView)
	return e.applyCustom(c)
}

// ApplyLinkClickRules tags a link-click document: the per-link action
// table first, then the same page-context pass a page view would get.
func (e *Engine) ApplyLinkClickRules(ctx context.Context, acc *pagecontext.Accessor, doc xdm.Document, visitorID string) error {
	c := newContext(ctx, acc, doc, e.store, visitorID, e.logger)

	if c.LinkName != "" {
		c.Doc.SetEVar(61, c.LinkName)
		if action, ok := linkActions[c.LinkName]; ok {
			action(c)
		}
	}
	// Every click counts as an interaction, whether or not a name
	// resolved or the action table matched.
	c.Doc.AddEvent(183)

	e.applyPageContext(c, kindLinkClick)
	return e.applyCustom(c)
}

// applyPageContext is the shared page pass: the delivery-update exact
// table, then either the exclusive receipt/decline chain or the funnel
// default branch, then the rules that always run.
func (e *Engine) applyPageContext(c *Context, kind string) {
	applyDeliveryUpdateEvents(c)

	if !runFirst(exclusiveRules, c, kind) {
		if c.Product != "" {
			c.Doc.SetProduct(c.Product, nil, nil)
		}
		runAll(defaultRules, c, kind)
	}

	runAll(sharedRules, c, kindShared)
}

func (e *Engine) applyCustom(c *Context) error {
	if e.custom == nil {
		return nil
	}
	return e.custom.Apply(c)
}
