package rules

import (
	"strings"

	"beacon/internal/constants"
	"beacon/internal/pagecontext"
)

// linkActions maps a resolved link name to its extra effect. Event 183 and
// eVar61 are applied for every named click before the action runs, so only
// names that do more than that appear here.
var linkActions = map[string]func(*Context){
	"link-showdetails": func(c *Context) { c.Doc.AddEvent(3) },
	"link-hidedetails": func(c *Context) { c.Doc.AddEvent(3) },
	"btn-pr-register":  func(c *Context) { c.Doc.AddEvent(3) },

	"update-delivery-method":      func(c *Context) { c.Doc.AddEvent(251) },
	"menu-update-delivery-method": func(c *Context) { c.Doc.AddEvent(251) },
	"btn-udm-sd-start-cont":       func(c *Context) { c.Doc.AddEvent(268) },
	"btn-udm-sd-review-cont":      func(c *Context) { c.Doc.AddEvent(269) },
	"btn-udm-ra-cont":             func(c *Context) { c.Doc.AddEvent(270) },
	"btn-udm-ra-start-cont":       func(c *Context) { c.Doc.AddEvent(271) },
	"btn-ra-review-confirm":       func(c *Context) { c.Doc.AddEvent(272) },
	"btn-ra-review-edit":          func(c *Context) { c.Doc.AddEvent(273) },
	"btn-sd-review-edit":          func(c *Context) { c.Doc.AddEvent(274) },

	"button-smo-continue":    func(c *Context) { c.Doc.AddEvent(134) },
	"button-review-continue": func(c *Context) { c.Doc.AddEvent(10) },
	"button-Enroll": func(c *Context) {
		c.Doc.SetEVar(61, "mywuoptedin-button-Enroll")
		c.Doc.AddEvent(40)
	},
	"cont-add-receiver":    func(c *Context) { c.Doc.AddEvent(240) },
	"cont-update-receiver": func(c *Context) { c.Doc.AddEvent(241) },

	"canceltxn-reason-cancel": func(c *Context) {
		c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
	},
	"canceltxn-reason-cont": func(c *Context) {
		reason := c.Acc.GetString(pagecontext.ElemReasonCategory, "")
		if idx := strings.Index(reason, "-"); idx > 0 {
			c.Doc.SetEVar(68, reason[:idx])
		}
	},
	"canceltxn-history":    applyCancelInitiated,
	"link-cancel-transfer": applyCancelInitiated,
	"canceltxn-tt":         applyCancelInitiated,
	"canceltxn-reason": func(c *Context) {
		c.Doc.SetEVar(68, c.Acc.GetString(pagecontext.ElemReasonCategory, ""))
		c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
		c.Doc.AddEvent(233)
	},
	"canceltxn-submit-cr": func(c *Context) {
		c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
	},
	"retailct-namechange": func(c *Context) {
		c.Doc.SetEVar(65, "canceltxn-namechange")
	},
	"link-edit-receiver-name": func(c *Context) { c.Doc.AddEvent(211) },
	"namechange-submit":       func(c *Context) { c.Doc.AddEvent(212) },
	"namechange-decline-ct": func(c *Context) {
		c.Doc.SetEVar(65, "canceltxn-initiated")
		c.Doc.AddEvent(196)
		c.Doc.AddEvent(197)
	},

	"sendagain_continue": func(c *Context) {
		c.Doc.AddEvent(181)
		c.Doc.AddEvent(182)
	},
	"download-app": func(c *Context) { c.Doc.AddEvent(68) },

	"resend-history":      applyResendEvents,
	"resend-billpay":      applyResendEvents,
	"resend-inmate":       applyResendEvents,
	"resend-receiver":     applyResendEvents,
	"rvw-resend-history":  applyResendEvents,
	"rvw-resend-inmate":   applyResendEvents,
	"rvw-resend-billpay":  applyResendEvents,
	"cont-resend-history": applyResendEvents,
	"cont-resend-inmate":  applyResendEvents,
	"cont-resend-billpay": applyResendEvents,
	"link-resend":         applyResendEvents,

	"continue_details":    applyPickupDetailsEvents,
	"continue_details_ta": applyPickupDetailsEvents,
	"payment-continue": func(c *Context) {
		c.Doc.AddEvent(222)
		c.Doc.AddEvent(223)
	},
	"doddfrankedit": func(c *Context) { c.Doc.AddEvent(204) },

	"btn-info-next": func(c *Context) {
		c.Doc.AddEvent(283)
		if refNum := c.Acc.GetString(pagecontext.ElemPostalCode, ""); refNum != "" {
			c.Doc.SetEVar(75, refNum)
			c.FunnelSet(constants.FunnelKeyUniqueRefNum, refNum, 0)
		}
	},
	"btn-upload-submit": func(c *Context) {
		c.Doc.AddEvent(284)
		if docType := c.Acc.GetString(pagecontext.ElemKYCDocType, ""); docType != "" {
			c.Doc.SetEVar(76, docType)
		}
	},

	"btn-login":         func(c *Context) { c.Doc.AddEvent(1) },
	"btn-register-user": func(c *Context) { c.Doc.AddEvent(3) },

	"link-i-accept":        applyConsentPopupDismissed,
	"link-i-do-not-accept": applyConsentPopupDismissed,
}

func applyCancelInitiated(c *Context) {
	c.Doc.SetEVar(65, "canceltxn-initiated")
	c.Doc.AddEvent(196)
	c.Doc.AddEvent(197)
}

func applyResendEvents(c *Context) {
	c.Doc.AddEvent(201)
	c.Doc.AddEvent(202)
}

func applyPickupDetailsEvents(c *Context) {
	c.Doc.AddEvent(144)
	c.Doc.AddEvent(145)
}

// applyConsentPopupDismissed drops the terms-popup section marker once the
// visitor acted on it, so later events stop reporting the popup context.
func applyConsentPopupDismissed(c *Context) {
	if c.Acc.AnalyticsValue(pagecontext.KeySection, "") == "register-rp" &&
		c.Acc.AnalyticsValue(pagecontext.KeySubSection, "") == "tnc-popup" {
		c.FunnelDelete(constants.FunnelKeySubSection)
	}
}
