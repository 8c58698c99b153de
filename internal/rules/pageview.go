package rules

import (
	"strings"
	"time"

	"beacon/internal/constants"
	"beacon/internal/pagecontext"
	"beacon/internal/xdm"
)

// deliveryUpdateEvents is the exact-match table for the delivery-method
// update flow. Receipt states only count when a reference number is present.
var deliveryUpdateEvents = map[string][]int{
	"update-delivery-method:start":                       {252, 253},
	"update-delivery-method:review":                      {254, 255},
	"update-delivery-method:decline":                     {257, 258},
	"update-delivery-method:receiver-assisted:decline":   {257, 258},
	"update-delivery-method:redirect-start":              {259, 260},
	"update-delivery-method:receiver-assisted:start":     {261, 262},
	"update-delivery-method:receiver-assisted:shareinfo": {263, 264},
	"update-delivery-method:receiver-assisted:review":    {265, 266},
}

var deliveryUpdateReceiptEvents = map[string]int{
	"update-delivery-method:receipt":                   256,
	"update-delivery-method:receiver-assisted:receipt": 267,
}

func applyDeliveryUpdateEvents(c *Context) {
	if events, ok := deliveryUpdateEvents[c.PageNameEvent]; ok {
		for _, num := range events {
			c.Doc.AddEvent(num)
		}
		return
	}
	if num, ok := deliveryUpdateReceiptEvents[c.PageNameEvent]; ok && c.MTCN != "" {
		c.Doc.AddEvent(num)
	}
}

// exclusiveRules is the ordered first-match-wins chain for receipt,
// decline and KYC pages. Once one of these matches, the funnel default
// branch is skipped entirely.
var exclusiveRules = []Rule{
	{
		Name: "send-money-receipt",
		When: func(c *Context) bool {
			return c.pageContains("send-money:receipt") &&
				c.pageLacks("send-money:receipt-staged") &&
				c.pageLacks("send-money:receipt:under-review") &&
				c.pageLacks("send-money:receipt:on-hold")
		},
		Apply: func(c *Context) {
			if c.purchaseApproved() {
				c.applyPurchase(true)
			}
		},
	},
	{
		Name: "send-money-confirmation",
		When: func(c *Context) bool { return c.pageContains("send-money:confirmationscreen") },
		Apply: func(c *Context) {
			if c.purchaseApproved() {
				c.applyPurchase(true)
			}
		},
	},
	{
		Name: "bill-pay-receipt",
		When: func(c *Context) bool { return c.pageContains("bill-pay:receipt") },
		Apply: func(c *Context) {
			if c.purchaseApproved() {
				c.applyPurchase(false)
			} else if c.Product != "" {
				c.applyDeclineEvents()
			}
		},
	},
	{
		Name: "bill-pay-confirmation",
		When: func(c *Context) bool { return c.pageContains("bill-pay:confirmationscreen") },
		Apply: func(c *Context) {
			if c.purchaseApproved() {
				c.applyPurchase(false)
			} else if c.Product != "" {
				c.applyDeclineEvents()
			}
		},
	},
	{
		Name: "inmate-receipt",
		When: func(c *Context) bool {
			return c.pageContains("send-inmate:inmatereceipt") || c.pageContains("send-inmate:receipt")
		},
		Apply: func(c *Context) {
			if c.purchaseApproved() {
				c.applyPurchase(false)
			} else if c.Product != "" {
				c.applyDeclineEvents()
			}
		},
	},
	{
		Name: "inmate-confirmation",
		When: func(c *Context) bool { return c.pageContains("send-inmate:confirmationscreen") },
		Apply: func(c *Context) {
			if c.purchaseApproved() {
				txnID := c.Acc.AnalyticsValue(pagecontext.KeyTransactionID, "")
				c.Doc.SetProduct(c.Product, xdm.Price(c.TxnFee), nil)
				c.Doc.SetNamedEVar("purchaseID", txnID)
				c.Doc.AddPurchaseEvent(txnID, xdm.Price(c.TxnFee))
			} else if c.Product != "" {
				c.applyDeclineEvents()
			}
		},
	},
	{
		Name: "send-money-decline",
		When: func(c *Context) bool {
			return c.pageContains("send-money:declineoptions") || c.pageContains("send-money:bank-decline-lightbox")
		},
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "send-money-kyc-confirm",
		When:  func(c *Context) bool { return c.pageContains("send-money:kycconfirmidentity") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "send-money-receipt-on-hold",
		When:  func(c *Context) bool { return c.pageContains("send-money:receipt:on-hold") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "send-money-receipt-under-review",
		When:  func(c *Context) bool { return c.pageContains("send-money:receipt:under-review") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "bill-pay-kyc-confirm",
		When:  func(c *Context) bool { return c.pageContains("bill-pay:kycconfirmidentity") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "bill-pay-bank-decline",
		When:  func(c *Context) bool { return c.pageContains("bill-pay:bank-decline-lightbox") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "bill-pay-decline-options",
		When:  func(c *Context) bool { return c.pageContains("bill-pay:declineoptions") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "inmate-kyc-confirm",
		When:  func(c *Context) bool { return c.pageContains("send-inmate:kycconfirmidentity") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "inmate-bank-decline",
		When:  func(c *Context) bool { return c.pageContains("send-inmate:bank-decline-lightbox") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name:  "inmate-decline-options",
		When:  func(c *Context) bool { return c.pageContains("send-inmate:declineoptions") },
		Apply: func(c *Context) { c.applyDeclineEvents() },
	},
	{
		Name: "kyc-info",
		When: func(c *Context) bool { return c.pageContains("kyc:info") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(277)
			c.Doc.AddEvent(285)
		},
	},
	{
		Name: "kyc-upload",
		When: func(c *Context) bool {
			return c.pageContains("kyc:upload") && c.pageLacks("kyc:upload-")
		},
		Apply: func(c *Context) {
			c.Doc.AddEvent(278)
			c.Doc.AddEvent(286)
			// The unique reference captured on the info step travels to the
			// upload step exactly once.
			if refNum := c.FunnelGet(constants.FunnelKeyUniqueRefNum); refNum != "" {
				c.Doc.SetEVar(75, refNum)
			}
			c.FunnelDelete(constants.FunnelKeyUniqueRefNum)
		},
	},
	{
		Name: "kyc-success",
		When: func(c *Context) bool { return c.pageContains("kyc:success") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(279)
			c.Doc.AddEvent(287)
		},
	},
	{
		Name: "spain-doctransfer",
		When: func(c *Context) bool {
			return c.Country == "es" && c.pageContains("send-money:doctransfer")
		},
		Apply: func(c *Context) {
			referrer := c.Acc.Referrer()
			if referrer != "" && strings.Contains(referrer, "review.html") && c.TxnStatus == "c2001" {
				c.applyDeclineEvents()
			}
		},
	},
}

// defaultRules is the non-exclusive funnel branch: every matching rule
// fires. It only runs when the exclusive chain found nothing.
var defaultRules = []Rule{
	{
		Name: "send-money-start",
		When: func(c *Context) bool {
			return c.pageLacks("fraudprotection") && c.pageContains("send-money:start")
		},
		Apply: func(c *Context) {
			c.FunnelDelete(constants.FunnelKeySendMoneyStart)
			if c.Country != "" && c.Country != "us" {
				if c.Acc.AnalyticsValue(pagecontext.KeyPrincipal, "") != "" {
					c.Doc.AddEvent(6)
					c.Doc.AddEvent(67)
				}
			}
			if c.Acc.AnalyticsValue(pagecontext.KeyLoginState, "") == "loggedin" {
				c.Doc.AddEvent(5)
				c.Doc.AddEvent(11)
				c.FunnelSet(constants.FunnelKeySendMoneyStart, "true", 0)
			}
		},
	},
	{
		Name: "send-money-receiver",
		When: func(c *Context) bool {
			return c.pageLacks("fraudprotection") && c.pageContains("send-money:receiverinformation")
		},
		Apply: func(c *Context) {
			if c.FunnelGet(constants.FunnelKeySendMoneyStart) == "true" {
				c.Doc.AddEvent(7)
				c.Doc.AddEvent(12)
			} else {
				c.FunnelSet(constants.FunnelKeySendMoneyStart, "true", 0)
				c.Doc.AddEvent(5)
				c.Doc.AddEvent(7)
				c.Doc.AddEvent(11)
				c.Doc.AddEvent(12)
			}
			setCampaignEVar(c)
		},
	},
	{
		Name: "send-money-payment",
		When: func(c *Context) bool {
			return c.pageLacks("fraudprotection") && c.pageContains("send-money:paymentinformation")
		},
		Apply: func(c *Context) {
			c.Doc.AddEvent(8)
			c.Doc.AddEvent(13)
			setCampaignEVar(c)
		},
	},
	{
		Name: "send-money-review",
		When: func(c *Context) bool {
			return c.pageLacks("fraudprotection") && c.pageContains("send-money:review")
		},
		Apply: func(c *Context) {
			c.Doc.AddEvent(9)
			c.Doc.AddEvent(14)
			setCampaignEVar(c)
		},
	},
	{
		Name:  "send-money-confirm-identity",
		When:  func(c *Context) bool { return c.pageContains("send-money:confirmidentity") },
		Apply: setCampaignEVar,
	},
	{
		Name:  "send-money-global-collect-id",
		When:  func(c *Context) bool { return c.pageContains("send-money:globalcollectid") },
		Apply: setCampaignEVar,
	},
	{
		Name: "wu-pay-receipt",
		When: func(c *Context) bool {
			return c.pageContains("send-money:sendmoneywupayreceipt") ||
				c.pageContains("send-money:wire-complete") ||
				c.pageContains("send-money:sendmoneypartnerfundsreceipt")
		},
		Apply: func(c *Context) {
			if c.MTCN == "" {
				return
			}
			c.Doc.AddEvent(64)
			c.Doc.AddEvent(34)
			if c.Product != "" {
				c.Doc.SetProduct(c.Product, nil, map[string]interface{}{"event34": c.TxnFee})
			}
		},
	},
	{
		Name: "bill-pay-start",
		When: func(c *Context) bool { return c.pageContains("bill-pay:start") },
		Apply: func(c *Context) {
			c.FunnelDelete(constants.FunnelKeyBillPayStart)
			if c.Acc.AnalyticsValue(pagecontext.KeyLoginState, "") == "loggedin" {
				c.Doc.AddEvent(121)
				c.Doc.AddEvent(126)
				c.FunnelSet(constants.FunnelKeyBillPayStart, "true", 0)
			}
		},
	},
	{
		Name: "bill-pay-biller-information",
		When: func(c *Context) bool { return c.pageContains("bill-pay:requiredbillerinformation") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(121)
			c.Doc.AddEvent(122)
			c.Doc.AddEvent(126)
			c.Doc.AddEvent(127)
		},
	},
	{
		Name: "bill-pay-payment",
		When: func(c *Context) bool { return c.pageContains("bill-pay:paymentinformation") },
		Apply: func(c *Context) {
			if c.FunnelGet(constants.FunnelKeyBillPayStart) == "true" {
				c.Doc.AddEvent(123)
				c.Doc.AddEvent(128)
			} else {
				c.Doc.AddEvent(121)
				c.Doc.AddEvent(123)
				c.Doc.AddEvent(126)
				c.Doc.AddEvent(128)
				c.FunnelSet(constants.FunnelKeyBillPayStart, "true", 0)
			}
		},
	},
	{
		Name: "bill-pay-review",
		When: func(c *Context) bool { return c.pageContains("bill-pay:review") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(124)
			c.Doc.AddEvent(129)
		},
	},
	{
		Name: "inmate-start",
		When: func(c *Context) bool { return c.pageContains("send-inmate:start") },
		Apply: func(c *Context) {
			c.FunnelDelete(constants.FunnelKeySendInmateStart)
			if c.Acc.AnalyticsValue(pagecontext.KeyLoginState, "") == "loggedin" {
				c.Doc.AddEvent(18)
				c.Doc.AddEvent(23)
				c.FunnelSet(constants.FunnelKeySendInmateStart, "true", 0)
			}
		},
	},
	{
		Name: "inmate-receiver",
		When: func(c *Context) bool { return c.pageContains("send-inmate:inmatereceiverinformation") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(18)
			c.Doc.AddEvent(19)
			c.Doc.AddEvent(23)
			c.Doc.AddEvent(24)
		},
	},
	{
		Name: "inmate-payment",
		When: func(c *Context) bool { return c.pageContains("send-inmate:inmatepaymentinformation") },
		Apply: func(c *Context) {
			if c.FunnelGet(constants.FunnelKeySendInmateStart) == "true" {
				c.Doc.AddEvent(20)
				c.Doc.AddEvent(25)
			} else {
				c.Doc.AddEvent(18)
				c.Doc.AddEvent(23)
				c.Doc.AddEvent(20)
				c.Doc.AddEvent(25)
				c.FunnelSet(constants.FunnelKeySendInmateStart, "true", 0)
			}
		},
	},
	{
		Name: "inmate-review",
		When: func(c *Context) bool { return c.pageContains("send-inmate:inmatereview") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(21)
			c.Doc.AddEvent(26)
		},
	},
	{
		Name: "price-estimate",
		When: func(c *Context) bool {
			return c.pageContains("price-estimator:continue") ||
				c.pageContains("price-estimator:performestimatedfeeinquiry") ||
				c.pageContains("send-inmate:performestimatedinmatefeeinquiry")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(30) },
	},
	{
		Name: "search-results",
		When: func(c *Context) bool {
			return c.pageContains("search:results") || c.pageContains("search:no-results")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(33) },
	},
	{
		Name: "password-recovery-start",
		When: func(c *Context) bool {
			return c.pageContains("password-recovery") &&
				c.pageLacks("securityquestion") &&
				c.pageLacks("emailsent") &&
				c.pageLacks("resetpassword")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(53) },
	},
	{
		Name:  "password-recovery-reset",
		When:  func(c *Context) bool { return c.pageContains("password-recovery:resetpassword") },
		Apply: func(c *Context) { c.Doc.AddEvent(66) },
	},
	{
		Name: "registration-page",
		When: func(c *Context) bool {
			switch c.PageNameEvent {
			case "send-money:register", "register", "send-inmate:register", "register:sm-login", "bill-pay:register":
				return true
			}
			return false
		},
		Apply: func(c *Context) {
			c.Doc.AddEvent(89)
			c.Doc.AddEvent(92)
		},
	},
	{
		Name: "profile-personal-info",
		When: func(c *Context) bool { return c.pageContains("profile:personal-info") },
		Apply: func(c *Context) {
			clicked := c.Acc.AnalyticsValue(pagecontext.KeyLinkName, "")
			if clicked == "save-password" || clicked == "button-save-password" {
				c.Doc.SetEVar(61, clicked)
				c.Doc.AddEvent(184)
				return
			}
			c.Doc.SetEVar(61, "link-profile-icon")
			switch c.LinkName {
			case "save-address", "button-save-address", "save-securityques", "button-save-securityques", "confirm-pin":
				c.Doc.AddEvent(184)
			}
		},
	},
	{
		Name: "profile-edit-address",
		When: func(c *Context) bool { return c.pageContains("profile:edit-address") },
		Apply: func(c *Context) {
			if c.LinkName == "edit-address" || c.LinkName == "icon-edit-address" {
				c.Doc.AddEvent(183)
			}
			c.Doc.SetEVar(61, c.LinkName)
		},
	},
	{
		Name: "profile-edit-password",
		When: func(c *Context) bool { return c.pageContains("profile:edit-password") },
		Apply: func(c *Context) {
			if c.LinkName == "edit-password" || c.LinkName == "icon-edit-password" {
				c.Doc.AddEvent(183)
			}
			c.Doc.SetEVar(61, c.LinkName)
		},
	},
	{
		Name: "profile-edit-securityques",
		When: func(c *Context) bool { return c.pageContains("profile:edit-securityques") },
		Apply: func(c *Context) {
			if c.LinkName == "edit-securityques" || c.LinkName == "icon-edit-securityques" {
				c.Doc.AddEvent(183)
			}
			c.Doc.SetEVar(61, c.LinkName)
		},
	},
	{
		Name: "profile-edit-email",
		When: func(c *Context) bool { return c.pageContains("profile:edit-email") },
		Apply: func(c *Context) {
			if c.LinkName == "edit-email" || c.LinkName == "icon-edit-email" {
				c.Doc.AddEvent(183)
			}
			c.Doc.SetEVar(61, c.LinkName)
		},
	},
	{
		Name: "my-receivers-edit",
		When: func(c *Context) bool { return c.pageContains("my-receivers:edit-receiver") },
		Apply: func(c *Context) {
			switch c.LinkName {
			case "mysmreceiver-edit", "mybillpayreceiver-edit", "myinmatereceiver-edit":
				c.Doc.AddEvent(183)
			}
			c.Doc.SetEVar(61, c.LinkName)
		},
	},
	{
		Name: "my-receivers-add",
		When: func(c *Context) bool { return c.pageContains("my-receivers:add-receiver") },
		Apply: func(c *Context) {
			if c.LinkName == "myreceiver-add" {
				c.Doc.AddEvent(183)
			}
			c.Doc.SetEVar(61, c.LinkName)
		},
	},
	{
		Name: "portal-session-link",
		When: func(c *Context) bool { return c.Acc.QueryParam("sln") != "" },
		Apply: func(c *Context) {
			c.Doc.AddEvent(183)
			c.Doc.SetEVar(61, c.Acc.QueryParam("sln"))
		},
	},
	{
		Name: "hsfp-partner-capture",
		When: func(c *Context) bool { return c.Acc.QueryParam("partnerName") != "" },
		Apply: func(c *Context) {
			c.FunnelSet(constants.FunnelKeyPartner, c.Acc.QueryParam("partnerName"), 0)
		},
	},
	{
		Name: "hsfp-partner-attribute",
		When: func(c *Context) bool { return c.FunnelGet(constants.FunnelKeyPartner) != "" },
		Apply: func(c *Context) {
			c.Doc.SetEVar(71, strings.ToLower(c.FunnelGet(constants.FunnelKeyPartner)))
			c.FunnelDelete(constants.FunnelKeyPartner)
		},
	},
	{
		Name: "sso-login",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeySSOStatus, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(234) },
	},
	{
		Name: "kyc-lookup",
		When: func(c *Context) bool { return c.pageContains("kyc:lookup") && c.fireEventAllowed() },
		Apply: func(c *Context) { c.Doc.AddEvent(77) },
	},
	{
		Name: "kyc-docupload",
		When: func(c *Context) bool { return c.pageContains("kyc:docupload") && c.fireEventAllowed() },
		Apply: func(c *Context) { c.Doc.AddEvent(78) },
	},
	{
		Name: "kyc-upload-success",
		When: func(c *Context) bool { return c.pageContains("kyc:upload-success") && c.fireEventAllowed() },
		Apply: func(c *Context) { c.Doc.AddEvent(79) },
	},
	{
		Name: "send-money-send-again",
		When: func(c *Context) bool { return c.pageContains("send-money:sendagain") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(5)
			c.Doc.AddEvent(11)
			setCampaignEVar(c)
		},
	},
	{
		Name: "cancel-transfer-reason",
		When: func(c *Context) bool { return c.pageContains("cancel-transfer:reason") },
		Apply: func(c *Context) {
			c.Doc.SetListProp(2, c.Acc.AnalyticsValue(pagecontext.KeyABTesting, ""))
			c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
			c.Doc.AddEvent(218)
			c.Doc.AddEvent(219)
		},
	},
	{
		Name: "cancel-transfer-abandoned",
		When: func(c *Context) bool { return c.pageContains("cancel-transfer:receipt-transfer-cont") },
		Apply: func(c *Context) {
			c.Doc.SetEVar(61, "canceltxn-abandoned")
			c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
			c.Doc.SetEVar(66, c.Acc.GetString(pagecontext.ElemRefundAmount, ""))
			c.Doc.SetEVar(68, c.Acc.GetString(pagecontext.ElemReasonCategory, ""))
			c.Doc.AddEvent(183)
		},
	},
	{
		Name: "cancel-transfer-review",
		When: func(c *Context) bool {
			return c.pageContains("cancel-transfer:review-full-refund") ||
				c.pageContains("cancel-transfer:review-pr-refund")
		},
		Apply: func(c *Context) {
			c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
			c.Doc.SetEVar(66, c.Acc.GetString(pagecontext.ElemRefundAmount, ""))
			c.Doc.SetEVar(68, c.Acc.GetString(pagecontext.ElemReasonCategory, ""))
			if display := c.Acc.GetString(pagecontext.ElemLinkDisplay, ""); display != "" && display != "null" {
				c.Doc.SetListProp(1, display)
				c.Doc.AddEvent(206)
			}
			c.Doc.AddEvent(185)
			c.Doc.AddEvent(186)
		},
	},
	{
		Name: "cancel-transfer-full-refund",
		When: func(c *Context) bool { return c.pageContains("cancel-transfer:receipt-full-refund") },
		Apply: func(c *Context) {
			c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
			c.Doc.SetEVar(66, c.Acc.GetString(pagecontext.ElemRefundAmount, ""))
			c.Doc.SetEVar(68, c.Acc.GetString(pagecontext.ElemReasonCategory, ""))
			c.Doc.SetEVar(21, "refunded")
			if c.MTCN != "" {
				c.Doc.AddEvent(189)
				c.Doc.AddEventValue(198, c.RefundAmount)
				c.Doc.AddEventValue(199, c.TxnFee)
			}
		},
	},
	{
		Name: "cancel-transfer-pr-refund",
		When: func(c *Context) bool { return c.pageContains("cancel-transfer:receipt-pr-refund") },
		Apply: func(c *Context) {
			c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
			c.Doc.SetEVar(66, c.Acc.GetString(pagecontext.ElemRefundAmount, ""))
			c.Doc.SetEVar(68, c.Acc.GetString(pagecontext.ElemReasonCategory, ""))
			c.Doc.SetEVar(21, "refunded")
			if c.MTCN != "" {
				c.Doc.AddEvent(189)
				c.Doc.AddEventValue(198, c.RefundAmount)
			}
		},
	},
	{
		Name: "cancel-transfer-outcome",
		When: func(c *Context) bool {
			return c.pageContains("cancel-transfer:case-request") || c.pageContains("cancel-transfer:declined")
		},
		Apply: func(c *Context) {
			c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
			c.Doc.SetEVar(66, c.Acc.GetString(pagecontext.ElemRefundAmount, ""))
			c.Doc.SetEVar(68, c.Acc.GetString(pagecontext.ElemReasonCategory, ""))
		},
	},
	{
		Name: "request-money-estimate",
		When: func(c *Context) bool { return c.pageContains("request-money:estimate") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(172)
			c.Doc.AddEvent(173)
		},
	},
	{
		Name: "request-money-receiver",
		When: func(c *Context) bool { return c.pageContains("request-money:receiverinfo") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(174)
			c.Doc.AddEvent(175)
		},
	},
	{
		Name:  "request-money-complete",
		When:  func(c *Context) bool { return c.pageContains("request-money:complete") },
		Apply: func(c *Context) { c.Doc.AddEvent(180) },
	},
	{
		Name: "pickup-cash-start",
		When: func(c *Context) bool { return c.pageContains("pickupcash:start") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(160)
			c.Doc.AddEvent(161)
		},
	},
	{
		Name: "pickup-cash-sender-info",
		When: func(c *Context) bool { return c.pageContains("pickupcash:senderinfo") },
		Apply: func(c *Context) {
			if links := c.Acc.SessionLinks(); strings.Contains(links, "website:tracktransfer:details") {
				c.Doc.AddEvent(160)
				c.Doc.AddEvent(161)
				if c.Country == "mx" {
					c.Doc.AddEvent(162)
					c.Doc.AddEvent(163)
				}
			}
			c.Doc.AddEvent(164)
			c.Doc.AddEvent(165)
		},
	},
	{
		Name: "pickup-cash-name-mismatch",
		When: func(c *Context) bool { return c.pageContains("pickupcash:senderinfo:namemismatch") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(166)
			c.Doc.AddEvent(167)
		},
	},
	{
		Name: "pickup-cash-security-question",
		When: func(c *Context) bool { return c.pageContains("pickupcash:securityquestion") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(168)
			c.Doc.AddEvent(169)
		},
	},
	{
		Name: "pickup-cash-confirm",
		When: func(c *Context) bool { return c.pageContains("pickupcash:confirm") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(170)
			c.Doc.AddEvent(171)
		},
	},
	{
		Name: "receipt-staged",
		When: func(c *Context) bool { return c.pageContains("send-money:receipt-staged") },
		Apply: func(c *Context) {
			stagedMTCN := ""
			if txnID := c.Acc.AnalyticsValue(pagecontext.KeyTransactionID, ""); txnID != "" && len(txnID) > 6 {
				stagedMTCN = strings.TrimSpace(txnID[6:])
			}
			c.Doc.SetEVar(20, stagedMTCN)
			c.Doc.SetEVar(21, "staged")
			c.Doc.AddEvent(118)
			c.Doc.AddEventValue(120, c.TxnFee)
		},
	},
	{
		Name: "cancel-channel-cleanup",
		When: func(c *Context) bool {
			return c.pageContains("profile:txn-history") || c.pageContains("track-transfer")
		},
		Apply: func(c *Context) { c.FunnelDelete(constants.FunnelKeyCancelChannel) },
	},
	{
		Name: "login-success",
		When: func(c *Context) bool { return c.Acc.GetBool(pagecontext.ElemLoginSuccess, false) },
		Apply: func(c *Context) {
			c.Doc.SetEVar(42, "login")
			c.FunnelDelete(constants.FunnelKeyNewUser)
			if !(c.Country == "us" && c.pageContains("contactus")) {
				c.Doc.AddEvent(2)
			}
		},
	},
	{
		Name: "register-success",
		When: func(c *Context) bool {
			if !c.Acc.GetBool(pagecontext.ElemRegisterSuccess, false) {
				return false
			}
			if c.Country != "nz" {
				return c.Country != ""
			}
			// NZ fires only on the responsive experience, or on the
			// verification page reached from registration.
			if c.Acc.GetString(pagecontext.ElemPageType, "") == "responsive" {
				return true
			}
			return c.pageContains("verification") && strings.Contains(c.Acc.Referrer(), "register")
		},
		Apply: func(c *Context) {
			c.Doc.SetEVar(42, "register")
			if c.FunnelGet(constants.FunnelKeyMyWUOptIn) == "yes" {
				c.Doc.SetEVar(61, "mywuoptedin")
				c.Doc.AddEvent(40)
			}
			c.FunnelSet(constants.FunnelKeyNewUser, "true", constants.NewUserTTL)
			c.Doc.AddEvent(4)
			if c.Acc.AnalyticsValueSet(pagecontext.KeyThirdPartyOptIn) {
				c.Doc.AddEvent(299)
				if c.Acc.AnalyticsValue(pagecontext.KeyThirdPartyOptIn, "") == "true" {
					c.Doc.SetEVar(81, "consent-accepted")
				} else {
					c.Doc.SetEVar(81, "consent-denied")
				}
			}
		},
	},
	{
		Name:  "account-activation",
		When:  func(c *Context) bool { return c.Acc.GetBool(pagecontext.ElemAccountActive, false) },
		Apply: func(c *Context) { c.Doc.AddEvent(32) },
	},
	{
		Name:  "forgot-password-start",
		When:  func(c *Context) bool { return c.pageContains("forgot-password:start") },
		Apply: func(c *Context) { c.Doc.AddEvent(82) },
	},
	{
		Name:  "forgot-password-email-sent",
		When:  func(c *Context) bool { return c.pageContains("forgot-password:emailsent") },
		Apply: func(c *Context) { c.Doc.AddEvent(85) },
	},
	{
		Name:  "forgot-password-security-question",
		When:  func(c *Context) bool { return c.pageContains("forgot-password:securityquestion") },
		Apply: func(c *Context) { c.Doc.AddEvent(86) },
	},
	{
		Name:  "forgot-password-reset",
		When:  func(c *Context) bool { return c.pageContains("forgot-password:resetpassword") },
		Apply: func(c *Context) { c.Doc.AddEvent(87) },
	},
	{
		Name: "name-change-text-me",
		When: func(c *Context) bool { return c.pageContains("name-change:verificationoptions:text-me") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(207)
			c.Doc.AddEvent(208)
		},
	},
	{
		Name: "name-change-enter-pin",
		When: func(c *Context) bool { return c.pageContains("name-change:enter-pin") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(209)
			c.Doc.AddEvent(210)
		},
	},
	{
		Name: "name-change-edit-receiver",
		When: func(c *Context) bool { return c.pageContains("name-change:editreceiver-name") },
		Apply: func(c *Context) {
			if strings.Contains(c.LinkName, "cancel-transfer:reason") {
				c.Doc.SetEVar(61, "receiver-namechange")
				c.Doc.AddEvent(213)
				c.Doc.AddEvent(214)
				c.Doc.AddEvent(211)
			} else {
				c.Doc.AddEvent(213)
				c.Doc.AddEvent(214)
			}
		},
	},
	{
		Name: "name-change-review",
		When: func(c *Context) bool {
			return c.pageContains("name-change:review") || c.pageContains("name-change:namechangereview")
		},
		Apply: func(c *Context) {
			c.Doc.AddEvent(215)
			c.Doc.AddEvent(216)
		},
	},
	{
		Name: "name-change-receipt",
		When: func(c *Context) bool {
			return c.pageContains("name-change:receipt") || c.pageContains("name-change:namechangereceipt")
		},
		Apply: func(c *Context) {
			if c.Acc.AnalyticsValue(pagecontext.KeyTransactionID, "") != "" {
				c.Doc.AddEvent(217)
			}
		},
	},
	{
		Name: "collect-id-details",
		When: func(c *Context) bool {
			return c.pageContains("collectid:details") || c.pageContains("collect-id:details")
		},
		Apply: func(c *Context) {
			c.Doc.AddEvent(142)
			c.Doc.AddEvent(143)
			if c.verifyStatusIs("unverified") {
				c.Doc.AddEvent(244)
			}
		},
	},
	{
		Name:  "collect-id-failed",
		When:  func(c *Context) bool { return c.pageContains("collectid:failed") },
		Apply: func(c *Context) { c.Doc.AddEvent(148) },
	},
	{
		Name: "txn-history-verification-in-progress",
		When: func(c *Context) bool {
			return c.pageLacks("fraudprotection") && c.pageContains("profile:txn-history") &&
				c.verifyStatusIs("inprogress")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(245) },
	},
	{
		Name: "send-money-start-verified",
		When: func(c *Context) bool {
			return c.pageLacks("fraudprotection") && c.pageContains("send-money:start") &&
				c.verifyStatusIs("verified")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(248) },
	},
	{
		Name: "collect-id-ekyc-suspended",
		When: func(c *Context) bool {
			return c.pageContains("collectid:ekyc-failed") && c.verifyStatusIs("suspended")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(247) },
	},
	{
		Name: "collect-id-identify-rejected",
		When: func(c *Context) bool {
			return c.pageContains("collectid:identify") && c.verifyStatusIs("rejected")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(246) },
	},
	{
		Name: "forgot-password-complete",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyFPComplete, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(88) },
	},
	{
		Name: "verification-letter-sent",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyLetterSent, "") == "true"
		},
		Apply: func(c *Context) {
			c.FunnelSet(constants.FunnelKeyLetterSent, "true", 0)
			c.Doc.AddEvent(140)
			c.Doc.AddEvent(141)
		},
	},
	{
		Name: "verification-blocked",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyOnlineVerify, "") == "blocked"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(147) },
	},
	{
		Name: "verification-failed",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyVerificationFailed, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(148) },
	},
	{
		Name: "verification-letter-confirmed",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyUserVerify, "") == "true" &&
				c.FunnelGet(constants.FunnelKeyLetterSent) == "true"
		},
		Apply: func(c *Context) {
			c.FunnelDelete(constants.FunnelKeyLetterSent)
			c.Doc.AddEvent(149)
		},
	},
	{
		Name: "id-verification-success",
		When: func(c *Context) bool {
			return c.Acc.GetString(pagecontext.ElemIDVerifySuccess, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(146) },
	},
	{
		Name: "fraud-protection",
		When: func(c *Context) bool { return c.pageContains("fraudprotection") },
		Apply: func(c *Context) {
			c.Doc.AddEvent(114)
			c.Doc.AddEvent(115)
		},
	},
	{
		Name:  "progressive-register",
		When:  func(c *Context) bool { return c.pageContains("progressive-register") },
		Apply: func(c *Context) { c.Doc.AddEvent(237) },
	},
	{
		Name:  "progressive-register-contact",
		When:  func(c *Context) bool { return c.pageContains("progressive-register:contact") },
		Apply: func(c *Context) { c.Doc.AddEvent(238) },
	},
	{
		Name: "page-error",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValueSet(pagecontext.KeyError) &&
				c.Acc.AnalyticsValue(pagecontext.KeyError, "") != ""
		},
		Apply: func(c *Context) { c.Doc.AddEvent(31) },
	},
}

// sharedRules always run, for page views and link clicks alike, after the
// branch selection above.
var sharedRules = []Rule{
	{
		Name: "reset-password-flag",
		When: func(c *Context) bool {
			return c.FunnelGet(constants.FunnelKeyResetPassword) == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(88) },
	},
	{
		Name: "page-load-time",
		When: func(c *Context) bool { return c.Acc.PageLoadTime() > 0 },
		Apply: func(c *Context) {
			c.Doc.AddEventValue(294, c.Acc.PageLoadTime())
		},
	},
	{
		Name: "promo-code-display",
		When: func(c *Context) bool { return c.pageContains("send-money:start:enterpromo") },
		Apply: func(c *Context) {
			if display := c.Acc.GetString(pagecontext.ElemLinkDisplay, ""); display != "" && display != "null" {
				c.Doc.SetListProp(1, display)
				c.Doc.AddEvent(206)
			}
		},
	},
	{
		Name:  "third-party-consent-page",
		When:  func(c *Context) bool { return c.pageContains("thirdpartydataconsent") },
		Apply: func(c *Context) { c.Doc.AddEvent(300) },
	},
	{
		Name:  "page-not-found",
		When:  func(c *Context) bool { return strings.Contains(c.Acc.Title(), "404") },
		Apply: func(c *Context) { c.Doc.AddEvent(404) },
	},
	{
		Name: "track-transfer-status",
		When: func(c *Context) bool {
			return c.pageContains("track-transfer:moneytransfer-tab:status") ||
				c.pageContains("track-transfer:sender_tab:status") ||
				c.pageContains("track-transfer:receiver_tab:status") ||
				c.pageContains("track-transfer:sender-tab:status") ||
				c.pageContains("track-transfer:receiver-tab:status") ||
				c.pageContains("track-transfer-success")
		},
		Apply: func(c *Context) {
			c.Doc.SetEVar(65, c.Acc.GetString(pagecontext.ElemCancelStatus, ""))
			if display := c.Acc.GetString(pagecontext.ElemLinkDisplay, ""); display != "" && display != "null" {
				c.Doc.AddEvent(206)
			}
			if msgID := c.Acc.GetString(pagecontext.ElemMsgID, ""); msgID != "" && msgID != "null" {
				c.Doc.SetProp(13, "msg:"+msgID)
				c.Doc.SetProp(14, c.PageName+"|msg:"+msgID)
			}
			c.Doc.AddEvent(29)
		},
	},
	{
		Name: "nca-receipt",
		When: func(c *Context) bool {
			if !c.Acc.GetBool(pagecontext.ElemNCA20, false) {
				return false
			}
			return c.pageContains("send-money:receipt") ||
				c.pageContains("send-money:sendmoneywupayreceipt") ||
				c.pageContains("send-money:sendmoneycashreceipt") ||
				c.pageContains("bill-pay:receipt")
		},
		Apply: func(c *Context) {
			accountID := c.Acc.GetString(pagecontext.ElemAccountID, "")
			c.Doc.AddEventWithID(282, 1, accountID)
			c.FunnelSet(constants.FunnelKeyLastTxnStamp, time.Now().UTC().Format(time.RFC3339), constants.LastTxnStampTTL)
		},
	},
	{
		Name: "peru-ce-start-subscription",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyPageName, "") == "pe:es:website-ce:perform-operation:start-subscription"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(356) },
	},
	{
		Name: "peru-ce-confirm-subscription",
		When: func(c *Context) bool {
			return c.pageContains("pe:es:website-ce:perform-operation:confirm-subscription")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(357) },
	},
	{
		Name: "peru-ce-success-subscription",
		When: func(c *Context) bool {
			return c.pageContains("pe:es:website-ce:perform-operation:success-subscription")
		},
		Apply: func(c *Context) { c.Doc.AddEvent(358) },
	},
	{
		Name: "progressive-register-flow",
		When: func(c *Context) bool {
			if c.pageContains("register") && c.pageLacks("verifycode") && c.pageLacks("progressive-register:contact") {
				return true
			}
			return c.pageContains("referee:tnc-popup")
		},
		Apply: func(c *Context) {
			c.Doc.SetEVar(45, c.PageName)
			c.Doc.SetProp(20, c.PageName)
			c.Doc.SetEVar(23, "progressive-register")
			c.Doc.SetInteractionName("progressive-flow")
			c.Doc.AddEvent(281)
		},
	},
	{
		Name: "login-success-flag",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyLoginSuccess, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(2) },
	},
	{
		Name: "account-activation-flag",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyAccountActivation, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(32) },
	},
	{
		Name: "forgot-password-step1-flag",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyFPStep1, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(82) },
	},
	{
		Name: "forgot-password-step3-flag",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyFPStep3, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(86) },
	},
	{
		Name: "forgot-password-step4-flag",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyFPStep4, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(87) },
	},
	{
		Name: "forgot-password-success-flag",
		When: func(c *Context) bool {
			return c.Acc.AnalyticsValue(pagecontext.KeyFPSuccess, "") == "true"
		},
		Apply: func(c *Context) { c.Doc.AddEvent(88) },
	},
	{
		Name: "register-success-marker",
		When: func(c *Context) bool { return c.Acc.GetBool(pagecontext.ElemRegisterSuccess, false) },
		Apply: func(c *Context) {
			c.FunnelSet(constants.FunnelKeyRegisterSuccess, "true", 0)
		},
	},
}
