package xdm

import (
	"beacon/internal/constants"
	"beacon/internal/logger"
	"beacon/internal/pagecontext"
)

// VendorField keys carried in the vendor block for rule dispatch.
const (
	VendorPageName      = "pageName"
	VendorCountry       = "country"
	VendorTxnStatus     = "txnStatus"
	VendorMTCN          = "mtcn"
	VendorLinkName      = "linkName"
	VendorPageNameEvent = "pageNameEvent"
	VendorProduct       = "product"
)

// BuildBaseXDM assembles the shared base document every event starts from:
// page details, the interaction name, the time-parting dimension, the
// customer identity, the product string and the vendor context block.
// Failures reading individual fields degrade that field only; the partial
// document is still returned.
func BuildBaseXDM(acc *pagecontext.Accessor, log logger.Logger) Document {
	if log == nil {
		log = logger.NopLogger()
	}
	doc := New()

	pageName := acc.GetString(pagecontext.ElemPageName, "")
	country := acc.GetString(pagecontext.ElemCountry, "")
	accountID := acc.GetString(pagecontext.ElemAccountID, "")
	txnStatus := acc.GetString(pagecontext.ElemTxnStatus, "")
	mtcn := acc.GetString(pagecontext.ElemMTCN, "")
	linkName := acc.GetString(pagecontext.ElemLinkID, "")
	pageNameEvent := acc.GetString(pagecontext.ElemPageNameEvent, "")

	log.Debugw("Building base event document", "page_name", pageName)

	doc.SetPageName(pageName)
	doc.SetSiteSection(constants.DefaultSiteSection)
	doc.SetIsErrorPage(false)
	doc.SetCurrentURL(acc.URL())

	if linkName != "" {
		doc.SetInteractionName(linkName)
	} else {
		doc.SetInteractionName(constants.DefaultInteractionName)
	}

	doc.SetEVar(43, acc.GetString(pagecontext.ElemTimeParting, ""))

	if accountID != "" {
		doc.SetIdentity("customerKey", accountID, false)
	}

	payMethod := acc.AnalyticsValue(pagecontext.KeyPaymentMethod, "")
	delMethod := acc.AnalyticsValue(pagecontext.KeyDeliveryMethod, "")
	txnType := acc.AnalyticsValue(pagecontext.KeyTxnType, "")
	platform := acc.AnalyticsValue(pagecontext.KeyPlatform, "")

	product := ""
	if payMethod != "" && txnType != "" && platform != "" {
		if delMethod != "" {
			product = platform + "|" + txnType + "|" + payMethod + "|" + delMethod
		} else {
			product = platform + "|" + txnType + "|" + payMethod
		}
		log.Debugw("Product string assembled", "product", product)
	}

	doc.SetVendorField(VendorPageName, pageName)
	doc.SetVendorField(VendorCountry, country)
	doc.SetVendorField(VendorTxnStatus, txnStatus)
	doc.SetVendorField(VendorMTCN, mtcn)
	doc.SetVendorField(VendorLinkName, linkName)
	doc.SetVendorField(VendorPageNameEvent, pageNameEvent)
	doc.SetVendorField(VendorProduct, product)

	if delivery := acc.GetString(pagecontext.ElemDeliveryMethod, ""); delivery != "" {
		wallet := acc.GetString(pagecontext.ElemWalletProvider, "")
		if wallet != "" && wallet != "none" {
			delivery = delivery + "-" + wallet
		}
		doc.SetEVar(13, delivery)
	}

	return doc
}
