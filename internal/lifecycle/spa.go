package lifecycle

import "strings"

// spaRoutes maps single-page-app route fragments to funnel page-name
// events, used when the page context has not published a name yet.
var spaRoutes = []struct {
	fragment string
	pageName string
}{
	{"/send-money/start", "send-money:start"},
	{"/send-money/receiver-information", "send-money:receiverinformation"},
	{"/send-money/payment-information", "send-money:paymentinformation"},
	{"/send-money/review", "send-money:review"},
	{"/send-money/confirmation", "send-money:confirmationscreen"},
	{"/send-money/receipt", "send-money:receipt"},
	{"/send-money/wu-pay-receipt", "send-money:sendmoneywupayreceipt"},
	{"/bill-pay/start", "bill-pay:start"},
	{"/bill-pay/biller-information", "bill-pay:requiredbillerinformation"},
	{"/bill-pay/payment-information", "bill-pay:paymentinformation"},
	{"/bill-pay/review", "bill-pay:review"},
	{"/bill-pay/receipt", "bill-pay:receipt"},
	{"/send-inmate/start", "send-inmate:start"},
	{"/send-inmate/receiver-information", "send-inmate:inmatereceiverinformation"},
	{"/send-inmate/payment-information", "send-inmate:inmatepaymentinformation"},
	{"/send-inmate/review", "send-inmate:inmatereview"},
	{"/send-inmate/receipt", "send-inmate:inmatereceipt"},
	{"/track-transfer", "track-transfer"},
	{"/price-estimator", "price-estimator:continue"},
}

// DetectSPAPageName infers a funnel page name from a route path. Returns
// the empty string when the route is not a known funnel step.
func DetectSPAPageName(path string) string {
	lowered := strings.ToLower(path)
	for _, route := range spaRoutes {
		if strings.Contains(lowered, route.fragment) {
			return route.pageName
		}
	}
	return ""
}
