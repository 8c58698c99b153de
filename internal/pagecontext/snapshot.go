package pagecontext

// Snapshot is a read-only capture of the page environment for one tracked
// event: published data elements, the raw analytics object, and the browser
// facts (URL, referrer, title) the rules dispatch on. Producers build a fresh
// Snapshot per navigation; the pipeline only ever reads it.
type Snapshot struct {
	DataElements map[string]interface{} `json:"data_elements"`
	Analytics    map[string]interface{} `json:"analytics_object"`

	URL          string            `json:"url"`
	Referrer     string            `json:"referrer"`
	Title        string            `json:"title"`
	QueryParams  map[string]string `json:"query_params"`
	SessionLinks string            `json:"session_links"`

	// PageLoadTime is the measured load duration in milliseconds, zero when
	// the caller did not capture one.
	PageLoadTime float64 `json:"page_load_time"`
}

// Data element names published by the tag environment.
const (
	ElemPageName        = "WUPageNameJSObject"
	ElemCountry         = "WUCountryJSObject"
	ElemTxnStatus       = "WUTxnStatusJSObject"
	ElemMTCN            = "WUMtcnJSObject"
	ElemTxnFee          = "WUTransactionFeeJSObject"
	ElemRefundAmount    = "WURefundAmntJSObject"
	ElemAccountID       = "WUAccountJSObject"
	ElemLinkID          = "WULinkIDJSObject"
	ElemPageNameEvent   = "WUPagenameForEventObject"
	ElemPageType        = "WUPageTypeJSObject"
	ElemDeliveryMethod  = "WUDeliveryMethodJSObject"
	ElemWalletProvider  = "WUWalletServiceProvider"
	ElemTimeParting     = "WUTimePartingJSObject"
	ElemLoginSuccess    = "WULoginSuccessJSObject"
	ElemRegisterSuccess = "WURegisterSuccessJSObject"
	ElemAccountActive   = "WUAccountActiveJSObject"
	ElemCancelStatus    = "WUCancelStatusJSObject"
	ElemReasonCategory  = "WUReasonCategoryJSObject"
	ElemLinkDisplay     = "WULinkDisplayJSObject"
	ElemMsgID           = "WUMsgIdJSObject"
	ElemCampaign        = "WUInternalCampaignJSObject"
	ElemIDVerifySuccess = "WUIdVerifySuccessJSObject"
	ElemPrincipal       = "WUPrincipalJSObject"
	ElemDiscountAmount  = "WUDiscountAmountJSObject"
	ElemNCA20           = "nca2.0"

	// Form field values captured by the ingest layer alongside the click.
	ElemPostalCode = "postalCode"
	ElemKYCDocType = "fieldid0"
)

// Analytics object keys.
const (
	KeyPaymentMethod      = "sc_payment_method"
	KeyDeliveryMethod     = "sc_delivery_method"
	KeyTxnType            = "sc_txn_type"
	KeyPlatform           = "sc_platform"
	KeyLoginState         = "sc_login_state"
	KeyPrincipal          = "sc_principal"
	KeyTxnFee             = "sc_txn_fee"
	KeyTransactionID      = "sc_transaction_id"
	KeyQuicksendID        = "sc_quicksend_id"
	KeyVerifyStatus       = "sc_verify_status"
	KeyUserID             = "sc_user_id"
	KeySSOStatus          = "sc_sso_status"
	KeyFireEvent          = "sc_fire_event"
	KeyFPComplete         = "sc_fp_complete"
	KeyLetterSent         = "sc_letter_sent"
	KeyError              = "sc_error"
	KeyThirdPartyOptIn    = "sc_3rdPartyDataOptin"
	KeyLoginSuccess       = "sc_loginsuccess"
	KeyRegisterSuccess    = "sc_registersuccess"
	KeyAccountActivation  = "sc_accountactivation"
	KeyFPStep1            = "sc_fpstep1"
	KeyFPStep3            = "sc_fpstep3"
	KeyFPStep4            = "sc_fpstep4"
	KeyFPSuccess          = "sc_fpsuccess"
	KeyPageName           = "sc_page_name"
	KeyLinkName           = "sc_link_name"
	KeyABTesting          = "sc_ab_testing"
	KeySection            = "sc_section"
	KeySubSection         = "sc_sub_section"
	KeyVerificationFailed = "sc_id_verification_failed"
	KeyOnlineVerify       = "sc_online_verify"
	KeyUserVerify         = "sc_user_verify"
)
