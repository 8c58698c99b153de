package constants

import "time"

const (
	EventTypePageView  = "web.webpagedetails.pageViews"
	EventTypeLinkClick = "web.webInteraction.linkClicks"
)

const (
	DefaultSiteSection     = "web"
	DefaultInteractionName = "page_interaction"
	DefaultLinkClickName   = "link_click"
)

const (
	// Link-click sends are held back so the collector never orders a click
	// before the page view it happened on.
	LinkClickDelayWindow = 500 * time.Millisecond
	LinkClickDelayFloor  = 200 * time.Millisecond
)

const (
	ReadyMaxAttempts  = 10
	ReadyPollInterval = 100 * time.Millisecond

	PageViewRetryDelay    = 500 * time.Millisecond
	NavigationRetrackWait = 150 * time.Millisecond
	MinNavigationInterval = 500 * time.Millisecond
	MinPageViewInterval   = 1000 * time.Millisecond
	PageNamePollInterval  = 250 * time.Millisecond

	LinkDedupeWindow  = 1000 * time.Millisecond
	LinkClickThrottle = 500 * time.Millisecond
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
)

const (
	FunnelKeySendMoneyStart  = "SM_Start_Cookie"
	FunnelKeyBillPayStart    = "BillPay_Start_Cookie"
	FunnelKeySendInmateStart = "SendInmate_Start_Cookie"
	FunnelKeyNewUser         = "NewUserCookie"
	FunnelKeyPartner         = "hsfp_partner"
	FunnelKeyUniqueRefNum    = "uniRefNumCookie"
	FunnelKeyCancelChannel   = "cancelTransferMTChannel"
	FunnelKeyLetterSent      = "EUID_VERIFY_LETTER_SENT"
	FunnelKeyResetPassword   = "RESET_PASSWORD_COOKIE"
	FunnelKeyMyWUOptIn       = "mywuoptin"
	FunnelKeyLastTxnStamp    = "lastTransactionDatestamp"
	FunnelKeyRegisterSuccess = "register_success_event"
	FunnelKeySubSection      = "sc_sub_section"

	NewUserTTL      = 24 * time.Hour
	LastTxnStampTTL = 365 * 24 * time.Hour
)

const (
	FallbackSkip  = "skip"
	FallbackAbort = "abort"
)

const (
	TransportHTTP  = "http"
	TransportKafka = "kafka"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLimit       = 100
	MaxLimit           = 1000
	DefaultTruncateLen = 100
)

const (
	DefaultArchiveDBName     = "beacon"
	DefaultArchiveCollection = "sent_events"
)
