package cel

// MatchExpressionExamples documents the expression shapes the admin API
// accepts for custom tagging rules.
var MatchExpressionExamples = map[string]string{
	"page_exact":          `page_name == "us:en:website:send-money:start"`,
	"page_contains":       `page_name.contains("send-money:review")`,
	"page_event_exact":    `page_name_event == "update-delivery-method:start"`,
	"country_gate":        `country == "es" && page_name.contains("doctransfer")`,
	"approved_txn":        `txn_status == "approved"`,
	"link_click":          `link_name == "btn-login"`,
	"link_prefix":         `link_name.startsWith("canceltxn-")`,
	"analytics_field":     `analytics.sc_login_state == "loggedin"`,
	"has_analytics_field": `has(analytics.sc_quicksend_id) && analytics.sc_quicksend_id != ""`,
	"data_element":        `data_elements["WUPageTypeJSObject"] == "responsive"`,
	"query_param":         `query_params["partnerName"] != ""`,
	"combined":            `country != "us" && page_name.contains("send-money:start") && analytics.sc_principal != ""`,
}
