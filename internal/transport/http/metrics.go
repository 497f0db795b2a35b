package httptransport

import "expvar"

var (
	metricActionSubmitTotal  = expvar.NewInt("action_submit_total")
	metricActionSubmitErrors = expvar.NewInt("action_submit_errors_total")

	metricSSEConnectionsTotal  = expvar.NewInt("table_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("table_sse_connections_active")

	metricLogQueryTotal  = expvar.NewInt("hand_log_query_total")
	metricLogQueryErrors = expvar.NewInt("hand_log_query_errors_total")
)
