package metrics

const (
	ControllerEvalSecondsH = "The time spent evaluating the fuzzy inference system"
	ControllerEvalSecondsN = "fanservice_controller_eval_seconds"
	ControllerReqsH        = "The total number of temperatures processed, by processing mode"
	ControllerReqsN        = "fanservice_controller_reqs"

	ServerCacheHitsH  = "The total number of responses served from the result cache"
	ServerCacheHitsN  = "fanservice_server_cache_hits"
	ServerReqsFailedH = "The total number of requests rejected as malformed"
	ServerReqsFailedN = "fanservice_server_reqs_failed"
	ServerReqsServedH = "The total number of requests served, by endpoint"
	ServerReqsServedN = "fanservice_server_reqs_served"
)
