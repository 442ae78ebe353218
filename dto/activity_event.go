package dto

type ActivityEvent struct {
	Event    ActivityEventDetails  `json:"event"`
	Metadata ActivityEventMetadata `json:"metadata"`
}

type ActivityEventDetails struct {
	Id   string                 `json:"id"`
	Name string                 `json:"name"`
	Data map[string]interface{} `json:"data"`
}

type ActivityEventMetadata struct {
	UberTraceId string `json:"uber-trace-id"`
	AppSource   string `json:"appSource"`
	Timestamp   string `json:"timestamp"`
}
