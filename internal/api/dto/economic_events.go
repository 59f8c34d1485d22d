package dto

import "encoding/json"

type EconomicEventsQuery struct {
	From    string `query:"from"`
	To      string `query:"to"`
	Country string `query:"country"`
	Limit   int    `query:"limit"`
	Offset  int    `query:"offset"`
}

type EconomicEventsResponse struct {
	OK    bool            `json:"ok"`
	Count int             `json:"count"`
	Data  json.RawMessage `json:"data" swaggertype:"array,object"`
}

// UpstreamErrorResponse is the body returned when the proxy or translation endpoint fails.
// Error is either a message or the upstream JSON body.
type UpstreamErrorResponse struct {
	OK    bool        `json:"ok"`
	Error interface{} `json:"error"`
}
