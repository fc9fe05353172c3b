package models

// -----------------------------------------------------------------------------
// Streaming Protocol Frames
//
// The venue channel is text-framed. Two control frames are single characters:
// "o" (handshake, must be the first inbound frame) and "h" (heartbeat, sent
// both ways). Everything else is a JSON object tagged by its "event" field.
// -----------------------------------------------------------------------------

const (
	FrameHandshake = "o"
	FrameHeartbeat = "h"

	EventAuthorize      = "authorize"
	EventHistoricalReq  = "getHistoricalData"
	EventHistoricalData = "historicalData"
)

// MAuthorizeRequest carries the bearer token plus the market-data
// capability flag.
type MAuthorizeRequest struct {
	Event string `json:"event"`
	Token string `json:"token"`
	Md    bool   `json:"md"`
}

type MAuthorizeResponse struct {
	Event   string `json:"event"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// -----------------------------------------------------------------------------

// MChartDescriptor describes the requested bar shape.
type MChartDescriptor struct {
	UnderlyingType  string `json:"underlyingType"`
	ElementSize     int    `json:"elementSize"`
	ElementSizeUnit string `json:"elementSizeUnit"`
}

// MHistoricalRequest asks for a bar series. ID is the correlation id echoed
// back by every response frame belonging to this request.
type MHistoricalRequest struct {
	Event    string           `json:"event"`
	Symbol   string           `json:"symbol"`
	Maturity string           `json:"maturity,omitempty"`
	Chart    MChartDescriptor `json:"chart"`
	ID       int64            `json:"id"`
}

// MHistoricalResponse is one accumulation frame. Completed marks the final
// frame of the series; Error fails the request regardless of partial data.
type MHistoricalResponse struct {
	Event     string    `json:"event"`
	ID        int64     `json:"id"`
	D         []MBarRaw `json:"d"`
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
}

// -----------------------------------------------------------------------------

// MEventEnvelope is the minimal decode used to route a JSON frame before the
// full typed unmarshal.
type MEventEnvelope struct {
	Event string `json:"event"`
}
