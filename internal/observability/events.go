package observability

import "time"

// EventEnvelope is the wire shape of operational events published to the
// side channel (websocket lifecycle, connection errors).
type EventEnvelope struct {
	EventType  string      `json:"event_type"`
	EventName  string      `json:"event_name"`
	Source     string      `json:"source"`
	OccurredAt string      `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewEnvelope stamps an envelope with the service source and current time.
func NewEnvelope(eventType, eventName string, payload interface{}) EventEnvelope {
	return EventEnvelope{
		EventType:  eventType,
		EventName:  eventName,
		Source:     "arcade-chat",
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}
}

// BuildHeaders carries request correlation ids into AMQP message headers.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
