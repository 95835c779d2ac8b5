package billing

import "encoding/json"

// Event is the inbound webhook envelope describing one state change in the
// billing provider.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the provider's full object payload for the event.
type EventData struct {
	Object json.RawMessage `json:"object"`
}

// Result reasons for non-processed outcomes.
const (
	ReasonAlreadyProcessed = "already_processed"
	ReasonIgnored          = "ignored"
)

// EventResult is the structured webhook response. Any outcome that was at
// least ledger-gated answers 200 with this shape so the provider can make its
// retry decision.
type EventResult struct {
	Received  bool   `json:"received"`
	Processed bool   `json:"processed"`
	EventType string `json:"event_type"`
	EventID   string `json:"event_id"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SyncSummary reports one bulk-sync run.
type SyncSummary struct {
	Products      int      `json:"products"`
	Prices        int      `json:"prices"`
	Customers     int      `json:"customers"`
	Subscriptions int      `json:"subscriptions"`
	Errors        []string `json:"errors,omitempty"`
}
