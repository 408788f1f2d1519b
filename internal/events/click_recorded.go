package events

// ClickRecorded is emitted when a redirect is dispatched for a short key.
type ClickRecorded struct {
	EventID    string `json:"eventId"`
	Key        string `json:"key"`
	OccurredAt string `json:"occurredAt"`
}
