package notify

// Event is a database change-event payload as delivered by the data store's
// insert trigger. ServiceCredential is populated from the transport layer,
// never from the event body.
type Event struct {
	Type   string `json:"type"`
	Table  string `json:"table"`
	Schema string `json:"schema"`
	Record Record `json:"record"`

	ServiceCredential string `json:"-"`
}

// Record is the inserted notification row carried inside the event.
type Record struct {
	ID          string  `json:"id"`
	RecipientID string  `json:"recipient_id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	RelatedID   *string `json:"related_id,omitempty"`
	RelatedType *string `json:"related_type,omitempty"`
}

type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
)

// Result is the dispatch outcome. Skipped is a deliberate no-op, not a
// failure; the notification row already exists regardless.
type Result struct {
	Status  Status `json:"status"`
	Reason  string `json:"reason,omitempty"`
	EmailID string `json:"emailId,omitempty"`
}

func skipped(reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason}
}
