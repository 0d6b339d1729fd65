package store

import "time"

// EventKind names a store mutation.
type EventKind string

const (
	LogCreated      EventKind = "log_created"
	LogUpdated      EventKind = "log_updated"
	LogDeleted      EventKind = "log_deleted"
	DraftCreated    EventKind = "draft_created"
	DraftUpdated    EventKind = "draft_updated"
	DraftSaved      EventKind = "draft_saved"
	DraftDeleted    EventKind = "draft_deleted"
	DraftsCleared   EventKind = "drafts_cleared"
	CurrentDraftSet EventKind = "current_draft_set"
	FormDataSet     EventKind = "form_data_set"
	FormDataCleared EventKind = "form_data_cleared"
)

// Event describes one applied mutation together with the collection sizes
// right after it. Seq numbers mutations from 1 in the order they were applied.
type Event struct {
	Seq    uint64    `json:"seq"`
	Kind   EventKind `json:"kind"`
	ID     string    `json:"id,omitempty"`
	Logs   int       `json:"logs"`
	Drafts int       `json:"drafts"`
	At     time.Time `json:"at"`
}

// Listener observes store mutations. HandleEvent is called after the store lock
// is released, one event at a time in Seq order. It may read the store but must
// not mutate it, and must not block for long.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) HandleEvent(e Event) { f(e) }
