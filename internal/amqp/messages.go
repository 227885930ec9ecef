package amqp

import (
	"encoding/json"
	"time"
)

// Mutation actions carried on the events queue.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// MutationMessage is a lightweight change notification: which owner's
// collection changed and how. The backup worker fetches the current
// state from the store, so the message carries no record payload.
type MutationMessage struct {
	Owner      string    `json:"owner"`
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	RecordID   int64     `json:"record_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewMutationMessage(owner, collection, action string, recordID int64) *MutationMessage {
	return &MutationMessage{
		Owner:      owner,
		Collection: collection,
		Action:     action,
		RecordID:   recordID,
		Timestamp:  time.Now(),
	}
}

func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
