package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ReportRequestMessage asks the worker to render and store a report for one owner.
// Clusters and Seed of zero mean "use the worker's defaults".
type ReportRequestMessage struct {
	Owner       string    `json:"owner"`
	Format      string    `json:"format"`
	Clusters    int       `json:"clusters,omitempty"`
	Seed        int64     `json:"seed,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewReportRequestMessage creates a request stamped with the current time.
func NewReportRequestMessage(owner, format string, clusters int, seed int64) *ReportRequestMessage {
	return &ReportRequestMessage{
		Owner:       owner,
		Format:      format,
		Clusters:    clusters,
		Seed:        seed,
		RequestedAt: time.Now().UTC(),
	}
}

// Validate rejects messages that cannot be processed.
func (m *ReportRequestMessage) Validate() error {
	if m.Owner == "" {
		return errors.New("report request: owner is required")
	}
	if m.Format == "" {
		return errors.New("report request: format is required")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestMessageFromJSON decodes and validates a message.
func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
