package v1

import "time"

// Envelope is the canonical, versioned event envelope for cross-runtime use.
// This package is generated-contract-only and must stay backward compatible.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceService  string    `json:"source_service"`
	OccurredAt     time.Time `json:"occurred_at"`
	PartitionKey   string    `json:"partition_key"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	PayloadVersion int       `json:"payload_version"`
	Payload        any       `json:"payload"`
}
