package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/plotcraft/backend-go/internal/knowledge"
)

// Action is what the index worker should do with an entity.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// IndexEvent announces that an entity changed and its vector document is stale.
// The event carries ids only; the worker reloads the entity.
type IndexEvent struct {
	Action     Action                 `json:"action"`
	Type       knowledge.DocumentType `json:"type"`
	SourceID   uint                   `json:"source_id"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Key partitions events by document so changes to one entity stay ordered.
func (e IndexEvent) Key() string {
	return knowledge.DocumentID(e.Type, e.SourceID)
}

func (e IndexEvent) Validate() error {
	if e.Action != ActionUpsert && e.Action != ActionDelete {
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("unknown document type %q", e.Type)
	}
	if e.SourceID == 0 {
		return fmt.Errorf("missing source id")
	}
	return nil
}

// ParseIndexEvent decodes and validates a message payload.
func ParseIndexEvent(data []byte) (IndexEvent, error) {
	var ev IndexEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decode index event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return ev, fmt.Errorf("invalid index event: %w", err)
	}
	return ev, nil
}
