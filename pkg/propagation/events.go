package propagation

import "github.com/goliatone/go-dynform/pkg/field"

// EventType names what happened during a cycle.
type EventType string

const (
	// FieldApplied fires after a field received new allowed values.
	FieldApplied EventType = "field_applied"
	// CycleDone fires once every response field has been applied.
	CycleDone EventType = "cycle_done"
	// CycleFailed fires when the constraint query failed.
	CycleFailed EventType = "cycle_failed"
)

// Event describes a step of a cycle. Field and State are set for
// FieldApplied; Err for CycleFailed.
type Event struct {
	Type    EventType
	Cycle   uint64
	Field   string
	State   field.State
	Cleared bool
	Err     error
}

// Listener observes engine events. Listeners run on the goroutine driving the
// cycle and may call back into the engine; such calls are queued.
type Listener func(Event)
