package audit

import "context"

// Emitter emits audit events (e.g. to Kafka). Best-effort; callers log and ignore errors.
type Emitter interface {
	Emit(ctx context.Context, event *Event) error
}
