package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/steveyegge/bizzy/internal/engine"
)

// Handler turns engine outcomes into broadcast events. The watch loop calls
// it around each sync run; per-issue outcomes arrive through the engine's
// OnOutcome hook.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates a handler bound to an event server.
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// OnSyncStarted announces a sync batch.
func (h *Handler) OnSyncStarted(includeClosed, dryRun bool) {
	h.emit(EventSyncStarted, SyncStartedData{IncludeClosed: includeClosed, DryRun: dryRun})
}

// OnOutcome forwards one issue's outcome. Wire it to engine.Config.OnOutcome.
func (h *Handler) OnOutcome(outcome engine.Outcome) {
	var eventType EventType
	switch outcome.Action {
	case engine.ActionCreated:
		eventType = EventCardCreated
	case engine.ActionUpdated:
		eventType = EventCardUpdated
	case engine.ActionSkipped:
		eventType = EventCardSkipped
	case engine.ActionError:
		eventType = EventSyncError
	default:
		return
	}
	h.emit(eventType, outcome)
}

// OnSyncComplete announces the end of a batch with its tallies.
func (h *Handler) OnSyncComplete(result *engine.Result, duration time.Duration) {
	h.emit(EventSyncComplete, SyncCompleteData{
		Created:  result.Created,
		Updated:  result.Updated,
		Skipped:  result.Skipped,
		Errors:   len(result.Errors),
		Duration: duration,
	})
}

func (h *Handler) emit(eventType EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("Failed to marshal %s payload: %v", eventType, err)
		return
	}
	h.server.Broadcast(Event{Type: eventType, Timestamp: time.Now(), Data: data})
}
