package publishers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Event reports the outcome of one harness scenario.
type Event struct {
	RunID      string    `json:"run_id"`
	Scenario   string    `json:"scenario"`
	Passed     bool      `json:"passed"`
	Error      string    `json:"error,omitempty"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	BaseURL    string    `json:"base_url"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewEvent constructs an Event for a scenario that ran from started for elapsed.
func NewEvent(runID, baseURL, scenario string, started time.Time, elapsed time.Duration, err error) Event {
	evt := Event{
		RunID:      runID,
		Scenario:   scenario,
		Passed:     err == nil,
		ElapsedMs:  elapsed.Milliseconds(),
		BaseURL:    baseURL,
		StartedAt:  started.UTC(),
		FinishedAt: started.Add(elapsed).UTC(),
	}
	if err != nil {
		evt.Error = err.Error()
	}
	return evt
}

// attributes are the routing attributes attached to queue/topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"run_id":   e.RunID,
		"scenario": e.Scenario,
		"passed":   strconv.FormatBool(e.Passed),
	}
}

func encodeEvent(evt Event) (string, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(payload), nil
}

func logDelivery(log Logger, typ, id, messageID string) {
	log.DebugObj(typ+" publisher delivered event", "publisher_delivery", map[string]any{
		"publisher_id": id,
		"message_id":   messageID,
	})
}

func logDeliveryFailure(log Logger, typ, id string, evt Event, err error) {
	log.ErrorObj(typ+" publisher send failed", "publisher_error", map[string]any{
		"publisher_id": id,
		"scenario":     evt.Scenario,
		"error":        err.Error(),
	})
}
