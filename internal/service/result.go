package service

import "github.com/d60-Lab/notify-fanout/internal/model"

// Outcome of one (event, recipient) task.
type Outcome int

const (
	OutcomeWritten Outcome = iota + 1
	OutcomeUpdated
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Reason explains a skip. Skips are expected outcomes, never errors.
type Reason string

const (
	ReasonNoCandidates     Reason = "no_candidates"
	ReasonNoRecipients     Reason = "no_recipients"
	ReasonMuted            Reason = "muted"
	ReasonAlreadyNotified  Reason = "already_notified"
	ReasonUnsupportedEvent Reason = "unsupported_event"
	ReasonInvalidPayload   Reason = "invalid_payload"
	ReasonNotFound         Reason = "not_found"
	ReasonNotOwner         Reason = "not_owner"
	ReasonNotUpgrade       Reason = "not_upgrade"
)

// TaskResult is the result of delivering one event to one recipient.
type TaskResult struct {
	UserID      string
	Outcome     Outcome
	Reason      Reason
	Err         error
	EmailQueued bool
}

func written(userID string) TaskResult { return TaskResult{UserID: userID, Outcome: OutcomeWritten} }

func updated(userID string) TaskResult { return TaskResult{UserID: userID, Outcome: OutcomeUpdated} }

func skipped(userID string, reason Reason) TaskResult {
	return TaskResult{UserID: userID, Outcome: OutcomeSkipped, Reason: reason}
}

func failed(userID string, err error) TaskResult {
	return TaskResult{UserID: userID, Outcome: OutcomeFailed, Err: err}
}

// Status is the terminal state of one dispatch.
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result summarises one dispatch. Status is failed when any task failed,
// written when at least one row was inserted or updated, skipped otherwise.
type Result struct {
	EventID      int64           `json:"event_id"`
	EventType    model.EventType `json:"event_type"`
	Status       Status          `json:"status"`
	Reason       Reason          `json:"reason,omitempty"`
	Written      int             `json:"written"`
	Updated      int             `json:"updated"`
	Skipped      int             `json:"skipped"`
	Failed       int             `json:"failed"`
	EmailsQueued int             `json:"emails_queued"`
	Tasks        []TaskResult    `json:"-"`
	Err          error           `json:"-"`
}

func newResult(ev *model.DomainEvent) *Result {
	return &Result{EventID: ev.ID, EventType: ev.EventType}
}

func (r *Result) add(t TaskResult) {
	r.Tasks = append(r.Tasks, t)
	switch t.Outcome {
	case OutcomeWritten:
		r.Written++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
		if r.Err == nil {
			r.Err = t.Err
		}
	}
	if t.EmailQueued {
		r.EmailsQueued++
	}
}

// skip ends the dispatch before any task ran.
func (r *Result) skip(reason Reason) *Result {
	r.Reason = reason
	return r
}

// fail ends the dispatch on an event-level store error.
func (r *Result) fail(err error) *Result {
	r.Failed++
	r.Err = err
	return r
}

func (r *Result) finish() {
	switch {
	case r.Failed > 0:
		r.Status = StatusFailed
	case r.Written+r.Updated > 0:
		r.Status = StatusWritten
	default:
		r.Status = StatusSkipped
		if r.Reason == "" {
			r.Reason = r.firstSkipReason()
		}
	}
}

func (r *Result) firstSkipReason() Reason {
	for _, t := range r.Tasks {
		if t.Outcome == OutcomeSkipped {
			return t.Reason
		}
	}
	return ReasonNoRecipients
}
