package services

import (
	"sync"

	"alfredoptarigan/creative-evaluator/internal/models"
)

type RoleStatus string

const (
	RoleQueued     RoleStatus = "queued"
	RoleProcessing RoleStatus = "processing"
	RoleComplete   RoleStatus = "complete"
)

const (
	noteBuildingFramework = "Building evaluation framework..."
	noteQueryingModel     = "Querying specialist LLM..."
	noteParsingResponse   = "Parsing specialist response..."
)

// ProgressEvent reports one step of a role's lifecycle. Evaluation is set only
// on RoleComplete.
type ProgressEvent struct {
	RoleID     int                    `json:"role_id"`
	RoleName   string                 `json:"role"`
	Status     RoleStatus             `json:"status"`
	Note       string                 `json:"note,omitempty"`
	Evaluation *models.RoleEvaluation `json:"evaluation,omitempty"`
}

// ProgressSink observes a run. It is called from a single goroutine, never
// concurrently, and in no guaranteed order across roles.
type ProgressSink func(ProgressEvent)

const progressBuffer = 64

// progressNotifier decouples role tasks from a slow sink. Events that do not fit
// in the buffer are dropped.
type progressNotifier struct {
	events chan ProgressEvent
	done   chan struct{}
	once   sync.Once
}

func newProgressNotifier(sink ProgressSink) *progressNotifier {
	if sink == nil {
		return nil
	}
	n := &progressNotifier{
		events: make(chan ProgressEvent, progressBuffer),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(n.done)
		for ev := range n.events {
			sink(ev)
		}
	}()
	return n
}

func (n *progressNotifier) notify(ev ProgressEvent) {
	if n == nil {
		return
	}
	select {
	case n.events <- ev:
	default:
	}
}

// Close flushes buffered events and waits for the sink to drain them. Callers
// must not notify after Close.
func (n *progressNotifier) Close() {
	if n == nil {
		return
	}
	n.once.Do(func() { close(n.events) })
	<-n.done
}
