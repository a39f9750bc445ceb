package pool

import "github.com/sergioguerreroblanco-oss/worker-cola-multithread/pkg/logger"

// Action receives worker lifecycle events. It is a capability injected at
// construction through Config.Action; the pool calls it synchronously from
// worker goroutines, so implementations must be safe for concurrent use and
// should not block.
type Action interface {
	// TaskDone is called after a task completes normally.
	TaskDone(worker string)
	// TaskFailed is called after a task panics; err wraps the panic value.
	TaskFailed(worker string, err error)
	// WorkerStopped is called once per worker, just before its loop exits.
	WorkerStopped(worker string)
}

// NopAction ignores every event. It is the default.
type NopAction struct{}

func (NopAction) TaskDone(string)          {}
func (NopAction) TaskFailed(string, error) {}
func (NopAction) WorkerStopped(string)     {}

// LogAction reports every event through a logger.
type LogAction struct {
	log *logger.Logger
}

// NewLogAction creates a LogAction writing to l, or logger.Default when l is
// nil.
func NewLogAction(l *logger.Logger) *LogAction {
	if l == nil {
		l = logger.Default
	}
	return &LogAction{log: l}
}

func (a *LogAction) TaskDone(worker string) {
	a.log.Info("[%s] task completed", worker)
}

func (a *LogAction) TaskFailed(worker string, err error) {
	a.log.Error("[%s] task failed: %v", worker, err)
}

func (a *LogAction) WorkerStopped(worker string) {
	a.log.Info("[%s] finished", worker)
}
