package engine

import (
	"context"

	"github.com/stevehiehn/trinity/internal/action"
)

// Batch is a submitted set of actions running on its own goroutine.
type Batch struct {
	ID      string
	actions []action.Descriptor
	done    chan struct{}
	report  Report
}

// Done is closed once the batch report is available from Report.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Report returns the batch report. It is only meaningful after Done is closed.
func (b *Batch) Report() Report {
	return b.report
}

// Len is the number of actions in the batch.
func (b *Batch) Len() int {
	return len(b.actions)
}

// finish publishes the report and closes Done.
func (b *Batch) finish(r Report) {
	b.report = r
	close(b.done)
}

// Sink receives completed reports. Await calls it from a single goroutine.
type Sink interface {
	Complete(Report)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Report)

func (f SinkFunc) Complete(r Report) { f(r) }

// Await hands each batch report to sink once, in completion order, on the
// calling goroutine. It returns when every batch has reported or ctx is done.
// Cancelling Await leaves the batches running and their reports in place, so
// a later Await still delivers them.
func Await(ctx context.Context, sink Sink, batches ...*Batch) error {
	ready := make(chan *Batch, len(batches))
	for _, b := range batches {
		go func(b *Batch) {
			<-b.Done()
			ready <- b
		}(b)
	}
	for range batches {
		select {
		case b := <-ready:
			sink.Complete(b.Report())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
