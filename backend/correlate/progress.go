package correlate

import (
	"context"
	"time"
)

// Progress is a rolling snapshot of one correlation run.
type Progress struct {
	Iteration  int       `json:"iteration"`
	Queries    int       `json:"queries"`
	Failed     int       `json:"failed"`
	Discovered int       `json:"discovered"`
	Duplicates int       `json:"duplicates"`
	Total      int       `json:"total"`
	Timestamp  time.Time `json:"timestamp"`
}

type progressEvent struct {
	kind  string
	count int
}

type progressReporter struct {
	ch   chan progressEvent
	out  chan<- Progress
	ctx  context.Context
	done chan struct{}
}

// newProgressReporter serializes counter updates from the query workers and
// publishes coalesced snapshots. A nil out channel disables publishing but
// keeps the counter plumbing alive.
func newProgressReporter(ctx context.Context, out chan<- Progress) *progressReporter {
	reporter := &progressReporter{
		ch:   make(chan progressEvent, 128),
		out:  out,
		ctx:  ctx,
		done: make(chan struct{}),
	}
	go reporter.loop()
	return reporter
}

func (r *progressReporter) loop() {
	defer close(r.done)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var snapshot Progress
	pending := false

	flush := func() {
		if !pending || r.out == nil {
			pending = false
			return
		}
		snapshot.Timestamp = time.Now()
		snapshot.Total = snapshot.Discovered
		select {
		case r.out <- snapshot:
		case <-r.ctx.Done():
		}
		pending = false
	}

	for {
		select {
		case <-r.ctx.Done():
			flush()
			return
		case ev, ok := <-r.ch:
			if !ok {
				flush()
				return
			}
			switch ev.kind {
			case "iteration":
				snapshot.Iteration = ev.count
			case "query":
				snapshot.Queries += ev.count
			case "failed":
				snapshot.Failed += ev.count
			case "discovered":
				snapshot.Discovered += ev.count
			case "duplicate":
				snapshot.Duplicates += ev.count
			}
			pending = true
		case <-ticker.C:
			flush()
		}
	}
}

func (r *progressReporter) Iteration(n int) {
	r.send(progressEvent{kind: "iteration", count: n})
}

func (r *progressReporter) Query(n int) {
	r.send(progressEvent{kind: "query", count: n})
}

func (r *progressReporter) Failed(n int) {
	r.send(progressEvent{kind: "failed", count: n})
}

func (r *progressReporter) Discovered(n int) {
	r.send(progressEvent{kind: "discovered", count: n})
}

func (r *progressReporter) Duplicate(n int) {
	r.send(progressEvent{kind: "duplicate", count: n})
}

func (r *progressReporter) send(ev progressEvent) {
	select {
	case r.ch <- ev:
	case <-r.ctx.Done():
	}
}

func (r *progressReporter) Close() {
	close(r.ch)
	<-r.done
}
