package correlate

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"masklink/backend/hostmask"
	"masklink/backend/storage"
)

// Searcher is the store-side collaborator: one fingerprint pattern in, the
// matching sender records out.
type Searcher interface {
	Search(ctx context.Context, pattern string) ([]storage.Sender, error)
}

// Engine expands a seed mask to the fixpoint of linked identities. Each
// iteration queries the store once per distinct frontier value; only records
// inserted for the first time reseed the next iteration's frontiers, which
// is what guarantees termination over a fixed universe of senders.
type Engine struct {
	store Searcher
	log   *logrus.Logger

	mu       sync.RWMutex
	defaults DefaultOptions
	runMu    sync.Mutex
}

func NewEngine(store Searcher, log *logrus.Logger, defaults DefaultOptions) *Engine {
	return &Engine{store: store, log: log, defaults: defaults}
}

// UpdateDefaults atomically replaces the engine default options.
func (e *Engine) UpdateDefaults(next DefaultOptions) {
	e.mu.Lock()
	e.defaults = next
	e.mu.Unlock()
}

// Defaults returns a snapshot of the current default options.
func (e *Engine) Defaults() DefaultOptions {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaults
}

// discoveries collects the records inserted for the first time during one
// iteration, across all three frontier categories.
type discoveries struct {
	mu      sync.Mutex
	senders []storage.Sender
}

func (d *discoveries) add(s storage.Sender) {
	d.mu.Lock()
	d.senders = append(d.senders, s)
	d.mu.Unlock()
}

func (d *discoveries) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.senders)
}

type queryTask struct {
	term hostmask.Term
	sink *discoveries
}

// Run executes one correlation run and returns the deduplicated sender set.
// Per-query failures are absorbed; the returned error is non-nil only when
// the context ended before the run could finish, and the partial result set
// is still returned alongside it. Progress snapshots are published on the
// optional progress channel.
func (e *Engine) Run(ctx context.Context, params Params, progress chan<- Progress) ([]storage.Sender, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	params = params.WithDefaults(e.Defaults())
	seed := params.Seed.WithSubnet(params.Subnet)
	e.log.WithFields(logrus.Fields{
		"seed":   seed.String(),
		"depth":  params.Depth,
		"subnet": params.Subnet,
		"idents": params.FollowIdents,
	}).Info("starting correlation")

	nicks := map[hostmask.Nick]struct{}{seed.Nick: {}}
	idents := make(map[hostmask.Ident]struct{})
	if params.FollowIdents {
		idents[seed.Ident] = struct{}{}
	}
	hosts := map[string]hostmask.Host{seed.Host.Raw: seed.Host}

	visited := NewVisitedSet()
	reporter := newProgressReporter(ctx, progress)
	defer reporter.Close()
	limiter := newTokenBucket(params.MaxQPS)

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(params.Concurrency, func(item interface{}) {
		task := item.(queryTask)
		defer wg.Done()
		if err := limiter.wait(ctx); err != nil {
			return
		}

		pattern := task.term.Fingerprint()
		e.log.WithField(task.term.Kind.String(), task.term.Text()).Infof("query: %s", pattern)
		if r, ok := task.term.Host.SubnetRange(); ok {
			e.log.Debugf("host %s generalizes to %s", task.term.Host.Raw, r)
		}
		reporter.Query(1)
		found, err := e.store.Search(ctx, pattern)
		if err != nil {
			reporter.Failed(1)
			e.log.WithError(err).Warnf("query %q failed; skipping", pattern)
			return
		}
		for _, sender := range found {
			sender.Mask = sender.Mask.WithSubnet(params.Subnet)
			if !visited.Insert(sender) {
				reporter.Duplicate(1)
				continue
			}
			reporter.Discovered(1)
			task.sink.add(sender)
		}
	})
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	for i := 0; i < params.Depth; i++ {
		if len(nicks) == 0 && len(idents) == 0 && len(hosts) == 0 {
			e.log.Info("no new query terms found; ending")
			break
		}
		if ctx.Err() != nil {
			break
		}
		reporter.Iteration(i)
		e.log.Debugf("starting iteration %d; %d nicks, %d idents, %d hosts",
			i, len(nicks), len(idents), len(hosts))

		sink := &discoveries{}
		runCategory := func(name string, terms []hostmask.Term) {
			before := sink.count()
			for _, term := range terms {
				wg.Add(1)
				if err := pool.Invoke(queryTask{term: term, sink: sink}); err != nil {
					wg.Done()
					e.log.WithError(err).Warnf("dispatching %s query failed", name)
				}
			}
			wg.Wait()
			e.log.Debugf("%s queries yielded %d new senders", name, sink.count()-before)
		}

		terms := make([]hostmask.Term, 0, len(nicks))
		for n := range nicks {
			terms = append(terms, hostmask.NickTerm(n))
		}
		runCategory("nick", terms)

		if params.FollowIdents {
			terms = terms[:0]
			for id := range idents {
				terms = append(terms, hostmask.IdentTerm(id))
			}
			runCategory("ident", terms)
		}

		terms = terms[:0]
		for _, h := range hosts {
			terms = append(terms, hostmask.HostTerm(h))
		}
		runCategory("host", terms)

		nicks = make(map[hostmask.Nick]struct{})
		idents = make(map[hostmask.Ident]struct{})
		hosts = make(map[string]hostmask.Host)
		for _, sender := range sink.senders {
			nicks[sender.Mask.Nick] = struct{}{}
			if params.FollowIdents {
				idents[sender.Mask.Ident] = struct{}{}
			}
			hosts[sender.Mask.Host.Raw] = sender.Mask.Host
		}
		e.log.Debugf("iteration %d discovered %d new senders; %d total",
			i, len(sink.senders), visited.Len())
	}

	if err := ctx.Err(); err != nil {
		e.log.WithError(err).Warn("correlation cancelled")
		return visited.Senders(), err
	}
	e.log.Infof("correlation complete; %d senders", visited.Len())
	return visited.Senders(), nil
}
