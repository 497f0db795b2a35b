package beat

import (
	"context"
	"sync"

	"pokerbeat/internal/poker"
	"pokerbeat/internal/queue"

	"github.com/rs/zerolog/log"
)

// Supervisor guarantees at most one worker per table and restarts workers
// that exited on idle when the next action arrives.
type Supervisor struct {
	ctx  context.Context
	cfg  Config
	deps Deps

	mu      sync.Mutex
	workers map[string]*Worker
	wg      sync.WaitGroup
}

func NewSupervisor(ctx context.Context, cfg Config, deps Deps) *Supervisor {
	return &Supervisor{ctx: ctx, cfg: cfg, deps: deps, workers: map[string]*Worker{}}
}

// EnsureRunning starts a worker for tableID unless one is alive. It reports
// whether a new worker was started.
func (s *Supervisor) EnsureRunning(tableID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.workers[tableID]; ok {
		w.woken = true
		return false
	}
	if s.ctx.Err() != nil {
		return false
	}
	w := NewWorker(tableID, s.cfg, s.deps)
	w.retire = func() bool { return s.retire(tableID, w) }
	s.workers[tableID] = w
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := w.Run(s.ctx); err != nil {
			log.Error().Err(err).Str("table_id", tableID).Msg("table worker stopped")
		}
		s.mu.Lock()
		if s.workers[tableID] == w {
			delete(s.workers, tableID)
		}
		s.mu.Unlock()
	}()
	return true
}

// retire unregisters w if its queue is empty. An Enqueue that lands after
// the peek marks w woken before unregistering, so either the worker stays
// or the Enqueue starts a new one. The peek runs outside the lock.
func (s *Supervisor) retire(tableID string, w *Worker) bool {
	s.mu.Lock()
	w.woken = false
	s.mu.Unlock()

	e, err := s.deps.Queue.Peek(s.ctx, tableID, 0)
	if err != nil || e != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w.woken {
		return false
	}
	if s.workers[tableID] == w {
		delete(s.workers, tableID)
	}
	return true
}

// Enqueue pushes an action for tableID and makes sure someone will run it.
func (s *Supervisor) Enqueue(ctx context.Context, tableID string, a poker.Action) (queue.Entry, error) {
	e, err := s.deps.Queue.Push(ctx, tableID, a)
	if err != nil {
		return queue.Entry{}, err
	}
	s.EnsureRunning(tableID)
	return e, nil
}

func (s *Supervisor) Running(tableID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.workers[tableID]
	return ok
}

// Wait blocks until every worker has exited. Cancel the supervisor's
// context first.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
