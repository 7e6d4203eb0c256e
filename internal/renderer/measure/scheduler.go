package measure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/tessera/internal/renderer/decoration"
)

// DefaultConcurrency bounds MeasureAll when no concurrency is configured.
const DefaultConcurrency = 4

// Ticket identifies one outstanding measurement.
type Ticket string

// Request describes a block waiting to be measured.
type Request struct {
	Ticket     Ticket
	Decoration decoration.ID
	Item       any     // the block's payload
	Width      float64 // available width, 0 when unconstrained
}

// Result is a resolved measurement.
type Result struct {
	Ticket     Ticket
	Decoration decoration.ID
	Width      float64
	Height     float64
}

// Measurer measures block content off screen.
type Measurer interface {
	Measure(ctx context.Context, req Request) (width, height float64, err error)
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(ctx context.Context, req Request) (width, height float64, err error)

// Measure calls f.
func (f MeasurerFunc) Measure(ctx context.Context, req Request) (float64, float64, error) {
	return f(ctx, req)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConcurrency bounds the number of concurrent measurements in
// MeasureAll.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.limit = n
		}
	}
}

// Scheduler tracks outstanding measurement tickets. Request, Cancel and
// Drain belong to the owner goroutine; Resolve may be called from anywhere.
type Scheduler struct {
	logger *slog.Logger
	limit  int

	mu           sync.Mutex
	byTicket     map[Ticket]Request
	byDecoration map[decoration.ID]Ticket
	resolved     []Result
	closed       bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:       slog.New(slog.DiscardHandler),
		limit:        DefaultConcurrency,
		byTicket:     make(map[Ticket]Request),
		byDecoration: make(map[decoration.ID]Ticket),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "measure")
	return s
}

// Request issues a ticket for decoration id, superseding any ticket the
// decoration already had.
func (s *Scheduler) Request(id decoration.ID, item any, width float64) Ticket {
	t := Ticket(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ""
	}
	if old, ok := s.byDecoration[id]; ok {
		delete(s.byTicket, old)
		s.logger.Debug("ticket superseded", "ticket", old, "decoration", id)
	}
	s.dropResolved(id)
	s.byTicket[t] = Request{Ticket: t, Decoration: id, Item: item, Width: width}
	s.byDecoration[id] = t
	return t
}

// Cancel forgets the ticket of decoration id along with any result that
// has not been drained yet.
func (s *Scheduler) Cancel(id decoration.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := s.dropResolved(id)
	t, ok := s.byDecoration[id]
	if !ok {
		return dropped
	}
	delete(s.byDecoration, id)
	delete(s.byTicket, t)
	s.logger.Debug("ticket cancelled", "ticket", t, "decoration", id)
	return true
}

// TicketFor returns the current ticket of decoration id.
func (s *Scheduler) TicketFor(id decoration.ID) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byDecoration[id]
	return t, ok
}

// Pending returns the outstanding requests in decoration order.
func (s *Scheduler) Pending() []Request {
	s.mu.Lock()
	out := make([]Request, 0, len(s.byTicket))
	for _, r := range s.byTicket {
		out = append(out, r)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b Request) int {
		switch {
		case a.Decoration < b.Decoration:
			return -1
		case a.Decoration > b.Decoration:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of outstanding tickets.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byTicket)
}

// Resolve records the measured size for ticket t. It is safe for
// concurrent use. A ticket that was cancelled or superseded yields a
// *RaceError.
func (s *Scheduler) Resolve(t Ticket, width, height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	req, ok := s.byTicket[t]
	if !ok {
		return &RaceError{Ticket: t}
	}
	delete(s.byTicket, t)
	if s.byDecoration[req.Decoration] == t {
		delete(s.byDecoration, req.Decoration)
	}
	s.resolved = append(s.resolved, Result{
		Ticket:     t,
		Decoration: req.Decoration,
		Width:      width,
		Height:     max(height, 0),
	})
	return nil
}

// Drain returns the results resolved since the last call, in resolution
// order.
func (s *Scheduler) Drain() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.resolved
	s.resolved = nil
	return out
}

// MeasureAll measures every outstanding request with m, running at most the
// configured number of measurements at once. Results that lose a race with
// Cancel or Request are dropped. The first measurement error cancels the
// rest.
func (s *Scheduler) MeasureAll(ctx context.Context, m Measurer) error {
	reqs := s.Pending()
	if len(reqs) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			w, h, err := m.Measure(ctx, req)
			if err != nil {
				return fmt.Errorf("measure: decoration %d: %w", req.Decoration, err)
			}
			if err := s.Resolve(req.Ticket, w, h); err != nil {
				var race *RaceError
				if errors.As(err, &race) {
					s.logger.Debug("late measurement dropped", "ticket", req.Ticket, "decoration", req.Decoration)
					return nil
				}
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Close drops every ticket and result. Later calls to Resolve fail with
// ErrClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.byTicket)
	clear(s.byDecoration)
	s.resolved = nil
}

func (s *Scheduler) dropResolved(id decoration.ID) bool {
	n := len(s.resolved)
	s.resolved = slices.DeleteFunc(s.resolved, func(r Result) bool {
		return r.Decoration == id
	})
	return len(s.resolved) != n
}
