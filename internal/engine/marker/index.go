package marker

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/event"
)

type entry struct {
	m         Marker
	changed   event.Emitter[MarkerEvent]
	destroyed event.Emitter[ID]
}

// Index owns every marker of one buffer.
type Index struct {
	buf     *buffer.Buffer
	markers map[ID]*entry
	nextID  ID
	sub     *event.Subscription
	logger  *slog.Logger
	dead    bool

	changed   event.Emitter[MarkerEvent]
	created   event.Emitter[ID]
	destroyed event.Emitter[ID]
}

// NewIndex creates an index over buf and subscribes to its changes ahead of
// every other subscriber.
func NewIndex(buf *buffer.Buffer, opts ...IndexOption) *Index {
	idx := &Index{
		buf:     buf,
		markers: make(map[ID]*entry),
		nextID:  1,
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(idx)
	}

	idx.logger = idx.logger.With("component", "marker")
	idx.sub = buf.OnDidChange(idx.Update, event.WithPriority(event.PriorityIndex))
	return idx
}

// Buffer returns the buffer the index tracks.
func (idx *Index) Buffer() *buffer.Buffer {
	return idx.buf
}

// Create adds a range marker.
func (idx *Index) Create(r Range, opts ...Option) (ID, error) {
	if idx.dead {
		return 0, ErrIndexDestroyed
	}
	if err := idx.buf.ValidateRange(r); err != nil {
		return 0, fmt.Errorf("marker: create: %w", err)
	}

	m := Marker{
		ID:    idx.nextID,
		Range: r,
		Valid: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	idx.nextID++

	idx.markers[m.ID] = &entry{m: m}
	idx.created.Emit(m.ID)
	return m.ID, nil
}

// CreatePoint adds an empty marker at p.
func (idx *Index) CreatePoint(p Point, opts ...Option) (ID, error) {
	return idx.Create(buffer.PointRange(p), opts...)
}

// Destroy removes a marker and notifies its destroy subscribers.
func (idx *Index) Destroy(id ID) error {
	e, ok := idx.markers[id]
	if !ok {
		return &InvalidMarkerError{Op: "Destroy", ID: id}
	}
	delete(idx.markers, id)

	e.destroyed.Emit(id)
	e.destroyed.Clear()
	e.changed.Clear()
	idx.destroyed.Emit(id)
	return nil
}

// Get returns a snapshot of a marker.
func (idx *Index) Get(id ID) (Marker, error) {
	e, ok := idx.markers[id]
	if !ok {
		return Marker{}, &InvalidMarkerError{Op: "Get", ID: id}
	}
	return e.m.clone(), nil
}

// Exists reports whether id names a live marker.
func (idx *Index) Exists(id ID) bool {
	_, ok := idx.markers[id]
	return ok
}

// Range returns a marker's current range.
func (idx *Index) Range(id ID) (Range, error) {
	e, ok := idx.markers[id]
	if !ok {
		return Range{}, &InvalidMarkerError{Op: "Range", ID: id}
	}
	return e.m.Range, nil
}

// Head returns a marker's head position.
func (idx *Index) Head(id ID) (Point, error) {
	e, ok := idx.markers[id]
	if !ok {
		return Point{}, &InvalidMarkerError{Op: "Head", ID: id}
	}
	return e.m.Head(), nil
}

// IsValid reports whether the marker exists and has not been invalidated.
func (idx *Index) IsValid(id ID) bool {
	e, ok := idx.markers[id]
	return ok && e.m.Valid
}

// SetRange moves a marker. The marker becomes valid again.
func (idx *Index) SetRange(id ID, r Range) error {
	e, ok := idx.markers[id]
	if !ok {
		return &InvalidMarkerError{Op: "SetRange", ID: id}
	}
	if err := idx.buf.ValidateRange(r); err != nil {
		return fmt.Errorf("marker: set range: %w", err)
	}

	ev := MarkerEvent{
		ID:       id,
		Old:      e.m.Range,
		New:      r,
		WasValid: e.m.Valid,
		IsValid:  true,
	}
	e.m.Range = r
	e.m.Valid = true
	if ev.Old != ev.New || !ev.WasValid {
		idx.notify(e, ev)
	}
	return nil
}

// SetProperties replaces a marker's caller data.
func (idx *Index) SetProperties(id ID, props map[string]any) error {
	e, ok := idx.markers[id]
	if !ok {
		return &InvalidMarkerError{Op: "SetProperties", ID: id}
	}
	e.m.Properties = props
	return nil
}

// Len returns the number of live markers.
func (idx *Index) Len() int {
	return len(idx.markers)
}

// Find returns snapshots of the markers accepted by filter, ordered by start
// position then id. A nil filter accepts every marker.
func (idx *Index) Find(filter func(Marker) bool) []Marker {
	var out []Marker
	for _, e := range idx.markers {
		if filter == nil || filter(e.m) {
			out = append(out, e.m.clone())
		}
	}
	sortMarkers(out)
	return out
}

// FindIntersecting returns markers that intersect r, counting touching
// endpoints.
func (idx *Index) FindIntersecting(r Range) []Marker {
	return idx.Find(func(m Marker) bool {
		return m.Range.Intersects(r)
	})
}

// FindContaining returns markers whose range contains p, endpoints included.
func (idx *Index) FindContaining(p Point) []Marker {
	return idx.FindIntersecting(buffer.PointRange(p))
}

// Subscriptions

// OnDidChange registers fn for changes to one marker.
func (idx *Index) OnDidChange(id ID, fn func(MarkerEvent), opts ...event.Option) (*event.Subscription, error) {
	e, ok := idx.markers[id]
	if !ok {
		return nil, &InvalidMarkerError{Op: "OnDidChange", ID: id}
	}
	return e.changed.Subscribe(fn, opts...), nil
}

// OnDidDestroy registers fn for the destruction of one marker.
func (idx *Index) OnDidDestroy(id ID, fn func(ID), opts ...event.Option) (*event.Subscription, error) {
	e, ok := idx.markers[id]
	if !ok {
		return nil, &InvalidMarkerError{Op: "OnDidDestroy", ID: id}
	}
	return e.destroyed.Subscribe(fn, opts...), nil
}

// OnDidChangeAny registers fn for changes to any marker.
func (idx *Index) OnDidChangeAny(fn func(MarkerEvent), opts ...event.Option) *event.Subscription {
	return idx.changed.Subscribe(fn, opts...)
}

// OnDidCreateAny registers fn for marker creation.
func (idx *Index) OnDidCreateAny(fn func(ID), opts ...event.Option) *event.Subscription {
	return idx.created.Subscribe(fn, opts...)
}

// OnDidDestroyAny registers fn for the destruction of any marker.
func (idx *Index) OnDidDestroyAny(fn func(ID), opts ...event.Option) *event.Subscription {
	return idx.destroyed.Subscribe(fn, opts...)
}

// Update rewrites every marker for a buffer change event. It runs as the
// index's buffer subscription and is exported for callers that replay
// events.
func (idx *Index) Update(ev buffer.ChangeEvent) {
	if len(idx.markers) == 0 {
		return
	}

	type pending struct {
		e       *entry
		ev      MarkerEvent
		touched bool
	}
	before := make(map[ID]pending, len(idx.markers))
	for id, e := range idx.markers {
		before[id] = pending{e: e, ev: MarkerEvent{ID: id, Old: e.m.Range, WasValid: e.m.Valid}}
	}

	for _, c := range ev.Changes {
		for id, e := range idx.markers {
			m, touched := TransformMarker(e.m, c)
			e.m = m
			if touched {
				p := before[id]
				p.touched = true
				before[id] = p
			}
		}
	}

	var events []pending
	for _, p := range before {
		p.ev.New = p.e.m.Range
		p.ev.IsValid = p.e.m.Valid
		p.ev.TextChanged = p.touched
		if p.ev.Old != p.ev.New || p.ev.WasValid != p.ev.IsValid || p.touched {
			events = append(events, p)
		}
	}
	if len(events) == 0 {
		return
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ev.ID < events[j].ev.ID })
	for _, p := range events {
		if p.ev.WasValid && !p.ev.IsValid {
			idx.logger.Debug("marker invalidated", "id", p.ev.ID, "range", p.ev.New.String())
		}
		// A subscriber may have destroyed this marker while handling an
		// earlier event.
		if _, ok := idx.markers[p.ev.ID]; !ok {
			continue
		}
		idx.notify(p.e, p.ev)
	}
}

// Close releases every marker and detaches from the buffer.
func (idx *Index) Close() {
	if idx.dead {
		return
	}
	ids := make([]ID, 0, len(idx.markers))
	for id := range idx.markers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		_ = idx.Destroy(id)
	}
	idx.sub.Dispose()
	idx.dead = true
}

func (idx *Index) notify(e *entry, ev MarkerEvent) {
	e.changed.Emit(ev)
	idx.changed.Emit(ev)
}

func sortMarkers(ms []Marker) {
	sort.Slice(ms, func(i, j int) bool {
		if c := ms[i].Range.Start.Compare(ms[j].Range.Start); c != 0 {
			return c < 0
		}
		return ms[i].ID < ms[j].ID
	})
}
