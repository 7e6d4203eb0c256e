package decoration

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/engine/marker"
	"github.com/dshills/tessera/internal/event"
	"github.com/dshills/tessera/internal/renderer/display"
	"github.com/dshills/tessera/internal/renderer/heightcache"
)

// ScreenSource maps buffer positions to screen rows and reports when that
// mapping changes. *display.Display implements it.
type ScreenSource interface {
	ScreenPositionForBufferPosition(p buffer.Point) (display.ScreenPoint, error)
	OnDidChangeScreen(fn func(display.ScreenChange), opts ...event.Option) *event.Subscription
}

type entry struct {
	Decoration
	row int // head screen row when last resolved
}

type layerKey struct {
	marker marker.ID
	layer  LayerID
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager owns every decoration of one editor. It must be used from the
// goroutine that owns the buffer.
type Manager struct {
	markers *marker.Index
	screen  ScreenSource
	heights *heightcache.Cache
	logger  *slog.Logger

	layers    map[LayerID]*Layer
	nextLayer LayerID

	decorations map[ID]*entry
	byKey       map[layerKey]ID
	byMarker    map[marker.ID][]ID
	nextID      ID

	index       *intervalIndex
	indexStale  bool // rebuild every interval
	staleBlocks map[ID]struct{}

	// Pending work for an index that is otherwise current: entries to
	// resolve again and screen changes to replay over the rest.
	staleEntries map[ID]struct{}
	shifts       []display.ScreenChange

	subs      event.Disposables
	updates   event.Emitter[UpdateEvent]
	destroyed bool
}

// NewManager creates a manager whose decorations follow markers in markers,
// placed on screen through screen, with block heights kept in heights.
func NewManager(markers *marker.Index, screen ScreenSource, heights *heightcache.Cache, opts ...Option) *Manager {
	m := &Manager{
		markers:     markers,
		screen:      screen,
		heights:     heights,
		logger:      slog.New(slog.DiscardHandler),
		layers:      map[LayerID]*Layer{DefaultLayer: {ID: DefaultLayer, Name: "default"}},
		nextLayer:   DefaultLayer + 1,
		decorations: make(map[ID]*entry),
		byKey:       make(map[layerKey]ID),
		byMarker:    make(map[marker.ID][]ID),
		nextID:      1,
		indexStale:  true,
		staleBlocks: make(map[ID]struct{}),

		staleEntries: make(map[ID]struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With("component", "decoration")
	m.subs.Add(
		screen.OnDidChangeScreen(m.handleScreenChange, event.WithPriority(event.PriorityDerived)),
		markers.OnDidChangeAny(m.handleMarkerChange, event.WithPriority(event.PriorityDerived)),
		markers.OnDidDestroyAny(m.handleMarkerDestroyed, event.WithPriority(event.PriorityDerived)),
	)
	return m
}

// OnDidUpdate registers fn to run whenever a decoration change requires
// rows to be laid out again.
func (m *Manager) OnDidUpdate(fn func(UpdateEvent), opts ...event.Option) *event.Subscription {
	return m.updates.Subscribe(fn, opts...)
}

// Destroy removes every decoration and detaches from the markers and the
// display.
func (m *Manager) Destroy() {
	if m.destroyed {
		return
	}
	m.subs.Dispose()
	for id, e := range m.decorations {
		if e.Kind == KindBlock {
			m.heights.Remove(heightcache.ID(id))
		}
	}
	clear(m.decorations)
	clear(m.byKey)
	clear(m.byMarker)
	clear(m.staleBlocks)
	clear(m.staleEntries)
	m.shifts = nil
	m.index = nil
	m.updates.Clear()
	m.destroyed = true
}

// Layers

// AddLayer creates a layer. Layers with a lower order sort first.
func (m *Manager) AddLayer(name string, order int) LayerID {
	id := m.nextLayer
	m.nextLayer++
	m.layers[id] = &Layer{ID: id, Name: name, Order: order}
	return id
}

// Layers returns every layer ordered by order, then ID.
func (m *Manager) Layers() []Layer {
	out := make([]Layer, 0, len(m.layers))
	for _, l := range m.layers {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DestroyLayer removes a layer and its decorations. The default layer
// cannot be removed.
func (m *Manager) DestroyLayer(id LayerID) error {
	if id == DefaultLayer {
		return fmt.Errorf("decoration: destroy default layer: %w", ErrInvalidDecoration)
	}
	if _, ok := m.layers[id]; !ok {
		return fmt.Errorf("decoration: destroy layer %d: %w", id, ErrInvalidDecoration)
	}
	for _, d := range m.Decorations(func(d Decoration) bool { return d.Layer == id }) {
		m.remove(m.decorations[d.ID])
	}
	delete(m.layers, id)
	return nil
}

// Decorations

// DecorateMarker attaches a decoration to a marker in the default layer.
func (m *Manager) DecorateMarker(id marker.ID, kind Kind, props Properties) (ID, error) {
	return m.DecorateMarkerInLayer(id, DefaultLayer, kind, props)
}

// DecorateMarkerInLayer attaches a decoration to a marker in layer. A marker
// has at most one decoration per layer.
func (m *Manager) DecorateMarkerInLayer(id marker.ID, layer LayerID, kind Kind, props Properties) (ID, error) {
	if m.destroyed {
		return 0, ErrDestroyed
	}
	if !m.markers.Exists(id) {
		return 0, fmt.Errorf("decoration: decorate: %w", &marker.InvalidMarkerError{Op: "decorate", ID: id})
	}
	if _, ok := m.layers[layer]; !ok {
		return 0, fmt.Errorf("decoration: unknown layer %d: %w", layer, ErrInvalidDecoration)
	}
	if err := validate(kind, props); err != nil {
		return 0, err
	}
	key := layerKey{marker: id, layer: layer}
	if existing, ok := m.byKey[key]; ok {
		return 0, fmt.Errorf("decoration: marker %d layer %d has decoration %d: %w", id, layer, existing, ErrDecorationExists)
	}

	if kind == KindGutter && props.GutterName == "" {
		props.GutterName = DefaultGutter
	}
	e := &entry{
		Decoration: Decoration{
			ID:         m.nextID,
			Marker:     id,
			Layer:      layer,
			Kind:       kind,
			Properties: props,
		},
		row: -1,
	}
	m.nextID++
	m.decorations[e.ID] = e
	m.byKey[key] = e.ID
	m.byMarker[id] = append(m.byMarker[id], e.ID)
	m.staleEntries[e.ID] = struct{}{}

	e.row = m.headRow(e)
	if kind == KindBlock {
		m.heights.Insert(heightcache.ID(e.ID), max(e.row, 0), props.BlockPosition, 0)
	}

	m.logger.Debug("decoration added", "id", e.ID, "marker", id, "kind", kind.String())
	m.updates.Emit(m.event(UpdateAdded, e))
	return e.ID, nil
}

// SetProperties replaces the properties of a decoration. The kind cannot
// change.
func (m *Manager) SetProperties(id ID, props Properties) error {
	e, ok := m.decorations[id]
	if !ok {
		return fmt.Errorf("decoration: set properties %d: %w", id, ErrInvalidDecoration)
	}
	if err := validate(e.Kind, props); err != nil {
		return err
	}
	if e.Kind == KindGutter && props.GutterName == "" {
		props.GutterName = DefaultGutter
	}

	moved := e.Kind == KindBlock && props.BlockPosition != e.Properties.BlockPosition
	e.Properties = props
	m.staleEntries[id] = struct{}{}
	if moved {
		m.heights.Insert(heightcache.ID(id), max(e.row, 0), props.BlockPosition, e.Height)
	}
	m.updates.Emit(m.event(UpdateChanged, e))
	return nil
}

// DestroyDecoration removes a decoration. Destroying an unknown decoration
// is a no-op and reports false.
func (m *Manager) DestroyDecoration(id ID) bool {
	e, ok := m.decorations[id]
	if !ok {
		return false
	}
	m.remove(e)
	return true
}

// Get returns a snapshot of decoration id.
func (m *Manager) Get(id ID) (Decoration, bool) {
	e, ok := m.decorations[id]
	if !ok {
		return Decoration{}, false
	}
	return e.Decoration, true
}

// Exists reports whether id names a live decoration.
func (m *Manager) Exists(id ID) bool {
	_, ok := m.decorations[id]
	return ok
}

// Len returns the number of decorations.
func (m *Manager) Len() int {
	return len(m.decorations)
}

// Decorations returns the decorations accepted by filter, or all of them
// when filter is nil, in layer order.
func (m *Manager) Decorations(filter func(Decoration) bool) []Decoration {
	var out []Decoration
	for _, e := range m.decorations {
		if filter == nil || filter(e.Decoration) {
			out = append(out, e.Decoration)
		}
	}
	m.sortDecorations(out)
	return out
}

// DecorationsForMarker returns the decorations of one marker.
func (m *Manager) DecorationsForMarker(id marker.ID) []Decoration {
	ids := m.byMarker[id]
	out := make([]Decoration, 0, len(ids))
	for _, did := range ids {
		out = append(out, m.decorations[did].Decoration)
	}
	m.sortDecorations(out)
	return out
}

// DecorationsForScreenRowRange returns the decorations displayed on screen
// rows [startRow, endRow]. Decorations of invalidated markers and
// decorations whose emptiness filter rejects the marker are left out.
func (m *Manager) DecorationsForScreenRowRange(startRow, endRow int) []Decoration {
	if m.destroyed || endRow < startRow {
		return nil
	}
	m.flush()

	var out []Decoration
	m.index.query(startRow, endRow, func(it interval) {
		out = append(out, it.e.Decoration)
	})
	m.sortDecorations(out)
	return out
}

// Blocks

// SetDimensionsForDecoration records the measured size of a block. It
// reports whether the decoration is a live block; results for destroyed
// decorations are dropped.
func (m *Manager) SetDimensionsForDecoration(id ID, width, height float64) bool {
	e, ok := m.decorations[id]
	if !ok {
		m.logger.Debug("dimensions for destroyed decoration dropped", "id", id)
		return false
	}
	if e.Kind != KindBlock {
		m.logger.Debug("dimensions for non-block decoration dropped", "id", id, "kind", e.Kind.String())
		return false
	}

	e.Width = width
	e.Measured = true
	changed, err := m.heights.Resize(heightcache.ID(id), height)
	if err != nil {
		m.logger.Warn("block missing from height cache", "id", id, "error", err)
		m.heights.Insert(heightcache.ID(id), max(e.row, 0), e.Properties.BlockPosition, height)
		changed = true
	}
	e.Height = max(height, 0)
	if changed {
		m.flush()
		m.updates.Emit(m.event(UpdateResized, e))
	}
	return true
}

// InvalidateBlockDimensions marks a block as needing measurement again. Its
// current height is kept until the new measurement arrives.
func (m *Manager) InvalidateBlockDimensions(id ID) bool {
	e, ok := m.decorations[id]
	if !ok || e.Kind != KindBlock {
		return false
	}
	e.Measured = false
	m.updates.Emit(m.event(UpdateNeedsMeasure, e))
	return true
}

// UnmeasuredBlocks returns the IDs of blocks that have no current
// measurement, in ID order.
func (m *Manager) UnmeasuredBlocks() []ID {
	var out []ID
	for id, e := range m.decorations {
		if e.Kind == KindBlock && !e.Measured {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// HeightForScreenRow returns the block height above the text of row.
func (m *Manager) HeightForScreenRow(row int) float64 {
	m.flush()
	return m.heights.HeightForScreenRow(row)
}

// RowForPixelPosition returns the screen row displayed at pixel top.
func (m *Manager) RowForPixelPosition(top float64) int {
	m.flush()
	return m.heights.RowForPixelPosition(top)
}

// BlockRow returns the screen row a block is attached to.
func (m *Manager) BlockRow(id ID) (int, bool) {
	e, ok := m.decorations[id]
	if !ok || e.Kind != KindBlock {
		return 0, false
	}
	m.flush()
	return e.row, true
}

// Internals

func validate(kind Kind, props Properties) error {
	if kind > KindBlock {
		return fmt.Errorf("decoration: kind %d: %w", kind, ErrInvalidDecoration)
	}
	if props.OnlyEmpty && props.OnlyNonEmpty {
		return fmt.Errorf("decoration: only-empty and only-non-empty: %w", ErrInvalidDecoration)
	}
	return nil
}

func (m *Manager) remove(e *entry) {
	delete(m.decorations, e.ID)
	delete(m.byKey, layerKey{marker: e.Marker, layer: e.Layer})
	ids := m.byMarker[e.Marker]
	if i := slices.Index(ids, e.ID); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(m.byMarker, e.Marker)
	} else {
		m.byMarker[e.Marker] = ids
	}
	if e.Kind == KindBlock {
		m.heights.Remove(heightcache.ID(e.ID))
		delete(m.staleBlocks, e.ID)
	}
	m.staleEntries[e.ID] = struct{}{}

	m.logger.Debug("decoration removed", "id", e.ID, "marker", e.Marker)
	m.updates.Emit(m.event(UpdateRemoved, e))
}

// event describes e's current rows, falling back to the last resolved row
// when its marker no longer maps to the screen.
func (m *Manager) event(kind UpdateKind, e *entry) UpdateEvent {
	ev := UpdateEvent{Kind: kind, ID: e.ID, Block: e.Kind == KindBlock, ScreenRow: e.row, EndRow: e.row}
	if lo, hi, ok := m.rows(e); ok {
		ev.ScreenRow, ev.EndRow = lo, hi
	}
	return ev
}

func (m *Manager) sortDecorations(ds []Decoration) {
	sort.Slice(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		la, lb := m.layerOrder(a.Layer), m.layerOrder(b.Layer)
		if la != lb {
			return la < lb
		}
		if a.Properties.Order != b.Properties.Order {
			return a.Properties.Order < b.Properties.Order
		}
		return a.ID < b.ID
	})
}

func (m *Manager) layerOrder(id LayerID) int {
	if l, ok := m.layers[id]; ok {
		return l.Order
	}
	return 0
}

// headRow returns the screen row of the decoration's anchor, or -1.
func (m *Manager) headRow(e *entry) int {
	mk, err := m.markers.Get(e.Marker)
	if err != nil {
		return -1
	}
	p := mk.Head()
	if e.Kind == KindOverlay && e.Properties.OverlayPosition == OverlayTail {
		p = mk.Tail()
	}
	sp, err := m.screen.ScreenPositionForBufferPosition(p)
	if err != nil {
		return -1
	}
	return sp.Row
}

// rows returns the screen rows a decoration occupies.
func (m *Manager) rows(e *entry) (lo, hi int, ok bool) {
	mk, err := m.markers.Get(e.Marker)
	if err != nil || !mk.Valid {
		return 0, 0, false
	}
	if e.Properties.OnlyEmpty && !mk.IsEmpty() {
		return 0, 0, false
	}
	if e.Properties.OnlyNonEmpty && mk.IsEmpty() {
		return 0, 0, false
	}

	anchor := e.Kind == KindOverlay || e.Kind == KindBlock || e.Properties.OnlyHead
	if anchor {
		p := mk.Head()
		if e.Kind == KindOverlay && e.Properties.OverlayPosition == OverlayTail {
			p = mk.Tail()
		}
		sp, err := m.screen.ScreenPositionForBufferPosition(p)
		if err != nil {
			return 0, 0, false
		}
		return sp.Row, sp.Row, true
	}

	start, err := m.screen.ScreenPositionForBufferPosition(mk.Range.Start)
	if err != nil {
		return 0, 0, false
	}
	end, err := m.screen.ScreenPositionForBufferPosition(mk.Range.End)
	if err != nil {
		return 0, 0, false
	}
	if omitsEmptyLastRow(e, mk) && end.Row > start.Row {
		return start.Row, end.Row - 1, true
	}
	return start.Row, end.Row, true
}

// omitsEmptyLastRow reports whether a line or gutter decoration leaves out
// the row its marker ends on because the marker ends at column 0.
func omitsEmptyLastRow(e *entry, mk marker.Marker) bool {
	if e.Kind != KindLine && e.Kind != KindGutter {
		return false
	}
	if e.Properties.KeepEmptyLastRow || mk.IsEmpty() {
		return false
	}
	return mk.Range.End.Column == 0 && mk.Range.End.Row > mk.Range.Start.Row
}

// flush re-resolves stale block rows and rebuilds the interval index.
func (m *Manager) flush() {
	if m.destroyed {
		return
	}
	for id := range m.staleBlocks {
		e, ok := m.decorations[id]
		if !ok {
			continue
		}
		e.row = m.headRow(e)
		m.staleEntries[id] = struct{}{}
		if err := m.heights.Move(heightcache.ID(id), max(e.row, 0)); err != nil {
			m.logger.Warn("block missing from height cache", "id", id, "error", err)
		}
	}
	clear(m.staleBlocks)

	switch {
	case m.indexStale || m.index == nil:
		m.rebuildIndex()
	case len(m.staleEntries) > 0 || len(m.shifts) > 0:
		m.updateIndex()
	}
}

// maxShifts bounds the screen changes replayed over the index before a
// full rebuild is cheaper.
const maxShifts = 16

// rebuildIndex resolves every decoration and builds a fresh index.
func (m *Manager) rebuildIndex() {
	items := make([]interval, 0, len(m.decorations))
	for _, e := range m.decorations {
		if it, ok := m.resolve(e); ok {
			items = append(items, it)
		}
	}
	m.setIndex(items)
	m.logger.Debug("interval index rebuilt", "decorations", m.index.len())
}

// updateIndex carries the current index over the pending screen changes.
// Intervals above a change are kept, intervals below it shift with it, and
// only the intervals it touched or whose markers changed are resolved again.
func (m *Manager) updateIndex() {
	items := make([]interval, 0, m.index.len()+len(m.staleEntries))
	indexed := make(map[ID]struct{}, m.index.len())
	resolved := 0
	for _, it := range m.index.items {
		id := it.e.ID
		indexed[id] = struct{}{}
		if _, live := m.decorations[id]; !live {
			continue
		}
		if _, stale := m.staleEntries[id]; !stale {
			if shifted, ok := replayShifts(it, m.shifts); ok {
				if shifted.e.Kind != KindBlock {
					shifted.e.row = shifted.lo
				}
				items = append(items, shifted)
				continue
			}
		}
		resolved++
		if it, ok := m.resolve(it.e); ok {
			items = append(items, it)
		}
	}
	// Stale entries that were not indexed, such as decorations whose
	// markers just became valid again.
	for id := range m.staleEntries {
		if _, ok := indexed[id]; ok {
			continue
		}
		e, ok := m.decorations[id]
		if !ok {
			continue
		}
		resolved++
		if it, ok := m.resolve(e); ok {
			items = append(items, it)
		}
	}
	m.setIndex(items)
	m.logger.Debug("interval index updated", "decorations", m.index.len(), "resolved", resolved)
}

// replayShifts moves it through screen changes. It reports false when a
// change touched the rows of it, so the interval has to be resolved again.
func replayShifts(it interval, shifts []display.ScreenChange) (interval, bool) {
	for _, c := range shifts {
		switch {
		case it.hi < c.StartRow:
			continue
		case c.ToEnd || it.lo < c.OldEnd:
			return it, false
		}
		d := c.NewEnd - c.OldEnd
		it.lo += d
		it.hi += d
	}
	return it, true
}

func (m *Manager) resolve(e *entry) (interval, bool) {
	lo, hi, ok := m.rows(e)
	if !ok {
		return interval{}, false
	}
	if e.Kind != KindBlock {
		e.row = lo
	}
	return interval{lo: lo, hi: hi, e: e}, true
}

func (m *Manager) setIndex(items []interval) {
	m.index = newIntervalIndex(items)
	m.indexStale = false
	clear(m.staleEntries)
	m.shifts = m.shifts[:0]
}

func (m *Manager) markBlocksStale(from int) {
	for id, e := range m.decorations {
		if e.Kind == KindBlock && e.row >= from {
			m.staleBlocks[id] = struct{}{}
		}
	}
}

func (m *Manager) handleScreenChange(c display.ScreenChange) {
	if len(m.shifts) < maxShifts {
		m.shifts = append(m.shifts, c)
	} else {
		m.indexStale = true
	}
	if c.ToEnd {
		m.markBlocksStale(c.StartRow)
	} else {
		for _, id := range m.heights.Splice(c.StartRow, c.OldEnd-c.StartRow, c.NewEnd-c.StartRow) {
			m.staleBlocks[ID(id)] = struct{}{}
		}
		delta := c.NewEnd - c.OldEnd
		for _, e := range m.decorations {
			if e.Kind != KindBlock || e.row < c.StartRow {
				continue
			}
			if e.row >= c.OldEnd {
				e.row += delta
			}
		}
	}

	if c.Reason == display.ReasonSettings {
		for _, id := range m.blockIDs() {
			m.InvalidateBlockDimensions(id)
		}
	}
}

func (m *Manager) blockIDs() []ID {
	var ids []ID
	for id, e := range m.decorations {
		if e.Kind == KindBlock {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) handleMarkerChange(ev marker.MarkerEvent) {
	ids, ok := m.byMarker[ev.ID]
	if !ok {
		return
	}
	for _, id := range ids {
		m.staleEntries[id] = struct{}{}
	}
	for _, id := range ids {
		if m.decorations[id].Kind == KindBlock {
			m.staleBlocks[id] = struct{}{}
		}
	}
}

func (m *Manager) handleMarkerDestroyed(id marker.ID) {
	ids := slices.Clone(m.byMarker[id])
	for _, did := range ids {
		if e, ok := m.decorations[did]; ok {
			m.remove(e)
		}
	}
}
