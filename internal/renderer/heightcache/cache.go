// Package heightcache tracks the pixel height of block decorations by
// screen row.
//
// A block sits either before or after the text of a screen row. The height
// above a row is the sum of every block placed before that row or any
// earlier row, plus every block placed after an earlier row. Sums are kept
// in a prefix that is recomputed lazily from the lowest changed row. Blocks that
// have not been measured yet have zero height and do not disturb it.
package heightcache

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrUnknownBlock indicates a block ID that is not in the cache.
var ErrUnknownBlock = errors.New("unknown block")

// ID identifies a block.
type ID uint64

// Position places a block relative to the text of its row.
type Position uint8

const (
	Before Position = iota
	After
)

// String returns the position name.
func (p Position) String() string {
	if p == After {
		return "after"
	}
	return "before"
}

// Block is one block decoration.
type Block struct {
	ID       ID
	Row      int
	Position Position
	Height   float64
}

// key returns the first row whose top the block pushes down.
func (b *Block) key() int {
	if b.Position == After {
		return b.Row + 1
	}
	return b.Row
}

// rowPos addresses the blocks on one side of a row.
type rowPos struct {
	row int
	pos Position
}

// rowSum is the measured height on one side of a row.
type rowSum struct {
	height float64
	n      int
}

// Cache holds block heights. The zero value is not usable; call New.
//
// Measured blocks are summed per key, the first row they push down. keys is
// sorted, and heights, counts and sums run parallel to it; sums[i] is the
// height of every block with a key up to keys[i]. Entries from dirty on are
// out of date and recomputed on the next query.
type Cache struct {
	lineHeight float64
	blocks     map[ID]*Block

	keys    []int
	heights []float64
	counts  []int
	sums    []float64
	dirty   int

	sides map[rowPos]rowSum
}

// Option configures a Cache.
type Option func(*Cache)

// WithLineHeight sets the pixel height of a screen row.
func WithLineHeight(px float64) Option {
	return func(c *Cache) {
		if px > 0 {
			c.lineHeight = px
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		lineHeight: 1,
		blocks:     make(map[ID]*Block),
		sides:      make(map[rowPos]rowSum),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LineHeight returns the pixel height of a screen row.
func (c *Cache) LineHeight() float64 {
	return c.lineHeight
}

// SetLineHeight changes the pixel height of a screen row.
func (c *Cache) SetLineHeight(px float64) {
	if px > 0 {
		c.lineHeight = px
	}
}

// Len returns the number of blocks.
func (c *Cache) Len() int {
	return len(c.blocks)
}

// Get returns a copy of block id.
func (c *Cache) Get(id ID) (Block, bool) {
	b, ok := c.blocks[id]
	if !ok {
		return Block{}, false
	}
	return *b, true
}

// Blocks returns every block ordered by row, then position, then ID.
func (c *Cache) Blocks() []Block {
	out := make([]Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b Block) int {
		switch {
		case a.Row != b.Row:
			return a.Row - b.Row
		case a.Position != b.Position:
			return int(a.Position) - int(b.Position)
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Insert adds a block. Inserting an existing ID replaces it.
func (c *Cache) Insert(id ID, row int, pos Position, height float64) {
	if old, ok := c.blocks[id]; ok {
		c.unindex(old)
	}
	b := &Block{ID: id, Row: max(row, 0), Position: pos, Height: max(height, 0)}
	c.blocks[id] = b
	c.index(b)
}

// Move changes the row of block id.
func (c *Cache) Move(id ID, row int) error {
	b, ok := c.blocks[id]
	if !ok {
		return fmt.Errorf("heightcache: move %d: %w", id, ErrUnknownBlock)
	}
	row = max(row, 0)
	if b.Row == row {
		return nil
	}
	c.unindex(b)
	b.Row = row
	c.index(b)
	return nil
}

// Resize changes the height of block id. It reports whether the height
// changed.
func (c *Cache) Resize(id ID, height float64) (bool, error) {
	b, ok := c.blocks[id]
	if !ok {
		return false, fmt.Errorf("heightcache: resize %d: %w", id, ErrUnknownBlock)
	}
	height = max(height, 0)
	if b.Height == height {
		return false, nil
	}
	c.unindex(b)
	b.Height = height
	c.index(b)
	return true, nil
}

// Remove deletes block id. Removing an unknown block is a no-op.
func (c *Cache) Remove(id ID) {
	b, ok := c.blocks[id]
	if !ok {
		return
	}
	delete(c.blocks, id)
	c.unindex(b)
}

// Clear removes every block.
func (c *Cache) Clear() {
	clear(c.blocks)
	clear(c.sides)
	c.keys = c.keys[:0]
	c.heights = c.heights[:0]
	c.counts = c.counts[:0]
	c.sums = c.sums[:0]
	c.dirty = 0
}

// Splice records that screen rows [start, start+oldExtent) were replaced by
// newExtent rows. Blocks below the region move with it. Blocks inside the
// region are parked on start and returned so the caller can place them
// again; they are sorted by ID.
func (c *Cache) Splice(start, oldExtent, newExtent int) []ID {
	end := start + oldExtent
	delta := newExtent - oldExtent

	var inside []ID
	for id, b := range c.blocks {
		row := b.Row
		switch {
		case b.Row < start:
			continue
		case b.Row >= end:
			row += delta
		default:
			inside = append(inside, id)
			row = start
		}
		if row == b.Row {
			continue
		}
		c.unindex(b)
		b.Row = row
		c.index(b)
	}
	slices.Sort(inside)
	return inside
}

// HeightForScreenRow returns the total block height above the text of row:
// blocks before rows up to row and blocks after rows before it.
func (c *Cache) HeightForScreenRow(row int) float64 {
	c.refresh()
	i := sort.SearchInts(c.keys, row+1)
	if i == 0 {
		return 0
	}
	return c.sums[i-1]
}

// HeightBeforeBlocksForRow returns the height of the blocks placed before
// row.
func (c *Cache) HeightBeforeBlocksForRow(row int) float64 {
	return c.heightAt(row, Before)
}

// HeightAfterBlocksForRow returns the height of the blocks placed after
// row.
func (c *Cache) HeightAfterBlocksForRow(row int) float64 {
	return c.heightAt(row, After)
}

func (c *Cache) heightAt(row int, pos Position) float64 {
	return c.sides[rowPos{row, pos}].height
}

// TotalHeight returns the height of every block.
func (c *Cache) TotalHeight() float64 {
	c.refresh()
	if len(c.sums) == 0 {
		return 0
	}
	return c.sums[len(c.sums)-1]
}

// PixelTopForRow returns the top of the text of row.
func (c *Cache) PixelTopForRow(row int) float64 {
	return float64(row)*c.lineHeight + c.HeightForScreenRow(row)
}

// PixelPositionBeforeBlocksForRow returns the top of the blocks placed
// before row.
func (c *Cache) PixelPositionBeforeBlocksForRow(row int) float64 {
	return c.PixelTopForRow(row) - c.HeightBeforeBlocksForRow(row)
}

// PixelPositionAfterBlocksForRow returns the top of the blocks placed after
// row, which is the bottom of its text.
func (c *Cache) PixelPositionAfterBlocksForRow(row int) float64 {
	return c.PixelTopForRow(row) + c.lineHeight
}

// RowForPixelPosition returns the last row whose text top is at or above
// top. Pixels over the blocks before a row belong to the previous row.
func (c *Cache) RowForPixelPosition(top float64) int {
	if top <= 0 {
		return 0
	}
	hi := 1
	for c.PixelTopForRow(hi) <= top {
		hi *= 2
	}
	// PixelTopForRow(lo) <= top < PixelTopForRow(hi)
	lo := hi / 2
	if hi == 1 {
		lo = 0
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if c.PixelTopForRow(mid) <= top {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// index adds a measured block to the per-key sums.
func (c *Cache) index(b *Block) {
	if b.Height <= 0 {
		return
	}
	i, found := slices.BinarySearch(c.keys, b.key())
	if !found {
		c.keys = slices.Insert(c.keys, i, b.key())
		c.heights = slices.Insert(c.heights, i, 0)
		c.counts = slices.Insert(c.counts, i, 0)
		c.sums = slices.Insert(c.sums, i, 0)
	}
	c.heights[i] += b.Height
	c.counts[i]++
	c.dirty = min(c.dirty, i)

	side := c.sides[rowPos{b.Row, b.Position}]
	side.height += b.Height
	side.n++
	c.sides[rowPos{b.Row, b.Position}] = side
}

// unindex removes a measured block from the per-key sums.
func (c *Cache) unindex(b *Block) {
	if b.Height <= 0 {
		return
	}
	i, found := slices.BinarySearch(c.keys, b.key())
	if !found {
		return
	}
	c.counts[i]--
	if c.counts[i] == 0 {
		c.keys = slices.Delete(c.keys, i, i+1)
		c.heights = slices.Delete(c.heights, i, i+1)
		c.counts = slices.Delete(c.counts, i, i+1)
		c.sums = slices.Delete(c.sums, i, i+1)
	} else {
		c.heights[i] -= b.Height
	}
	c.dirty = min(c.dirty, i)

	key := rowPos{b.Row, b.Position}
	side := c.sides[key]
	if side.n <= 1 {
		delete(c.sides, key)
		return
	}
	side.height -= b.Height
	side.n--
	c.sides[key] = side
}

// stale reports whether some sums are out of date.
func (c *Cache) stale() bool {
	return c.dirty < len(c.keys)
}

// refresh recomputes the sums from the lowest changed key on.
func (c *Cache) refresh() {
	if !c.stale() {
		c.dirty = len(c.keys)
		return
	}
	var sum float64
	if c.dirty > 0 {
		sum = c.sums[c.dirty-1]
	}
	for i := c.dirty; i < len(c.keys); i++ {
		sum += c.heights[i]
		c.sums[i] = sum
	}
	c.dirty = len(c.keys)
}
