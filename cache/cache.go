/*
Copyright © 2013 the fwxgrid authors.
This file is part of fwxgrid.

fwxgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fwxgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fwxgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cache implements the three-level, thread-safe tiered query
// memoization structure sitting in front of the weather resolution
// pipeline: WeatherCache (per-layer, normal/alternate), WeatherLayerCache
// (per-cell, bounded-LRU over a 2-D grid), and CellCache (per-resolution
// bucket: day, noon, hour, sub-hour).
//
// The package is generic over its stored payload (V) so it has no
// dependency on the weather package's concrete result types; the weather
// package instantiates it with its own cache-value struct.
package cache

import (
	"sync"
	"time"

	lru "github.com/golang/groupcache/lru"
)

// DefaultMaxCells and AlternateMaxCells are the default bounded-LRU sizes
// for the normal and alternate-history layer caches (spec.md §4.J).
const (
	DefaultMaxCells   = 7500
	AlternateMaxCells = 50
)

// Key identifies one cached query result within a resolution bucket: a
// timestamp plus the interpolation-method flag word that produced it
// (spec.md §3, Cache key).
type Key struct {
	Time  time.Time
	Flags uint32
}

// ValueCache is one fixed-size LRU bucket of (Key -> V) entries, backed by
// groupcache's lru.Cache for bounded eviction (spec.md §4.J leaf buckets).
type ValueCache[V any] struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// NewValueCache creates a bucket holding at most maxEntries values.
func NewValueCache[V any](maxEntries int) *ValueCache[V] {
	return &ValueCache[V]{lru: lru.New(maxEntries)}
}

// Get returns the cached value for k, if present.
func (c *ValueCache[V]) Get(k Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.lru.Get(k)
	if !ok {
		var zero V
		return zero, false
	}
	return raw.(V), true
}

// Store inserts or replaces the value for k, evicting the bucket's least
// recently used entry if it is full.
func (c *ValueCache[V]) Store(k Key, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(k, v)
}

// Len reports the number of entries currently held.
func (c *ValueCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// bucketKind selects one of a cell's four resolution buckets.
type bucketKind int

const (
	bucketDay bucketKind = iota
	bucketNoon
	bucketHour
	bucketSubHour
)

// bucketSizes are the per-bucket slot counts mandated by spec.md §4.J.
var bucketSizes = [4]int{4, 4, 28, 8}

func classify(t time.Time) bucketKind {
	switch {
	case isMidnight(t):
		return bucketDay
	case isNoon(t):
		return bucketNoon
	case t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0:
		return bucketHour
	default:
		return bucketSubHour
	}
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func isNoon(t time.Time) bool {
	return t.Hour() == 12 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// CellCache is one grid cell's four resolution-bucketed LRU caches
// (spec.md §4.J leaf). Store picks the bucket by comparing t against LST
// midnight and noon.
type CellCache[V any] struct {
	mu          sync.Mutex
	buckets     [4]*ValueCache[V]
	lastTouched time.Time
}

// NewCellCache allocates an empty cell with the four standard bucket
// sizes.
func NewCellCache[V any]() *CellCache[V] {
	c := &CellCache[V]{}
	for i, size := range bucketSizes {
		c.buckets[i] = NewValueCache[V](size)
	}
	return c
}

// Get looks up the cached value for (t, flags) in the bucket t classifies
// into.
func (c *CellCache[V]) Get(t time.Time, flags uint32) (V, bool) {
	return c.buckets[classify(t)].Get(Key{Time: t, Flags: flags})
}

// Store inserts a value for (t, flags), recording t as the cell's most
// recent touch for Purge.
func (c *CellCache[V]) Store(t time.Time, flags uint32, v V) {
	c.mu.Lock()
	if t.After(c.lastTouched) {
		c.lastTouched = t
	}
	c.mu.Unlock()
	c.buckets[classify(t)].Store(Key{Time: t, Flags: flags}, v)
}

// LastTouched returns the latest timestamp stored in any of this cell's
// buckets.
func (c *CellCache[V]) LastTouched() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTouched
}

type cellIndex struct{ x, y int }

// WeatherLayerCache is a fixed xsize x ysize array of lazily-allocated
// cells with bounded-LRU eviction over a ring buffer of creation order
// (spec.md §4.J middle tier).
type WeatherLayerCache[V any] struct {
	mu       sync.Mutex
	xsize    int
	ysize    int
	cells    [][]*CellCache[V]
	ring     []cellIndex
	ringPos  int
	maxCells int
}

// NewWeatherLayerCache creates a layer cache over an xsize x ysize grid,
// bounded to maxCells simultaneously-live cells.
func NewWeatherLayerCache[V any](xsize, ysize, maxCells int) *WeatherLayerCache[V] {
	cells := make([][]*CellCache[V], xsize)
	for i := range cells {
		cells[i] = make([]*CellCache[V], ysize)
	}
	return &WeatherLayerCache[V]{xsize: xsize, ysize: ysize, cells: cells, maxCells: maxCells}
}

func (l *WeatherLayerCache[V]) inBounds(x, y int) bool {
	return x >= 0 && x < l.xsize && y >= 0 && y < l.ysize
}

// getOrCreate returns the cell at (x, y), allocating it (and evicting the
// oldest cell if the ring is full) if necessary. Caller must not hold l.mu.
func (l *WeatherLayerCache[V]) getOrCreate(x, y int) *CellCache[V] {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.inBounds(x, y) {
		return nil
	}
	if l.cells[x][y] != nil {
		return l.cells[x][y]
	}
	if len(l.ring) >= l.maxCells {
		oldest := l.ring[l.ringPos]
		l.cells[oldest.x][oldest.y] = nil
		l.ring[l.ringPos] = cellIndex{x, y}
		l.ringPos = (l.ringPos + 1) % l.maxCells
	} else {
		l.ring = append(l.ring, cellIndex{x, y})
	}
	c := NewCellCache[V]()
	l.cells[x][y] = c
	return c
}

// Get looks up a cached value at grid cell (x, y).
func (l *WeatherLayerCache[V]) Get(x, y int, t time.Time, flags uint32) (V, bool) {
	l.mu.Lock()
	var c *CellCache[V]
	if l.inBounds(x, y) {
		c = l.cells[x][y]
	}
	l.mu.Unlock()
	if c == nil {
		var zero V
		return zero, false
	}
	return c.Get(t, flags)
}

// Store writes a value at grid cell (x, y), allocating the cell (and
// evicting another if the layer is at capacity) if needed.
func (l *WeatherLayerCache[V]) Store(x, y int, t time.Time, flags uint32, v V) {
	c := l.getOrCreate(x, y)
	if c == nil {
		return
	}
	c.Store(t, flags, v)
}

// Purge deletes every cell whose most recent entry is strictly older than
// t minus the 2-hour look-behind lag (spec.md §4.J, §8 invariant 4).
func (l *WeatherLayerCache[V]) Purge(t time.Time) {
	threshold := t.Add(-2 * time.Hour)
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.ring[:0]
	for _, idx := range l.ring {
		c := l.cells[idx.x][idx.y]
		if c == nil {
			continue
		}
		if c.LastTouched().Before(threshold) {
			l.cells[idx.x][idx.y] = nil
			continue
		}
		kept = append(kept, idx)
	}
	l.ring = kept
	l.ringPos = 0
}

// Clear frees every cell in the layer.
func (l *WeatherLayerCache[V]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.cells {
		for j := range l.cells[i] {
			l.cells[i][j] = nil
		}
	}
	l.ring = nil
	l.ringPos = 0
}

// LayerHandle is an opaque token identifying a scenario thread's private
// cache lane (spec.md GLOSSARY, §5: "layer handles are opaque tokens,
// never dereferenced").
type LayerHandle struct{ id int }

type layerEntry[V any] struct {
	normal    *WeatherLayerCache[V]
	alternate *WeatherLayerCache[V]
	refcount  int
}

// WeatherCache is the top-level cache: a set of per-layer normal and
// alternate-history sub-caches, refcounted (spec.md §4.J top tier).
type WeatherCache[V any] struct {
	mu         sync.Mutex
	layers     map[int]*layerEntry[V]
	nextHandle int
}

// New creates an empty top-level cache.
func New[V any]() *WeatherCache[V] {
	return &WeatherCache[V]{layers: make(map[int]*layerEntry[V])}
}

// NewLayer allocates a fresh layer cache pair (normal + alternate) over an
// xsize x ysize grid and returns its opaque handle with refcount 1.
func (wc *WeatherCache[V]) NewLayer(xsize, ysize int) LayerHandle {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.nextHandle++
	h := LayerHandle{id: wc.nextHandle}
	wc.layers[h.id] = &layerEntry[V]{
		normal:    NewWeatherLayerCache[V](xsize, ysize, DefaultMaxCells),
		alternate: NewWeatherLayerCache[V](xsize, ysize, AlternateMaxCells),
		refcount:  1,
	}
	return h
}

// Retain increments a layer's refcount, for callers sharing a handle.
func (wc *WeatherCache[V]) Retain(h LayerHandle) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if e, ok := wc.layers[h.id]; ok {
		e.refcount++
	}
}

// Release decrements a layer's refcount, destroying it at zero (spec.md
// §3 Ownership & lifecycle: "Cache ↔ Layer: created on first write,
// destroyed when refcount drops to zero or when LRU evicts it").
func (wc *WeatherCache[V]) Release(h LayerHandle) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if e, ok := wc.layers[h.id]; ok {
		e.refcount--
		if e.refcount <= 0 {
			delete(wc.layers, h.id)
		}
	}
}

func (wc *WeatherCache[V]) layerCache(h LayerHandle, alternate bool) *WeatherLayerCache[V] {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	e, ok := wc.layers[h.id]
	if !ok {
		return nil
	}
	if alternate {
		return e.alternate
	}
	return e.normal
}

// Get looks up a cached value under the given layer, alternate-cache
// selector, cell coordinates, time, and flags.
func (wc *WeatherCache[V]) Get(h LayerHandle, alternate bool, x, y int, t time.Time, flags uint32) (V, bool) {
	l := wc.layerCache(h, alternate)
	if l == nil {
		var zero V
		return zero, false
	}
	return l.Get(x, y, t, flags)
}

// Store writes a value under the given layer, alternate-cache selector,
// cell coordinates, time, and flags.
func (wc *WeatherCache[V]) Store(h LayerHandle, alternate bool, x, y int, t time.Time, flags uint32, v V) {
	l := wc.layerCache(h, alternate)
	if l == nil {
		return
	}
	l.Store(x, y, t, flags, v)
}

// Purge runs WeatherLayerCache.Purge on every live layer (both normal and
// alternate sub-caches).
func (wc *WeatherCache[V]) Purge(t time.Time) {
	wc.mu.Lock()
	entries := make([]*layerEntry[V], 0, len(wc.layers))
	for _, e := range wc.layers {
		entries = append(entries, e)
	}
	wc.mu.Unlock()
	for _, e := range entries {
		e.normal.Purge(t)
		e.alternate.Purge(t)
	}
}
