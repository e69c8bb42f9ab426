package opregion

import (
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opregion/regioncache"
)

// regionCacheSize/regionCacheBlockSize/regionCacheWays size the per-region
// cache: operation-region traffic is a handful of adjacent field words, not
// a working set, so a single small direct-ish cache per region is enough to
// absorb repeated sub-byte accesses without ever evicting under normal AML
// field usage.
const (
	regionCacheBlockSize = 16
	regionCacheWays      = 4
	regionCacheSize      = regionCacheBlockSize * regionCacheWays * 4
)

// handlerBacking adapts an object.RegionHandler (offset/width/value) to
// regioncache.BackingStore (addr/byte-slice), the same shape the teacher's
// MemoryBacking adapts emu.Memory to timing/cache.BackingStore with.
type handlerBacking struct {
	h object.RegionHandler
}

func (b *handlerBacking) Read(addr uint64, size int) ([]byte, error) {
	v, err := b.h.Read(addr, size)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out, nil
}

func (b *handlerBacking) Write(addr uint64, data []byte) error {
	var v uint64
	for i, bt := range data {
		v |= uint64(bt) << (8 * i)
	}
	return b.h.Write(addr, len(data), v)
}

// resolve returns the attached handler and its fronting cache for obj,
// lazily constructing the cache on first access.
func (m *Manager) resolve(obj *object.Object) (object.RegionHandler, *regioncache.Cache, bool) {
	region, ok := obj.OpRegion()
	if !ok {
		return nil, nil, false
	}
	h, ok := region.Handler()
	if !ok {
		return nil, nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.caches[obj]
	if !ok {
		c = regioncache.New(regioncache.Config{
			Size:          regionCacheSize,
			Associativity: regionCacheWays,
			BlockSize:     regionCacheBlockSize,
		}, &handlerBacking{h: h})
		m.caches[obj] = c
	}
	return h, c, true
}
