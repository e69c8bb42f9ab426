// Package regioncache caches recently-touched operation-region bytes so
// repeated sub-byte field accesses to the same region word do not re-trap
// into the registered address-space handler on every access-width chunk
// (spec.md §4.5).
package regioncache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache geometry. Operation-region traffic is tiny compared to
// the teacher's instruction/data caches, so callers size this far smaller
// than a DefaultL1Config.
type Config struct {
	Size          int
	Associativity int
	BlockSize     int
}

// AccessResult reports whether a Read was served from the cache.
type AccessResult struct {
	Hit  bool
	Data uint64
}

// BackingStore is the handler-facing side of the cache: the address-space
// handler attached to an operation region, addressed in absolute
// (region-offset-inclusive) terms. Unlike the teacher's memory-backed
// BackingStore, a region handler can fail (a host trap into firmware, a bus
// transaction, a missing handler), so both methods return an error.
type BackingStore interface {
	Read(addr uint64, size int) ([]byte, error)
	Write(addr uint64, data []byte) error
}

// Cache fronts a BackingStore with an Akita cache directory for tag/LRU
// state, mirroring the teacher's timing/cache.Cache structurally: a
// directory for metadata, a parallel byte-slice data store, and a
// BackingStore consulted on miss.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	dataStore [][]byte
	backing   BackingStore
}

// New creates a Cache of the given geometry fronting backing.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	if numSets < 1 {
		numSets = 1
	}
	totalBlocks := numSets * config.Associativity
	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}
	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// Read returns the size-byte little-endian value at addr, consulting the
// backing store on miss.
func (c *Cache) Read(addr uint64, size int) (AccessResult, error) {
	blockAddr := (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.directory.Visit(block)
		offset := addr % uint64(c.config.BlockSize)
		data := extractData(c.dataStore[c.blockIndex(block)], offset, size)
		return AccessResult{Hit: true, Data: data}, nil
	}
	return c.handleMiss(addr, size, false, 0)
}

// Write stores the size-byte little-endian value at addr, write-allocating
// into the cache and flushing straight through to the backing store: region
// handlers have side effects (a hardware register write, an EC transaction),
// so unlike the teacher's writeback policy this cache is write-through.
func (c *Cache) Write(addr uint64, size int, data uint64) (AccessResult, error) {
	if err := c.backing.Write(addr, encodeData(data, size)); err != nil {
		return AccessResult{}, err
	}
	blockAddr := (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
	block := c.directory.Lookup(0, blockAddr)
	if block == nil || !block.IsValid {
		victim := c.directory.FindVictim(blockAddr)
		if victim == nil {
			return AccessResult{}, nil
		}
		victim.Tag = blockAddr
		victim.IsValid = true
		block = victim
	}
	c.directory.Visit(block)
	offset := addr % uint64(c.config.BlockSize)
	storeData(c.dataStore[c.blockIndex(block)], offset, size, data)
	return AccessResult{}, nil
}

func (c *Cache) handleMiss(addr uint64, size int, isWrite bool, writeData uint64) (AccessResult, error) {
	blockAddr := (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return AccessResult{}, nil
	}
	victimData := c.dataStore[c.blockIndex(victim)]

	raw, err := c.backing.Read(blockAddr, c.config.BlockSize)
	if err != nil {
		return AccessResult{}, err
	}
	copy(victimData, raw)

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	offset := addr % uint64(c.config.BlockSize)
	if isWrite {
		storeData(victimData, offset, size, writeData)
	}
	return AccessResult{Hit: false, Data: extractData(victimData, offset, size)}, nil
}

// Invalidate drops addr's cache line, forcing the next access to re-read the
// backing store. Used after a Reset/notify that a region's contents changed
// out from under the interpreter (e.g. a _REG-triggered re-enumeration).
func (c *Cache) Invalidate(addr uint64) {
	blockAddr := (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
	if block := c.directory.Lookup(0, blockAddr); block != nil {
		block.IsValid = false
	}
}

func extractData(data []byte, offset uint64, size int) uint64 {
	if data == nil || int(offset)+size > len(data) {
		return 0
	}
	var result uint64
	for i := 0; i < size; i++ {
		result |= uint64(data[int(offset)+i]) << (i * 8)
	}
	return result
}

func storeData(data []byte, offset uint64, size int, value uint64) {
	if data == nil || int(offset)+size > len(data) {
		return
	}
	for i := 0; i < size; i++ {
		data[int(offset)+i] = byte(value >> (i * 8))
	}
}

func encodeData(value uint64, size int) []byte {
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		out[i] = byte(value >> (i * 8))
	}
	return out
}
