package opregion

import (
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// chunkWidth returns the access-width-sized chunk, in bytes, a field's
// accesses decompose into (spec.md §4.5). AccessAny has no declared width;
// a byte-at-a-time chunk is always safe and never splits a smaller backing
// resource than the handler supports.
func chunkWidth(fu *object.FieldUnit) int {
	if w := fu.Access.ByteWidth(); w > 0 {
		return w
	}
	return 1
}

func maskBits(n uint64) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

func (m *Manager) withGlobalLock(fu *object.FieldUnit, fn func() error) error {
	if fu.Lock == object.LockGlobal && m.lock != nil {
		if err := m.lock.Acquire(); err != nil {
			return err
		}
		defer m.lock.Release()
	}
	return fn()
}

// ReadField implements interp.RegionIO: it decomposes a <=64-bit field read
// into access-width chunks against the region's attached handler (through
// its region cache), reassembling the result bit by bit.
func (m *Manager) ReadField(fu *object.FieldUnit) (uint64, error) {
	_, cache, ok := m.resolve(fu.Region)
	if !ok {
		return 0, uacpierr.Wrapf(uacpierr.ErrNotReady, "no handler attached to region")
	}
	region, _ := fu.Region.OpRegion()

	var value uint64
	err := m.withGlobalLock(fu, func() error {
		width := chunkWidth(fu)
		bitPos := fu.BitOffset
		bitsLeft := fu.BitWidth
		var shift uint
		for bitsLeft > 0 {
			chunkStart := (bitPos / uint64(width*8)) * uint64(width*8)
			withinChunkBit := bitPos - chunkStart
			take := uint64(width*8) - withinChunkBit
			if take > bitsLeft {
				take = bitsLeft
			}
			res, err := cache.Read(region.Offset+chunkStart/8, width)
			if err != nil {
				return err
			}
			chunkVal := (res.Data >> withinChunkBit) & maskBits(take)
			value |= chunkVal << shift
			shift += uint(take)
			bitPos += take
			bitsLeft -= take
		}
		return nil
	})
	return value, err
}

// WriteField is ReadField's counterpart: a partial boundary chunk is
// merged against the field's UpdateRule rather than overwriting neighboring
// bits outside the field (spec.md §4.5).
func (m *Manager) WriteField(fu *object.FieldUnit, value uint64) error {
	_, cache, ok := m.resolve(fu.Region)
	if !ok {
		return uacpierr.Wrapf(uacpierr.ErrNotReady, "no handler attached to region")
	}
	region, _ := fu.Region.OpRegion()

	return m.withGlobalLock(fu, func() error {
		width := chunkWidth(fu)
		bitPos := fu.BitOffset
		bitsLeft := fu.BitWidth
		var shift uint
		for bitsLeft > 0 {
			chunkStart := (bitPos / uint64(width*8)) * uint64(width*8)
			withinChunkBit := bitPos - chunkStart
			take := uint64(width*8) - withinChunkBit
			if take > bitsLeft {
				take = bitsLeft
			}
			chunkAddr := region.Offset + chunkStart/8
			newBits := (value >> shift) & maskBits(take)

			var merged uint64
			if withinChunkBit == 0 && take == uint64(width*8) {
				merged = newBits
			} else {
				var base uint64
				switch fu.Update {
				case object.UpdateWriteAsOnes:
					base = maskBits(uint64(width * 8))
				case object.UpdateWriteAsZeros:
					base = 0
				default: // UpdatePreserve
					res, err := cache.Read(chunkAddr, width)
					if err != nil {
						return err
					}
					base = res.Data
				}
				clearMask := maskBits(take) << withinChunkBit
				merged = (base &^ clearMask) | (newBits << withinChunkBit)
			}

			if _, err := cache.Write(chunkAddr, width, merged); err != nil {
				return err
			}
			shift += uint(take)
			bitPos += take
			bitsLeft -= take
		}
		return nil
	})
}

// ReadFieldBuffer is ReadField's BufferAcc counterpart for fields wider than
// 64 bits: it assembles a byte slice rather than a scalar (spec.md §4.5:
// "BufferAcc regions return/accept a small structured buffer rather than a
// scalar"). Simplification: buffer-width fields are assumed byte-aligned,
// true of every BufferAcc field real ACPI tables declare.
func (m *Manager) ReadFieldBuffer(fu *object.FieldUnit) ([]byte, error) {
	_, cache, ok := m.resolve(fu.Region)
	if !ok {
		return nil, uacpierr.Wrapf(uacpierr.ErrNotReady, "no handler attached to region")
	}
	region, _ := fu.Region.OpRegion()

	var out []byte
	err := m.withGlobalLock(fu, func() error {
		width := chunkWidth(fu)
		if width == 0 {
			width = 1
		}
		numBytes := int((fu.BitWidth + 7) / 8)
		addr := region.Offset + fu.BitOffset/8
		out = make([]byte, numBytes)
		for i := 0; i < numBytes; {
			n := width
			if i+n > numBytes {
				n = numBytes - i
			}
			res, err := cache.Read(addr+uint64(i), n)
			if err != nil {
				return err
			}
			for j := 0; j < n; j++ {
				out[i+j] = byte(res.Data >> (8 * j))
			}
			i += n
		}
		return nil
	})
	return out, err
}

// WriteFieldBuffer is ReadFieldBuffer's write counterpart.
func (m *Manager) WriteFieldBuffer(fu *object.FieldUnit, data []byte) error {
	_, cache, ok := m.resolve(fu.Region)
	if !ok {
		return uacpierr.Wrapf(uacpierr.ErrNotReady, "no handler attached to region")
	}
	region, _ := fu.Region.OpRegion()

	return m.withGlobalLock(fu, func() error {
		width := chunkWidth(fu)
		if width == 0 {
			width = 1
		}
		addr := region.Offset + fu.BitOffset/8
		for i := 0; i < len(data); {
			n := width
			if i+n > len(data) {
				n = len(data) - i
			}
			var v uint64
			for j := 0; j < n; j++ {
				v |= uint64(data[i+j]) << (8 * j)
			}
			if _, err := cache.Write(addr+uint64(i), n, v); err != nil {
				return err
			}
			i += n
		}
		return nil
	})
}
