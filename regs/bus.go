package regs

// Bus provides 32-bit access to the controller's register space.
//
// Offsets are byte offsets from the peripheral base address. The FIFO
// access windows are read and written through the same interface; every
// access is a full 32-bit word, matching the hardware's access rules
// (the FIFO ports do not support byte access).
//
// Implementations must not buffer or reorder accesses: the driver's
// hardware handshakes depend on reads observing the effect of prior
// writes.
type Bus interface {
	// Read32 returns the word at the given byte offset.
	Read32(offset uint32) uint32

	// Write32 stores a word at the given byte offset.
	Write32(offset, value uint32)
}

// Set sets bits in the register at offset (read-modify-write).
func Set(b Bus, offset, bits uint32) {
	b.Write32(offset, b.Read32(offset)|bits)
}

// Clear clears bits in the register at offset (read-modify-write).
func Clear(b Bus, offset, bits uint32) {
	b.Write32(offset, b.Read32(offset)&^bits)
}

// Wait polls the register at offset until the masked value equals want,
// or until the spin bound expires. It reports whether the condition was
// observed. A bound of zero or less never observes anything.
func Wait(b Bus, offset, mask, want uint32, spins int) bool {
	for i := 0; i < spins; i++ {
		if b.Read32(offset)&mask == want {
			return true
		}
	}
	return false
}

// WaitSet polls until all bits are set in the register at offset.
func WaitSet(b Bus, offset, bits uint32, spins int) bool {
	return Wait(b, offset, bits, bits, spins)
}

// WaitClear polls until all bits are clear in the register at offset.
func WaitClear(b Bus, offset, bits uint32, spins int) bool {
	return Wait(b, offset, bits, 0, spins)
}
