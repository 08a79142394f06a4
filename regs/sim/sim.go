package sim

import (
	"sync"

	"github.com/ardnew/dwc2/regs"
)

// MaxEndpoints is the number of endpoints per direction the simulator
// models, matching the largest DWC2 instantiations.
const MaxEndpoints = 16

// rxEntry is one entry of the receive status queue: the status word
// followed by the packet payload.
type rxEntry struct {
	status  uint32
	payload []uint32
}

// Controller is a simulated DWC2 register file.
//
// It is safe for use from multiple goroutines, although the driver core
// itself assumes single-context operation.
type Controller struct {
	mutex sync.Mutex

	// Plain register storage
	mem map[uint32]uint32

	// Receive status queue and the payload words of the popped entry
	rxQueue []rxEntry
	rxData  []uint32

	// Captured transmit FIFO words per bank
	txFIFO [MaxEndpoints][]uint32

	// Core-level interrupt bits raised by the test harness
	events uint32
}

// New creates a simulated controller with all registers zeroed.
func New() *Controller {
	return &Controller{mem: make(map[uint32]uint32)}
}

// Read32 implements regs.Bus.
func (c *Controller) Read32(offset uint32) uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch {
	case offset == regs.GRSTCTL:
		return c.mem[offset] | regs.GRSTCTL_AHBIDL

	case offset == regs.GINTSTS:
		return c.interruptStatus()

	case offset == regs.DAINT:
		return c.deviceAllInterrupts()

	case offset == regs.GRXSTSR:
		if len(c.rxQueue) == 0 {
			return 0
		}
		return c.rxQueue[0].status

	case offset == regs.GRXSTSP:
		if len(c.rxQueue) == 0 {
			return 0
		}
		entry := c.rxQueue[0]
		c.rxQueue = c.rxQueue[1:]
		c.rxData = append(c.rxData, entry.payload...)
		return entry.status

	case c.fifoBank(offset) >= 0:
		// Every read of a FIFO window pops the next receive word.
		if len(c.rxData) == 0 {
			return 0
		}
		word := c.rxData[0]
		c.rxData = c.rxData[1:]
		return word
	}

	return c.mem[offset]
}

// Write32 implements regs.Bus.
func (c *Controller) Write32(offset, value uint32) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch {
	case offset == regs.GRSTCTL:
		c.writeResetControl(value)

	case offset == regs.DCTL:
		c.writeDeviceControl(value)

	case offset == regs.GINTSTS:
		// Write-1-to-clear for event bits; level-derived bits are
		// recomputed on every read and cannot be acknowledged away.
		c.events &^= value

	case c.endpointControl(offset):
		if value&regs.DEPCTL_EPDIS != 0 {
			// Disable completes immediately: enable and disable
			// bits both read back clear.
			value &^= regs.DEPCTL_EPDIS | regs.DEPCTL_EPENA
		}
		c.mem[offset] = value

	case c.endpointInterrupt(offset):
		// Write-1-to-clear
		c.mem[offset] &^= value

	case c.fifoBank(offset) >= 0:
		bank := c.fifoBank(offset)
		c.txFIFO[bank] = append(c.txFIFO[bank], value)

	default:
		c.mem[offset] = value
	}
}

// writeResetControl applies GRSTCTL semantics: soft reset and FIFO
// flushes complete before the write returns.
func (c *Controller) writeResetControl(value uint32) {
	if value&regs.GRSTCTL_CSRST != 0 {
		// Core soft reset: all registers return to defaults.
		c.mem = make(map[uint32]uint32)
		c.rxQueue = nil
		c.rxData = nil
		c.events = 0
		return
	}
	if value&regs.GRSTCTL_RXFFLSH != 0 {
		c.rxQueue = nil
		c.rxData = nil
	}
	if value&regs.GRSTCTL_TXFFLSH != 0 {
		num := int(value & regs.GRSTCTL_TXFNUM_Msk >> regs.GRSTCTL_TXFNUM_Pos)
		if num == regs.FlushAll {
			for i := range c.txFIFO {
				c.txFIFO[i] = nil
			}
		} else if num < MaxEndpoints {
			c.txFIFO[num] = nil
		}
	}
	c.mem[regs.GRSTCTL] = value &^ (regs.GRSTCTL_CSRST |
		regs.GRSTCTL_RXFFLSH | regs.GRSTCTL_TXFFLSH)
}

// writeDeviceControl applies DCTL semantics: the global NAK set/clear
// bits are write-only triggers reflected in the status bits.
func (c *Controller) writeDeviceControl(value uint32) {
	status := c.mem[regs.DCTL] & (regs.DCTL_GINSTS | regs.DCTL_GONSTS)
	if value&regs.DCTL_SGINAK != 0 {
		status |= regs.DCTL_GINSTS
	}
	if value&regs.DCTL_CGINAK != 0 {
		status &^= regs.DCTL_GINSTS
	}
	if value&regs.DCTL_SGONAK != 0 {
		status |= regs.DCTL_GONSTS
	}
	if value&regs.DCTL_CGONAK != 0 {
		status &^= regs.DCTL_GONSTS
	}
	value &^= regs.DCTL_SGINAK | regs.DCTL_CGINAK |
		regs.DCTL_SGONAK | regs.DCTL_CGONAK |
		regs.DCTL_GINSTS | regs.DCTL_GONSTS
	c.mem[regs.DCTL] = value | status
}

// interruptStatus derives GINTSTS from raised events, the receive queue,
// and the endpoint interrupt summary.
func (c *Controller) interruptStatus() uint32 {
	status := c.events
	if len(c.rxQueue) > 0 {
		status |= regs.GINTSTS_RXFLVL
	}
	daint := c.deviceAllInterrupts()
	if daint&0xFFFF != 0 {
		status |= regs.GINTSTS_IEPINT
	}
	if daint>>regs.DAINT_OUT_Pos != 0 {
		status |= regs.GINTSTS_OEPINT
	}
	return status
}

// deviceAllInterrupts computes DAINT from the per-endpoint interrupt
// registers and the common masks, gated by DAINTMSK.
func (c *Controller) deviceAllInterrupts() uint32 {
	var daint uint32
	for num := 0; num < MaxEndpoints; num++ {
		in := c.mem[regs.DIEPINT(num)] & c.mem[regs.DIEPMSK]
		if c.mem[regs.DIEPINT(num)]&regs.DIEPINT_TXFE != 0 &&
			c.mem[regs.DIEPEMPMSK]&(uint32(1)<<num) != 0 {
			in |= regs.DIEPINT_TXFE
		}
		if in != 0 {
			daint |= uint32(1) << num
		}
		if c.mem[regs.DOEPINT(num)]&c.mem[regs.DOEPMSK] != 0 {
			daint |= uint32(1) << (num + regs.DAINT_OUT_Pos)
		}
	}
	return daint & c.mem[regs.DAINTMSK]
}

// endpointControl reports whether offset addresses a DIEPCTL or DOEPCTL
// register.
func (c *Controller) endpointControl(offset uint32) bool {
	for num := 0; num < MaxEndpoints; num++ {
		if offset == regs.DIEPCTL(num) || offset == regs.DOEPCTL(num) {
			return true
		}
	}
	return false
}

// endpointInterrupt reports whether offset addresses a DIEPINT or
// DOEPINT register.
func (c *Controller) endpointInterrupt(offset uint32) bool {
	for num := 0; num < MaxEndpoints; num++ {
		if offset == regs.DIEPINT(num) || offset == regs.DOEPINT(num) {
			return true
		}
	}
	return false
}

// fifoBank returns the FIFO bank number addressed by offset, or -1 when
// offset is outside the FIFO windows.
func (c *Controller) fifoBank(offset uint32) int {
	first := regs.FIFO(0)
	last := regs.FIFO(MaxEndpoints)
	if offset < first || offset >= last {
		return -1
	}
	return int((offset - first) / (regs.FIFO(1) - regs.FIFO(0)))
}
