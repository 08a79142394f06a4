package dwc2

import (
	"fmt"
	"time"

	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
)

// Revision selects the silicon revision of the core, which conditions
// the EP0 SETUP completion behavior of the receive decode path (CID 2.x
// cores do not signal a separate SETUP-complete status for non-zero
// length packets).
type Revision uint8

// Silicon revisions.
const (
	RevisionCID1x Revision = iota // Core ID 1.x (e.g. STM32F1/F4 OTG FS)
	RevisionCID2x                 // Core ID 2.x and later
)

// PowerGate is the platform capability for low-power transitions. The
// core holds the platform out of deep sleep while the bus is active and
// releases it across suspend.
type PowerGate interface {
	// EnterLowPower releases the low-power block: the bus is suspended
	// and the platform may clock-gate or deep-sleep.
	EnterLowPower()

	// ExitLowPower reacquires the low-power block: full clocks are
	// required for bus activity.
	ExitLowPower()
}

// DefaultHandshakeSpins bounds register handshake polling when the
// configuration does not specify a bound.
const DefaultHandshakeSpins = 100000

// Config describes one DWC2 peripheral instance.
type Config struct {
	// Bus is the register access capability (required).
	Bus regs.Bus

	// NumEndpoints is the number of hardware endpoints per direction,
	// including endpoint 0 (required, at most 16).
	NumEndpoints int

	// TotalFIFOSize is the shared FIFO memory of the core in bytes
	// (required). Receive and all transmit regions are carved from it.
	TotalFIFOSize int

	// RxFIFOSize is the receive FIFO depth in words (required).
	RxFIFOSize int

	// HighSpeed configures the core for high-speed operation.
	HighSpeed bool

	// UseDMA enables the core's internal DMA engine. Requires DMAAddr.
	UseDMA bool

	// DMAAddr maps a transfer buffer to the 32-bit bus address the DMA
	// engine uses. Supplied by the platform; required with UseDMA.
	DMAAddr func([]byte) uint32

	// Revision is the silicon revision of the core.
	Revision Revision

	// Power is the optional low-power capability.
	Power PowerGate

	// HandshakeSpins bounds every register handshake poll. Zero selects
	// DefaultHandshakeSpins.
	HandshakeSpins int
}

// Controller is one device-mode DWC2 peripheral instance.
//
// A Controller is created once per physical peripheral and lives for
// the process lifetime. It must not be copied.
type Controller struct {
	cfg Config
	bus regs.Bus

	// FIFO allocation cursor, in words
	fifoPos int

	in  []Endpoint
	out []Endpoint

	suspended bool

	cb   ControllerCallback
	epcb EndpointCallback

	spins int
}

// New creates a controller instance for the given configuration. The
// hardware is not touched until Init.
func New(cfg Config) (*Controller, error) {
	switch {
	case cfg.Bus == nil:
		return nil, fmt.Errorf("nil register bus: %w", pkg.ErrInvalidConfig)
	case cfg.NumEndpoints < 1 || cfg.NumEndpoints > 16:
		return nil, fmt.Errorf("%d endpoints: %w", cfg.NumEndpoints, pkg.ErrInvalidConfig)
	case cfg.RxFIFOSize <= 0:
		return nil, fmt.Errorf("receive FIFO size %d: %w", cfg.RxFIFOSize, pkg.ErrInvalidConfig)
	case cfg.TotalFIFOSize < 4*(cfg.RxFIFOSize+minFIFOWords):
		return nil, fmt.Errorf("total FIFO size %d below receive and endpoint 0 reservations: %w",
			cfg.TotalFIFOSize, pkg.ErrInvalidConfig)
	case cfg.UseDMA && cfg.DMAAddr == nil:
		return nil, fmt.Errorf("DMA mode without address mapper: %w", pkg.ErrInvalidConfig)
	}

	spins := cfg.HandshakeSpins
	if spins <= 0 {
		spins = DefaultHandshakeSpins
	}

	c := &Controller{
		cfg:   cfg,
		bus:   cfg.Bus,
		in:    make([]Endpoint, cfg.NumEndpoints),
		out:   make([]Endpoint, cfg.NumEndpoints),
		spins: spins,
	}
	for i := range c.in {
		c.in[i] = Endpoint{num: i, dir: DirIn, ctrl: c}
		c.out[i] = Endpoint{num: i, dir: DirOut, ctrl: c}
	}
	return c, nil
}

// SetCallbacks installs the upper stack's event callbacks. Must be
// called before Init so no dispatched event is lost.
func (c *Controller) SetCallbacks(cb ControllerCallback, epcb EndpointCallback) {
	c.cb = cb
	c.epcb = epcb
}

// Interrupts unmasked by Init. The receive-level interrupt is added in
// non-DMA mode only.
const coreInterruptMask = regs.GINTSTS_USBSUSP |
	regs.GINTSTS_WKUINT |
	regs.GINTSTS_ENUMDNE |
	regs.GINTSTS_USBRST |
	regs.GINTSTS_OTGINT |
	regs.GINTSTS_IEPINT |
	regs.GINTSTS_OEPINT

// Init brings the controller to a configured, interrupt-enabled,
// address-0, device-mode state. Board bring-up (clock gating, pin mux,
// PHY selection) must have been done by the platform already.
func (c *Controller) Init() error {
	if c.cfg.Power != nil {
		c.cfg.Power.ExitLowPower()
	}

	if err := c.coreReset(); err != nil {
		return err
	}

	// Reset clock gating
	c.bus.Write32(regs.PCGCCTL, 0)

	c.forceDeviceMode()

	// No HNP/SRP: device-only operation
	regs.Clear(c.bus, regs.GUSBCFG, regs.GUSBCFG_HNPCAP|regs.GUSBCFG_SRPCAP)

	speed := uint32(regs.DSPD_Full)
	if c.cfg.HighSpeed {
		speed = regs.DSPD_High
	}
	regs.Set(c.bus, regs.DCFG, speed)

	c.configureFIFO()

	if err := c.flushRxFIFO(); err != nil {
		return err
	}
	if err := c.flushTxFIFO(regs.FlushAll); err != nil {
		return err
	}

	// Turnaround time per the reference manual tables: 0x06 for 32 MHz
	// or higher AHB frequency, 0x09 for 24 MHz.
	trdt := uint32(0x06)
	if c.cfg.HighSpeed {
		trdt = 0x09
	}
	c.bus.Write32(regs.GUSBCFG,
		c.bus.Read32(regs.GUSBCFG)&^regs.GUSBCFG_TRDT_Msk|trdt<<regs.GUSBCFG_TRDT_Pos)

	c.resetEndpoints()

	if err := c.clearGlobalNAK(DirIn); err != nil {
		return err
	}
	if err := c.clearGlobalNAK(DirOut); err != nil {
		return err
	}

	if c.dma() {
		// DMA configured as 8 x 32-bit accesses. The transfer complete
		// interrupts replace the receive-level decode path.
		regs.Set(c.bus, regs.GAHBCFG,
			regs.GAHBCFG_DMAEN|0x05<<regs.GAHBCFG_HBSTLEN_Pos)
		regs.Set(c.bus, regs.DOEPMSK, regs.DEPMSK_XFRCM)
		regs.Set(c.bus, regs.DIEPMSK, regs.DEPMSK_XFRCM)
	}

	mask := uint32(coreInterruptMask)
	if !c.dma() {
		mask |= regs.GINTSTS_RXFLVL
	}

	// Acknowledge stale flags, then unmask
	c.bus.Write32(regs.GINTSTS, mask)
	regs.Set(c.bus, regs.GINTMSK, mask)

	mode := "device"
	if c.bus.Read32(regs.GINTSTS)&regs.GINTSTS_CMOD != 0 {
		mode = "host"
	}
	pkg.LogDebug(pkg.ComponentController, "peripheral initialized", "mode", mode)

	// Enable interrupt generation; trigger the TxFIFO empty interrupt
	// on a fully empty FIFO.
	regs.Set(c.bus, regs.GAHBCFG, regs.GAHBCFG_GINT|regs.GAHBCFG_TXFELVL)

	return nil
}

// forceDeviceMode forces the OTG core into device mode. The mode switch
// needs a 25 ms settle time before further core access.
func (c *Controller) forceDeviceMode() {
	regs.Set(c.bus, regs.GUSBCFG, regs.GUSBCFG_FDMOD)
	time.Sleep(25 * time.Millisecond)
}

// SetAddress programs the device address.
func (c *Controller) SetAddress(address uint8) {
	c.bus.Write32(regs.DCFG,
		c.bus.Read32(regs.DCFG)&^regs.DCFG_DAD_Msk|
			uint32(address)<<regs.DCFG_DAD_Pos&regs.DCFG_DAD_Msk)
	pkg.LogDebug(pkg.ComponentController, "address assigned", "address", address)
}

// Attach connects to the host by releasing soft disconnect.
func (c *Controller) Attach() {
	pkg.LogDebug(pkg.ComponentController, "attaching to host")
	regs.Clear(c.bus, regs.DCTL, regs.DCTL_SDIS)
}

// Detach disconnects from the host via soft disconnect, without
// removing power.
func (c *Controller) Detach() {
	pkg.LogDebug(pkg.ComponentController, "detaching from host")
	regs.Set(c.bus, regs.DCTL, regs.DCTL_SDIS)
}

// Suspended reports whether the bus is currently suspended.
func (c *Controller) Suspended() bool {
	return c.suspended
}

// dma reports whether the controller operates its internal DMA engine.
func (c *Controller) dma() bool {
	return c.cfg.UseDMA
}

// table returns the endpoint descriptor table for a direction.
func (c *Controller) table(dir Direction) []Endpoint {
	if dir == DirIn {
		return c.in
	}
	return c.out
}

// fault logs and wraps a hardware handshake expiry.
func (c *Controller) fault(op string) error {
	pkg.LogError(pkg.ComponentController, "handshake did not complete", "op", op)
	return fmt.Errorf("%s: %w", op, pkg.ErrHardwareFault)
}
