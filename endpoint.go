package dwc2

import (
	"fmt"

	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
)

// Direction identifies the direction of an endpoint.
type Direction uint8

// Endpoint directions.
const (
	DirOut Direction = iota // Host to device
	DirIn                   // Device to host
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	if d == DirIn {
		return "IN"
	}
	return "OUT"
}

// TransferType identifies the transfer type of an endpoint. The zero
// value TypeNone marks an unassigned endpoint descriptor.
type TransferType uint8

// Transfer types.
const (
	TypeNone        TransferType = iota // Unassigned
	TypeControl                         // Control transfer
	TypeIsochronous                     // Isochronous transfer
	TypeBulk                            // Bulk transfer
	TypeInterrupt                       // Interrupt transfer
)

// String returns a human-readable transfer type name.
func (t TransferType) String() string {
	switch t {
	case TypeControl:
		return "Control"
	case TypeIsochronous:
		return "Isochronous"
	case TypeBulk:
		return "Bulk"
	case TypeInterrupt:
		return "Interrupt"
	case TypeNone:
		return "None"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// bits returns the DEPCTL.EPTYP encoding of the transfer type.
func (t TransferType) bits() uint32 {
	switch t {
	case TypeIsochronous:
		return regs.EPTypeIso << regs.DEPCTL_EPTYP_Pos
	case TypeBulk:
		return regs.EPTypeBulk << regs.DEPCTL_EPTYP_Pos
	case TypeInterrupt:
		return regs.EPTypeInterrupt << regs.DEPCTL_EPTYP_Pos
	default:
		return regs.EPTypeControl << regs.DEPCTL_EPTYP_Pos
	}
}

// ep0SizeBits returns the DEPCTL.MPSIZ encoding used by endpoint 0,
// which supports only the four fixed control packet sizes.
func ep0SizeBits(size int) uint32 {
	switch size {
	case 8:
		return regs.EP0Size8
	case 16:
		return regs.EP0Size16
	case 32:
		return regs.EP0Size32
	default:
		return regs.EP0Size64
	}
}

// Endpoint represents one direction of one endpoint number. Descriptors
// are owned by the controller; AllocateEndpoint hands out references.
type Endpoint struct {
	num    int
	dir    Direction
	typ    TransferType
	maxLen int
	ctrl   *Controller

	// Borrowed destination for the in-flight OUT transfer (non-DMA).
	// The caller must not touch the buffer until completion is
	// signaled.
	outBuf []byte
}

// Number returns the endpoint number.
func (e *Endpoint) Number() int { return e.num }

// Direction returns the endpoint direction.
func (e *Endpoint) Direction() Direction { return e.dir }

// Type returns the endpoint transfer type, or TypeNone before
// assignment.
func (e *Endpoint) Type() TransferType { return e.typ }

// MaxPacketSize returns the endpoint's maximum packet length.
func (e *Endpoint) MaxPacketSize() int { return e.maxLen }

// Controller returns the owning controller.
func (e *Endpoint) Controller() *Controller { return e.ctrl }

// AllocateEndpoint returns a descriptor for a new endpoint of the given
// type, direction, and maximum packet length.
//
// Control endpoints resolve to the pre-assigned endpoint 0 descriptor of
// the requested direction; repeated control allocations return the same
// descriptor. Other types claim the first unassigned descriptor of the
// direction, and IN endpoints additionally reserve a transmit FIFO
// region. Assignment is permanent: there is no deallocation until the
// controller is reset.
func (c *Controller) AllocateEndpoint(typ TransferType, dir Direction, maxLen int) (*Endpoint, error) {
	if typ == TypeNone {
		return nil, fmt.Errorf("allocate type none: %w", pkg.ErrInvalidEndpoint)
	}

	if typ == TypeControl {
		switch maxLen {
		case 8, 16, 32, 64:
		default:
			return nil, fmt.Errorf("control packet size %d: %w", maxLen, pkg.ErrInvalidEndpoint)
		}
		ep := &c.table(dir)[0]
		if ep.typ == TypeNone {
			ep.typ = TypeControl
			ep.maxLen = maxLen
		}
		return ep, nil
	}

	// First unassigned descriptor with matching direction
	table := c.table(dir)
	for i := 1; i < len(table); i++ {
		ep := &table[i]
		if ep.typ != TypeNone {
			continue
		}
		if dir == DirIn {
			if err := c.reserveTxFIFO(i, maxLen); err != nil {
				return nil, err
			}
		}
		ep.typ = typ
		ep.maxLen = maxLen
		pkg.LogDebug(pkg.ComponentEndpoint, "endpoint allocated",
			"num", i, "dir", dir.String(), "type", typ.String(), "maxlen", maxLen)
		return ep, nil
	}

	return nil, fmt.Errorf("%s %s: %w", typ, dir, pkg.ErrNoFreeEndpoint)
}

// setGlobalNAK asserts the global NAK for an entire direction. It is
// idempotent and spins until the hardware acknowledges the NAK state.
func (c *Controller) setGlobalNAK(dir Direction) error {
	stsBit, setBit := uint32(regs.DCTL_GONSTS), uint32(regs.DCTL_SGONAK)
	if dir == DirIn {
		stsBit, setBit = regs.DCTL_GINSTS, regs.DCTL_SGINAK
	}
	if c.bus.Read32(regs.DCTL)&stsBit != 0 {
		return nil
	}
	regs.Set(c.bus, regs.DCTL, setBit)
	if !regs.WaitSet(c.bus, regs.DCTL, stsBit, c.spins) {
		return c.fault(fmt.Sprintf("global %s NAK assert", dir))
	}
	return nil
}

// clearGlobalNAK releases the global NAK for an entire direction.
// Idempotent, spinning like setGlobalNAK.
func (c *Controller) clearGlobalNAK(dir Direction) error {
	stsBit, clrBit := uint32(regs.DCTL_GONSTS), uint32(regs.DCTL_CGONAK)
	if dir == DirIn {
		stsBit, clrBit = regs.DCTL_GINSTS, regs.DCTL_CGINAK
	}
	if c.bus.Read32(regs.DCTL)&stsBit == 0 {
		return nil
	}
	regs.Set(c.bus, regs.DCTL, clrBit)
	if !regs.WaitClear(c.bus, regs.DCTL, stsBit, c.spins) {
		return c.fault(fmt.Sprintf("global %s NAK release", dir))
	}
	return nil
}

// disable aborts any transfer on an enabled endpoint. The endpoint
// still responds to traffic afterwards. The sequence is mandated by the
// hardware: global NAK first, otherwise disabling an endpoint that owns
// the bus corrupts in-flight data.
func (e *Endpoint) disable() error {
	c := e.ctrl
	ctl := regs.DOEPCTL(e.num)
	if e.dir == DirIn {
		ctl = regs.DIEPCTL(e.num)
	}
	if c.bus.Read32(ctl)&regs.DEPCTL_EPENA == 0 {
		return nil
	}
	pkg.LogDebug(pkg.ComponentEndpoint, "disabling endpoint",
		"num", e.num, "dir", e.dir.String())

	if err := c.setGlobalNAK(e.dir); err != nil {
		return err
	}
	if e.dir == DirIn {
		// Clear pending data. OUT endpoints need no flush here.
		if err := c.flushTxFIFO(e.num); err != nil {
			return err
		}
	}
	regs.Set(c.bus, ctl, regs.DEPCTL_EPDIS|regs.DEPCTL_SNAK)
	if !regs.WaitClear(c.bus, ctl, regs.DEPCTL_EPDIS, c.spins) {
		return c.fault(fmt.Sprintf("endpoint %d %s disable", e.num, e.dir))
	}
	return c.clearGlobalNAK(e.dir)
}

// Activate enables the endpoint: unmasks its interrupt, programs the
// control register with NAK set, transfer type, and packet size, and
// resets the data toggle to DATA0 for non-zero endpoints.
func (e *Endpoint) Activate() error {
	if e.typ == TypeNone {
		return fmt.Errorf("activate unassigned endpoint: %w", pkg.ErrInvalidEndpoint)
	}
	c := e.ctrl
	if err := e.disable(); err != nil {
		return err
	}

	if e.dir == DirIn {
		regs.Set(c.bus, regs.DAINTMSK, uint32(1)<<e.num)
		ctl := regs.DEPCTL_SNAK | regs.DEPCTL_USBAEP | e.typ.bits() |
			uint32(e.num)<<regs.DEPCTL_TXFNUM_Pos
		if e.num == 0 {
			ctl |= ep0SizeBits(e.maxLen)
		} else {
			ctl |= uint32(e.maxLen) & regs.DEPCTL_MPSIZ_Msk
			ctl |= regs.DEPCTL_SD0PID
		}
		regs.Set(c.bus, regs.DIEPCTL(e.num), ctl)
	} else {
		regs.Set(c.bus, regs.DAINTMSK, uint32(1)<<(e.num+regs.DAINT_OUT_Pos))
		ctl := uint32(regs.DEPCTL_SNAK | regs.DEPCTL_USBAEP)
		if e.num == 0 {
			ctl |= ep0SizeBits(e.maxLen)
		} else {
			ctl |= uint32(e.maxLen) & regs.DEPCTL_MPSIZ_Msk
			ctl |= regs.DEPCTL_SD0PID
		}
		regs.Set(c.bus, regs.DOEPCTL(e.num), ctl)
	}
	pkg.LogDebug(pkg.ComponentEndpoint, "endpoint activated",
		"num", e.num, "dir", e.dir.String(), "type", e.typ.String())
	return nil
}

// Deactivate disables the endpoint, discarding any in-flight transfer.
func (e *Endpoint) Deactivate() error {
	if err := e.disable(); err != nil {
		return err
	}
	c := e.ctrl
	if e.dir == DirIn {
		regs.Clear(c.bus, regs.DIEPCTL(e.num), regs.DEPCTL_USBAEP)
	} else {
		regs.Clear(c.bus, regs.DOEPCTL(e.num), regs.DEPCTL_USBAEP)
	}
	return nil
}

// SetStall sets or clears the stall handshake for a non-zero endpoint.
// Clearing the stall forces the data toggle back to DATA0, since stall
// semantics discard in-flight sequencing. Endpoint 0 stalls through
// Controller.StallControl instead.
func (e *Endpoint) SetStall(enable bool) error {
	if e.num == 0 {
		return fmt.Errorf("stall endpoint 0 via StallControl: %w", pkg.ErrInvalidEndpoint)
	}
	c := e.ctrl
	ctl := regs.DOEPCTL(e.num)
	if e.dir == DirIn {
		ctl = regs.DIEPCTL(e.num)
	}
	if enable {
		if err := e.disable(); err != nil {
			return err
		}
		regs.Set(c.bus, ctl, regs.DEPCTL_STALL)
	} else {
		value := c.bus.Read32(ctl)
		value &^= regs.DEPCTL_STALL
		value |= regs.DEPCTL_SD0PID
		c.bus.Write32(ctl, value)
	}
	pkg.LogDebug(pkg.ComponentEndpoint, "endpoint stall",
		"num", e.num, "dir", e.dir.String(), "enable", enable)
	return nil
}

// StallControl stalls both directions of endpoint 0. The hardware
// clears the stall automatically when the next SETUP is received.
func (c *Controller) StallControl() {
	regs.Set(c.bus, regs.DIEPCTL(0), regs.DEPCTL_STALL)
	regs.Set(c.bus, regs.DOEPCTL(0), regs.DEPCTL_STALL)
}

// resetEndpoints returns every endpoint to the NAK state and reassigns
// the transmit FIFO bank numbers, as required after a bus reset.
func (c *Controller) resetEndpoints() {
	for i := 0; i < c.cfg.NumEndpoints; i++ {
		regs.Set(c.bus, regs.DOEPCTL(i), regs.DEPCTL_SNAK)
		regs.Set(c.bus, regs.DIEPCTL(i), regs.DEPCTL_SNAK)
		regs.Set(c.bus, regs.DIEPCTL(i), uint32(i)<<regs.DEPCTL_TXFNUM_Pos)
	}
}
