package dwc2

import (
	"math/bits"

	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
)

// ISR is the top-level interrupt entry point, called once per hardware
// interrupt assertion. It classifies the pending condition and raises
// EventServiceRequired on either the controller or the affected
// endpoint; the actual servicing is deferred to ServiceController and
// ServiceEndpoint so platforms can run it outside strict interrupt
// context.
//
// Global interrupt generation is gated off on dispatch and re-enabled
// at the end of the service call; that gate is the driver's only
// concurrency guard.
func (c *Controller) ISR() {
	status := c.bus.Read32(regs.GINTSTS)
	if status == 0 {
		return
	}

	switch {
	case status&regs.GINTSTS_RXFLVL != 0 && !c.dma():
		// Peek at the endpoint number in the not-yet-consumed status
		// word; the pop happens in the decode step.
		num := int(c.bus.Read32(regs.GRXSTSR) & regs.GRXSTSP_EPNUM_Msk)
		if num < len(c.out) {
			c.fireEndpoint(&c.out[num], EventServiceRequired)
		}

	case status&(regs.GINTSTS_OEPINT|regs.GINTSTS_IEPINT) != 0:
		c.dispatchEndpoint()

	default:
		c.fireController(EventServiceRequired)
	}

	regs.Clear(c.bus, regs.GAHBCFG, regs.GAHBCFG_GINT)
}

// dispatchEndpoint routes the lowest-numbered pending endpoint
// interrupt: IN endpoints occupy the low half of the bitmap, OUT
// endpoints the high half.
func (c *Controller) dispatchEndpoint() {
	active := c.bus.Read32(regs.DAINT)
	if active == 0 {
		return
	}
	num := bits.TrailingZeros32(active)
	switch {
	case num >= regs.DAINT_OUT_Pos && num-regs.DAINT_OUT_Pos < len(c.out):
		c.fireEndpoint(&c.out[num-regs.DAINT_OUT_Pos], EventServiceRequired)
	case num < len(c.in):
		c.fireEndpoint(&c.in[num], EventServiceRequired)
	}
}

// ServiceController decodes and handles the pending bus-level event:
// reset sequencing, suspend with clock gating, resume, and session
// request. Called by the upper stack in response to a controller-level
// EventServiceRequired.
//
// When both reset-start and reset-done are pending, reset-done wins:
// they cannot both be meaningfully acted on.
func (c *Controller) ServiceController() {
	status := c.bus.Read32(regs.GINTSTS)
	var handled uint32

	switch {
	case status&regs.GINTSTS_ENUMDNE != 0:
		handled = regs.GINTSTS_ENUMDNE
		pkg.LogDebug(pkg.ComponentIRQ, "reset done")
		c.fireController(EventResetComplete)

	case status&regs.GINTSTS_USBRST != 0:
		handled = regs.GINTSTS_USBRST
		pkg.LogDebug(pkg.ComponentIRQ, "reset start")
		if c.suspended {
			c.suspended = false
			c.logFault(c.wake())
		}
		// Reset all the things
		c.logFault(c.flushRxFIFO())
		c.logFault(c.flushTxFIFO(regs.FlushAll))
		c.resetEndpoints()
		c.SetAddress(0)

	case status&regs.GINTSTS_SRQINT != 0:
		handled = regs.GINTSTS_SRQINT
		pkg.LogDebug(pkg.ComponentIRQ, "session request")

	case status&regs.GINTSTS_USBSUSP != 0:
		handled = regs.GINTSTS_USBSUSP
		if !c.suspended {
			c.fireController(EventSuspend)
			c.suspended = true
			c.sleep()
		}

	case status&regs.GINTSTS_WKUINT != 0:
		handled = regs.GINTSTS_WKUINT
		if c.suspended {
			// Clear the flag before waking so a re-entrant wake is a
			// no-op; the event fires only after clocks are restored.
			c.suspended = false
			c.logFault(c.wake())
			c.fireController(EventResume)
		}
	}

	c.bus.Write32(regs.GINTSTS, handled)
	regs.Set(c.bus, regs.GAHBCFG, regs.GAHBCFG_GINT)
}

// ServiceEndpoint handles the pending condition on one endpoint: IN
// completions via the FIFO-empty (non-DMA) or transfer-complete (DMA)
// interrupts, OUT packets via the receive status decode (non-DMA) or
// the transfer-complete interrupt (DMA). Called by the upper stack in
// response to a per-endpoint EventServiceRequired.
//
// Control transfers behave slightly differently with the interrupts,
// so a number of conditionals filter interrupts to events.
func (c *Controller) ServiceEndpoint(ep *Endpoint) {
	if ep.dir == DirIn {
		status := c.bus.Read32(regs.DIEPINT(ep.num))

		switch {
		case status&regs.DIEPINT_XFRC != 0 && c.dma():
			c.bus.Write32(regs.DIEPINT(ep.num), regs.DIEPINT_XFRC)
			if ep.num != 0 {
				c.fireEndpoint(ep, EventTransferComplete)
			}

		case status&regs.DIEPINT_TXFE != 0:
			// Empty interrupt fires once per transfer; mask it until
			// the next transmit arms it again.
			regs.Clear(c.bus, regs.DIEPEMPMSK, uint32(1)<<ep.num)
			c.fireEndpoint(ep, EventTransferComplete)
		}
	} else {
		switch {
		case !c.dma() &&
			c.bus.Read32(regs.GINTSTS)&regs.GINTSTS_RXFLVL != 0 &&
			int(c.bus.Read32(regs.GRXSTSR)&regs.GRXSTSP_EPNUM_Msk) == ep.num:
			ep.readPacket()

		case c.bus.Read32(regs.DOEPINT(ep.num))&regs.DOEPINT_XFRC != 0:
			c.bus.Write32(regs.DOEPINT(ep.num), regs.DOEPINT_XFRC)
			// Transfer complete is only reliable with DMA
			if c.dma() {
				c.fireEndpoint(ep, EventTransferComplete)
			}
		}
	}

	regs.Set(c.bus, regs.GAHBCFG, regs.GAHBCFG_GINT)
}

// logFault records a hardware handshake failure from a service path,
// which has no error return to surface it through.
func (c *Controller) logFault(err error) {
	if err != nil {
		pkg.LogError(pkg.ComponentIRQ, "service fault", "err", err)
	}
}
