package dwc2

import (
	"fmt"

	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
)

// Transmit programs one IN transfer of buf on the endpoint. It returns
// pkg.ErrEndpointNotActive when the endpoint is not activated, without
// touching the hardware.
//
// Completion is signaled via EventTransferComplete (after an
// EventServiceRequired round-trip through the dispatcher); the caller
// must not start another transfer on this endpoint before then.
func (e *Endpoint) Transmit(buf []byte) error {
	if e.dir != DirIn {
		return fmt.Errorf("transmit on %s endpoint %d: %w", e.dir, e.num, pkg.ErrInvalidEndpoint)
	}
	c := e.ctrl

	if c.bus.Read32(regs.DIEPCTL(e.num))&regs.DEPCTL_USBAEP == 0 {
		return fmt.Errorf("endpoint %d IN: %w", e.num, pkg.ErrEndpointNotActive)
	}

	if c.dma() {
		c.bus.Write32(regs.DIEPDMA(e.num), c.cfg.DMAAddr(buf))
	}

	// The order here is load-bearing: size and packet count first, then
	// NAK clear and enable, then the FIFO fill. Unmasking the empty
	// interrupt after the FIFO is filled does not reliably trigger.

	// Packet count does not decrement below 1 outside of control
	// transfers and DMA, so only those program an explicit count;
	// the hardware computes it from the size otherwise.
	tsiz := uint32(len(buf)) & regs.DEPTSIZ_XFRSIZ_Msk
	if e.num == 0 || c.dma() {
		tsiz |= 1 << regs.DEPTSIZ_PKTCNT_Pos
	}
	c.bus.Write32(regs.DIEPTSIZ(e.num), tsiz)

	regs.Set(c.bus, regs.DAINTMSK, uint32(1)<<e.num)
	regs.Set(c.bus, regs.DIEPEMPMSK, uint32(1)<<e.num)

	regs.Set(c.bus, regs.DIEPCTL(e.num), regs.DEPCTL_CNAK|regs.DEPCTL_EPENA)

	// In DMA mode the engine fills the FIFO itself.
	if len(buf) > 0 && !c.dma() {
		c.pushTxFIFO(e.num, buf)
	}

	pkg.LogDebug(pkg.ComponentTransfer, "transmit armed",
		"num", e.num, "len", len(buf))
	return nil
}

// Receive arms one OUT transfer into buf on the endpoint, to be filled
// when the host sends data. It returns pkg.ErrEndpointNotActive when
// the endpoint is not activated, without touching the hardware.
//
// The descriptor borrows buf until EventTransferComplete fires; the
// caller must not touch it in between.
func (e *Endpoint) Receive(buf []byte) error {
	if e.dir != DirOut {
		return fmt.Errorf("receive on %s endpoint %d: %w", e.dir, e.num, pkg.ErrInvalidEndpoint)
	}
	c := e.ctrl

	if c.bus.Read32(regs.DOEPCTL(e.num))&regs.DEPCTL_USBAEP == 0 {
		return fmt.Errorf("endpoint %d OUT: %w", e.num, pkg.ErrEndpointNotActive)
	}

	if c.dma() {
		c.bus.Write32(regs.DOEPDMA(e.num), c.cfg.DMAAddr(buf))
	} else {
		e.outBuf = buf
	}

	// One packet of at most the endpoint's maximum length. Endpoint 0
	// additionally arms SETUP recognition.
	tsiz := uint32(1)<<regs.DEPTSIZ_PKTCNT_Pos |
		uint32(e.maxLen)&regs.DEPTSIZ_XFRSIZ_Msk
	if e.num == 0 {
		tsiz |= 1 << regs.DOEPTSIZ_STUPCNT_Pos
	}
	c.bus.Write32(regs.DOEPTSIZ(e.num), tsiz)

	regs.Set(c.bus, regs.DOEPCTL(e.num),
		regs.DEPCTL_CNAK|regs.DEPCTL_EPENA|e.typ.bits())

	pkg.LogDebug(pkg.ComponentTransfer, "receive armed",
		"num", e.num, "len", len(buf))
	return nil
}

// readPacket pops one status word from the shared receive queue and
// acts on it: update codes copy the payload into the armed buffer,
// completion codes raise the transfer-complete event. Zero-length OUT
// transfers signal only the completion code; the update code is skipped
// entirely for them.
func (e *Endpoint) readPacket() {
	c := e.ctrl
	status := c.bus.Read32(regs.GRXSTSP)
	pktsts := status & regs.GRXSTSP_PKTSTS_Msk >> regs.GRXSTSP_PKTSTS_Pos
	length := int(status & regs.GRXSTSP_BCNT_Msk >> regs.GRXSTSP_BCNT_Pos)

	switch pktsts {
	case regs.PktStsDataUpdate, regs.PktStsSetupUpdate:
		c.popRxFIFO(e.outBuf, length)
		// CID 2.x cores do not signal SETUP-complete for non-zero
		// length packets on endpoint 0: complete immediately.
		if c.cfg.Revision == RevisionCID2x && e.num == 0 && length > 0 {
			c.fireEndpoint(e, EventTransferComplete)
		}

	case regs.PktStsTransferComp, regs.PktStsSetupComp:
		c.fireEndpoint(e, EventTransferComplete)

	case regs.PktStsGlobalOutNAK:
		// Informational only at this layer

	default:
		pkg.LogDebug(pkg.ComponentTransfer, "unhandled packet status",
			"num", e.num, "pktsts", pktsts, "len", length)
	}
}
