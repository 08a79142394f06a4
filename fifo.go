package dwc2

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
)

// minFIFOWords is the hardware minimum depth of an individual transmit
// FIFO region.
const minFIFOWords = 16

// configureFIFO sizes the receive FIFO, reserves the minimum-size
// transmit region for endpoint 0 directly above it, and resets the
// allocation cursor to just past those reservations.
//
// FIFO partitioning can only be redone safely while every endpoint is
// disabled, which this driver does not attempt after init: allocation
// is monotonic for the boot cycle.
func (c *Controller) configureFIFO() {
	rx := uint32(c.cfg.RxFIFOSize)
	c.bus.Write32(regs.GRXFSIZ,
		c.bus.Read32(regs.GRXFSIZ)&^uint32(regs.GRXFSIZ_RXFD_Msk)|rx)
	c.bus.Write32(regs.DIEPTXF0, minFIFOWords<<regs.TXF_FD_Pos|rx)
	c.fifoPos = c.cfg.RxFIFOSize + minFIFOWords
}

// reserveTxFIFO allocates a transmit FIFO region for an IN endpoint.
// The requested length is rounded up to words with the hardware minimum
// applied; exceeding the core's total FIFO capacity is a configuration
// fault.
func (c *Controller) reserveTxFIFO(num, length int) error {
	words := (length + 3) / 4
	if words < minFIFOWords {
		words = minFIFOWords
	}

	if (c.fifoPos+words)*4 > c.cfg.TotalFIFOSize {
		pkg.LogError(pkg.ComponentFIFO, "transmit FIFO memory exhausted",
			"num", num, "requested", words, "cursor", c.fifoPos,
			"total", c.cfg.TotalFIFOSize/4)
		return fmt.Errorf("endpoint %d: %d words at %d: %w",
			num, words, c.fifoPos, pkg.ErrFIFOExhausted)
	}

	// FIFO 0 has its own register; the DIEPTXF array starts at FIFO 1.
	c.bus.Write32(regs.DIEPTXF(num),
		uint32(words)<<regs.TXF_FD_Pos|uint32(c.fifoPos))
	pkg.LogDebug(pkg.ComponentFIFO, "transmit FIFO reserved",
		"num", num, "offset", c.fifoPos, "words", words)
	c.fifoPos += words
	return nil
}

// flushTxFIFO flushes one transmit FIFO, or all of them when num is
// regs.FlushAll.
func (c *Controller) flushTxFIFO(num int) error {
	value := c.bus.Read32(regs.GRSTCTL) &^ uint32(regs.GRSTCTL_TXFNUM_Msk)
	value |= uint32(num)<<regs.GRSTCTL_TXFNUM_Pos | regs.GRSTCTL_TXFFLSH
	c.bus.Write32(regs.GRSTCTL, value)
	if !regs.WaitClear(c.bus, regs.GRSTCTL, regs.GRSTCTL_TXFFLSH, c.spins) {
		return c.fault(fmt.Sprintf("transmit FIFO %d flush", num))
	}
	return nil
}

// flushRxFIFO flushes the shared receive FIFO.
func (c *Controller) flushRxFIFO() error {
	regs.Set(c.bus, regs.GRSTCTL, regs.GRSTCTL_RXFFLSH)
	if !regs.WaitClear(c.bus, regs.GRSTCTL, regs.GRSTCTL_RXFFLSH, c.spins) {
		return c.fault("receive FIFO flush")
	}
	return nil
}

// pushTxFIFO copies a transfer buffer into the endpoint's transmit FIFO
// window. The FIFO port requires whole-word writes; the final partial
// word is zero-padded.
func (c *Controller) pushTxFIFO(num int, buf []byte) {
	window := regs.FIFO(num)
	words := (len(buf) + 3) / 4
	for i := 0; i < words; i++ {
		var chunk [4]byte
		copy(chunk[:], buf[i*4:min(len(buf), i*4+4)])
		c.bus.Write32(window+uint32(i)*4, binary.LittleEndian.Uint32(chunk[:]))
	}
}

// popRxFIFO copies length bytes from the shared receive FIFO into buf,
// reading whole words and discarding what does not fit.
func (c *Controller) popRxFIFO(buf []byte, length int) {
	window := regs.FIFO(0)
	words := (length + 3) / 4
	for i := 0; i < words; i++ {
		var chunk [4]byte
		binary.LittleEndian.PutUint32(chunk[:], c.bus.Read32(window+uint32(i)*4))
		if i*4 < len(buf) {
			copy(buf[i*4:min(len(buf), min(length, i*4+4))], chunk[:])
		}
	}
}
