package sim

import (
	"encoding/binary"

	"github.com/ardnew/dwc2/regs"
)

// Raise asserts core-level interrupt bits in GINTSTS. They stay pending
// until the driver acknowledges them with a write-1-to-clear.
func (c *Controller) Raise(bits uint32) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.events |= bits
}

// RaiseIn asserts interrupt bits for an IN endpoint. The endpoint summary
// bits of GINTSTS and DAINT follow from the mask registers.
func (c *Controller) RaiseIn(num int, bits uint32) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.mem[regs.DIEPINT(num)] |= bits
}

// RaiseOut asserts interrupt bits for an OUT endpoint.
func (c *Controller) RaiseOut(num int, bits uint32) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.mem[regs.DOEPINT(num)] |= bits
}

// PushRx queues one receive status entry for an OUT endpoint. The packet
// status code is one of the regs.PktSts values; payload carries the data
// words for update entries and must be empty for completion entries.
//
// For data and SETUP updates the endpoint's OUT transfer size register is
// decremented by the payload length, mirroring the hardware's count-down
// of the armed transfer size.
func (c *Controller) PushRx(num int, pktsts uint32, payload []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	words := make([]uint32, (len(payload)+3)/4)
	for i := range words {
		var chunk [4]byte
		copy(chunk[:], payload[i*4:min(len(payload), i*4+4)])
		words[i] = binary.LittleEndian.Uint32(chunk[:])
	}

	status := uint32(num) & regs.GRXSTSP_EPNUM_Msk
	status |= uint32(len(payload)) << regs.GRXSTSP_BCNT_Pos & regs.GRXSTSP_BCNT_Msk
	status |= pktsts << regs.GRXSTSP_PKTSTS_Pos & regs.GRXSTSP_PKTSTS_Msk
	c.rxQueue = append(c.rxQueue, rxEntry{status: status, payload: words})

	if pktsts == regs.PktStsDataUpdate || pktsts == regs.PktStsSetupUpdate {
		tsiz := c.mem[regs.DOEPTSIZ(num)]
		remaining := tsiz & regs.DEPTSIZ_XFRSIZ_Msk
		if uint32(len(payload)) < remaining {
			remaining -= uint32(len(payload))
		} else {
			remaining = 0
		}
		c.mem[regs.DOEPTSIZ(num)] = tsiz&^regs.DEPTSIZ_XFRSIZ_Msk | remaining
	}
}

// TxWords returns the words captured from the given transmit FIFO bank
// since the last flush.
func (c *Controller) TxWords(num int) []uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]uint32(nil), c.txFIFO[num]...)
}

// TxBytes returns the captured transmit FIFO contents of the given bank
// as bytes, truncated to n.
func (c *Controller) TxBytes(num, n int) []byte {
	words := c.TxWords(num)
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	if n < len(buf) {
		buf = buf[:n]
	}
	return buf
}

// Reg returns the raw stored value of a register without the read side
// effects of Read32 (status queue pops, FIFO pops, derived bits).
func (c *Controller) Reg(offset uint32) uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.mem[offset]
}

// Pending reports how many receive status entries are queued.
func (c *Controller) Pending() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.rxQueue)
}
