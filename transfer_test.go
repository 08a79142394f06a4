package dwc2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
)

// recordingBus wraps a bus and logs the offset of every write.
type recordingBus struct {
	regs.Bus
	writes []uint32
}

func (b *recordingBus) Write32(offset, value uint32) {
	b.writes = append(b.writes, offset)
	b.Bus.Write32(offset, value)
}

func (b *recordingBus) indexOf(offset uint32) int {
	for i, w := range b.writes {
		if w == offset {
			return i
		}
	}
	return -1
}

func TestTransmitWriteOrder(t *testing.T) {
	c, _ := newTestController(t, nil)

	ep, err := c.AllocateEndpoint(TypeBulk, DirIn, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())

	rec := &recordingBus{Bus: c.bus}
	c.bus = rec
	require.NoError(t, ep.Transmit([]byte{1, 2, 3, 4, 5, 6, 7, 8}))

	tsiz := rec.indexOf(regs.DIEPTSIZ(1))
	empmsk := rec.indexOf(regs.DIEPEMPMSK)
	ctl := rec.indexOf(regs.DIEPCTL(1))
	fifo := rec.indexOf(regs.FIFO(1))
	require.NotEqual(t, -1, tsiz)
	require.NotEqual(t, -1, empmsk)
	require.NotEqual(t, -1, ctl)
	require.NotEqual(t, -1, fifo)

	// Size first, then interrupt unmask, then enable, FIFO fill last.
	assert.Less(t, tsiz, empmsk)
	assert.Less(t, empmsk, ctl)
	assert.Less(t, ctl, fifo)
}

func TestTransferDirectionGuards(t *testing.T) {
	c, _ := newTestController(t, nil)

	in, err := c.AllocateEndpoint(TypeBulk, DirIn, 64)
	require.NoError(t, err)
	out, err := c.AllocateEndpoint(TypeBulk, DirOut, 64)
	require.NoError(t, err)

	require.ErrorIs(t, in.Receive(make([]byte, 64)), pkg.ErrInvalidEndpoint)
	require.ErrorIs(t, out.Transmit([]byte{1}), pkg.ErrInvalidEndpoint)

	// Not activated yet: the hardware must not be touched
	require.ErrorIs(t, in.Transmit([]byte{1}), pkg.ErrEndpointNotActive)
	require.ErrorIs(t, out.Receive(make([]byte, 64)), pkg.ErrEndpointNotActive)
}

func TestTransmitControlPacketCount(t *testing.T) {
	c, hw := newTestController(t, nil)

	ep, err := c.AllocateEndpoint(TypeControl, DirIn, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())
	require.NoError(t, ep.Transmit(make([]byte, 8)))

	tsiz := hw.Reg(regs.DIEPTSIZ(0))
	assert.Equal(t, uint32(8), tsiz&regs.DEPTSIZ_XFRSIZ_Msk)
	assert.Equal(t, uint32(1), tsiz>>regs.DEPTSIZ_PKTCNT_Pos,
		"control transfers program an explicit packet count")
}

func TestTransmitZeroLength(t *testing.T) {
	c, hw := newTestController(t, nil)

	ep, err := c.AllocateEndpoint(TypeBulk, DirIn, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())
	require.NoError(t, ep.Transmit(nil))

	assert.Zero(t, hw.Reg(regs.DIEPTSIZ(1))&regs.DEPTSIZ_XFRSIZ_Msk)
	assert.Empty(t, hw.TxWords(1), "no FIFO fill for a zero-length packet")
	assert.NotZero(t, hw.Reg(regs.DIEPCTL(1))&regs.DEPCTL_EPENA)
}

func TestReceiveArm(t *testing.T) {
	c, hw := newTestController(t, nil)

	ep, err := c.AllocateEndpoint(TypeBulk, DirOut, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())
	require.NoError(t, ep.Receive(make([]byte, 32)))

	tsiz := hw.Reg(regs.DOEPTSIZ(1))
	assert.Equal(t, uint32(64), tsiz&regs.DEPTSIZ_XFRSIZ_Msk,
		"armed size is the endpoint maximum, not the buffer length")
	assert.Equal(t, uint32(1),
		tsiz>>regs.DEPTSIZ_PKTCNT_Pos&0x3FF)

	ctl := hw.Reg(regs.DOEPCTL(1))
	assert.NotZero(t, ctl&regs.DEPCTL_EPENA)
	assert.Equal(t, uint32(regs.EPTypeBulk), ctl&regs.DEPCTL_EPTYP_Msk>>regs.DEPCTL_EPTYP_Pos)
}

func TestReceiveArmControl(t *testing.T) {
	c, hw := newTestController(t, nil)

	ep, err := c.AllocateEndpoint(TypeControl, DirOut, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())
	require.NoError(t, ep.Receive(make([]byte, 64)))

	assert.NotZero(t, hw.Reg(regs.DOEPTSIZ(0))>>regs.DOEPTSIZ_STUPCNT_Pos,
		"endpoint 0 arms SETUP recognition")
}

func TestReceiveDataAndComplete(t *testing.T) {
	c, hw := newTestController(t, nil)
	events := &recorder{}
	events.install(c)

	ep, err := c.AllocateEndpoint(TypeBulk, DirOut, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())

	buf := make([]byte, 64)
	require.NoError(t, ep.Receive(buf))

	payload := []byte("ten--bytes")
	hw.PushRx(1, regs.PktStsDataUpdate, payload)
	hw.PushRx(1, regs.PktStsTransferComp, nil)

	service(c)
	assert.Equal(t, payload, buf[:len(payload)], "payload copied into the armed buffer")
	assert.Zero(t, events.completions(), "data update alone does not complete")

	got, err := ep.Option(OptionAvailable)
	require.NoError(t, err)
	assert.Equal(t, len(payload), got)

	service(c)
	assert.Equal(t, 1, events.completions())
	assert.Equal(t, 0, hw.Pending())
}

func TestReceiveZeroLength(t *testing.T) {
	c, hw := newTestController(t, nil)
	events := &recorder{}
	events.install(c)

	ep, err := c.AllocateEndpoint(TypeBulk, DirOut, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())
	require.NoError(t, ep.Receive(make([]byte, 64)))

	// A zero-length packet produces only the completion entry.
	hw.PushRx(1, regs.PktStsTransferComp, nil)
	service(c)

	assert.Equal(t, 1, events.completions())
}

func TestSetupCompletionByRevision(t *testing.T) {
	setup := []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x40, 0x00}

	for _, tt := range []struct {
		name      string
		revision  Revision
		immediate bool
	}{
		{"CID 1.x waits for SETUP complete", RevisionCID1x, false},
		{"CID 2.x completes on the data update", RevisionCID2x, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c, hw := newTestController(t, func(cfg *Config) { cfg.Revision = tt.revision })
			events := &recorder{}
			events.install(c)

			ep, err := c.AllocateEndpoint(TypeControl, DirOut, 64)
			require.NoError(t, err)
			require.NoError(t, ep.Activate())

			buf := make([]byte, 64)
			require.NoError(t, ep.Receive(buf))

			hw.PushRx(0, regs.PktStsSetupUpdate, setup)
			service(c)

			assert.Equal(t, setup, buf[:len(setup)])
			if tt.immediate {
				assert.Equal(t, 1, events.completions())
				return
			}
			assert.Zero(t, events.completions())

			hw.PushRx(0, regs.PktStsSetupComp, nil)
			service(c)
			assert.Equal(t, 1, events.completions())
		})
	}
}

func TestTransmitCompletion(t *testing.T) {
	c, hw := newTestController(t, nil)
	events := &recorder{}
	events.install(c)

	ep, err := c.AllocateEndpoint(TypeBulk, DirIn, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())
	require.NoError(t, ep.Transmit([]byte{1, 2, 3, 4}))

	assert.NotZero(t, hw.Reg(regs.DIEPEMPMSK)&(1<<1), "empty interrupt armed")

	hw.RaiseIn(1, regs.DIEPINT_TXFE)
	service(c)

	assert.Equal(t, 1, events.completions())
	assert.Equal(t, 1, events.ep[0].num)
	assert.Equal(t, DirIn, events.ep[0].dir)
	assert.Zero(t, hw.Reg(regs.DIEPEMPMSK)&(1<<1),
		"empty interrupt masked until the next transmit")
}

func TestTransmitCompletionDMA(t *testing.T) {
	var mapped []uint32
	c, hw := newTestController(t, func(cfg *Config) {
		cfg.UseDMA = true
		cfg.DMAAddr = func(buf []byte) uint32 {
			addr := 0x2000_0000 + uint32(len(mapped))*0x100
			mapped = append(mapped, addr)
			return addr
		}
	})
	events := &recorder{}
	events.install(c)

	ep, err := c.AllocateEndpoint(TypeBulk, DirIn, 64)
	require.NoError(t, err)
	require.NoError(t, ep.Activate())
	require.NoError(t, ep.Transmit([]byte{1, 2, 3, 4}))

	require.Len(t, mapped, 1)
	assert.Equal(t, mapped[0], hw.Reg(regs.DIEPDMA(1)))
	assert.Empty(t, hw.TxWords(1), "the DMA engine fills the FIFO itself")

	hw.RaiseIn(1, regs.DIEPINT_XFRC)
	service(c)
	assert.Equal(t, 1, events.completions())
}
