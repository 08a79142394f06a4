package dwc2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
	"github.com/ardnew/dwc2/regs/sim"
)

func TestNewValidation(t *testing.T) {
	hw := sim.New()
	for _, tt := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil bus", func(c *Config) { c.Bus = nil }},
		{"zero endpoints", func(c *Config) { c.NumEndpoints = 0 }},
		{"too many endpoints", func(c *Config) { c.NumEndpoints = 17 }},
		{"zero receive FIFO", func(c *Config) { c.RxFIFOSize = 0 }},
		{"total below reservations", func(c *Config) { c.TotalFIFOSize = 4 * c.RxFIFOSize }},
		{"DMA without mapper", func(c *Config) { c.UseDMA = true }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(hw)
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.ErrorIs(t, err, pkg.ErrInvalidConfig)
		})
	}

	c, err := New(testConfig(hw))
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestInitFullSpeed(t *testing.T) {
	_, hw := newTestController(t, nil)

	usbcfg := hw.Reg(regs.GUSBCFG)
	assert.NotZero(t, usbcfg&regs.GUSBCFG_FDMOD, "device mode forced")
	assert.Zero(t, usbcfg&(regs.GUSBCFG_HNPCAP|regs.GUSBCFG_SRPCAP), "HNP/SRP disabled")
	assert.Equal(t, uint32(0x06), usbcfg&regs.GUSBCFG_TRDT_Msk>>regs.GUSBCFG_TRDT_Pos)

	assert.Equal(t, uint32(regs.DSPD_Full), hw.Reg(regs.DCFG)&regs.DCFG_DSPD_Msk)
	assert.Equal(t, uint32(0), hw.Reg(regs.PCGCCTL))

	mask := hw.Reg(regs.GINTMSK)
	assert.NotZero(t, mask&regs.GINTSTS_USBRST)
	assert.NotZero(t, mask&regs.GINTSTS_ENUMDNE)
	assert.NotZero(t, mask&regs.GINTSTS_USBSUSP)
	assert.NotZero(t, mask&regs.GINTSTS_WKUINT)
	assert.NotZero(t, mask&regs.GINTSTS_RXFLVL, "receive level decode path unmasked without DMA")

	ahb := hw.Reg(regs.GAHBCFG)
	assert.NotZero(t, ahb&regs.GAHBCFG_GINT)
	assert.NotZero(t, ahb&regs.GAHBCFG_TXFELVL)
	assert.Zero(t, ahb&regs.GAHBCFG_DMAEN)
}

func TestInitHighSpeed(t *testing.T) {
	_, hw := newTestController(t, func(c *Config) { c.HighSpeed = true })

	assert.Equal(t, uint32(regs.DSPD_High), hw.Reg(regs.DCFG)&regs.DCFG_DSPD_Msk)
	assert.Equal(t, uint32(0x09),
		hw.Reg(regs.GUSBCFG)&regs.GUSBCFG_TRDT_Msk>>regs.GUSBCFG_TRDT_Pos)
}

func TestInitDMA(t *testing.T) {
	_, hw := newTestController(t, func(c *Config) {
		c.UseDMA = true
		c.DMAAddr = func([]byte) uint32 { return 0x2000_0000 }
	})

	ahb := hw.Reg(regs.GAHBCFG)
	assert.NotZero(t, ahb&regs.GAHBCFG_DMAEN)
	assert.NotZero(t, hw.Reg(regs.DIEPMSK)&regs.DEPMSK_XFRCM)
	assert.NotZero(t, hw.Reg(regs.DOEPMSK)&regs.DEPMSK_XFRCM)
	assert.Zero(t, hw.Reg(regs.GINTMSK)&regs.GINTSTS_RXFLVL,
		"transfer complete interrupts replace the receive level path")
}

func TestSetAddress(t *testing.T) {
	c, hw := newTestController(t, nil)

	c.SetAddress(0x2A)
	assert.Equal(t, uint32(0x2A),
		hw.Reg(regs.DCFG)&regs.DCFG_DAD_Msk>>regs.DCFG_DAD_Pos)

	// Speed bits survive the address update
	assert.Equal(t, uint32(regs.DSPD_Full), hw.Reg(regs.DCFG)&regs.DCFG_DSPD_Msk)

	c.SetAddress(0)
	assert.Zero(t, hw.Reg(regs.DCFG)&regs.DCFG_DAD_Msk)
}

func TestAttachDetach(t *testing.T) {
	c, hw := newTestController(t, nil)

	c.Detach()
	assert.NotZero(t, hw.Reg(regs.DCTL)&regs.DCTL_SDIS)
	c.Attach()
	assert.Zero(t, hw.Reg(regs.DCTL)&regs.DCTL_SDIS)
}

func TestControllerOptions(t *testing.T) {
	c, hw := newTestController(t, nil)

	version, err := c.Option(OptionMaxVersion)
	require.NoError(t, err)
	assert.Equal(t, VersionUSB20, version)

	speed, err := c.Option(OptionMaxSpeed)
	require.NoError(t, err)
	assert.Equal(t, int(SpeedFull), speed)

	_, err = c.Option(OptionAddress)
	require.ErrorIs(t, err, pkg.ErrNotSupported)

	require.NoError(t, c.SetOption(OptionAddress, 7))
	assert.Equal(t, uint32(7),
		hw.Reg(regs.DCFG)&regs.DCFG_DAD_Msk>>regs.DCFG_DAD_Pos)

	require.NoError(t, c.SetOption(OptionAttach, 0))
	assert.NotZero(t, hw.Reg(regs.DCTL)&regs.DCTL_SDIS)
	require.NoError(t, c.SetOption(OptionAttach, 1))
	assert.Zero(t, hw.Reg(regs.DCTL)&regs.DCTL_SDIS)

	require.ErrorIs(t, c.SetOption(OptionMaxSpeed, 0), pkg.ErrNotSupported)
}

// stuckFlushBus reports the receive FIFO flush as never completing.
type stuckFlushBus struct {
	regs.Bus
}

func (b *stuckFlushBus) Read32(offset uint32) uint32 {
	value := b.Bus.Read32(offset)
	if offset == regs.GRSTCTL {
		value |= regs.GRSTCTL_RXFFLSH
	}
	return value
}

func TestInitHandshakeExpiry(t *testing.T) {
	cfg := testConfig(sim.New())
	cfg.Bus = &stuckFlushBus{Bus: cfg.Bus}
	cfg.HandshakeSpins = 8

	c, err := New(cfg)
	require.NoError(t, err)
	require.ErrorIs(t, c.Init(), pkg.ErrHardwareFault)
}

func TestControllerOptionHighSpeed(t *testing.T) {
	c, _ := newTestController(t, func(c *Config) { c.HighSpeed = true })

	speed, err := c.Option(OptionMaxSpeed)
	require.NoError(t, err)
	assert.Equal(t, int(SpeedHigh), speed)
}
