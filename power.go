package dwc2

import (
	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
)

// coreReset performs the full core soft reset: wait for the AHB master
// to go idle, assert the reset, and wait for it to clear.
func (c *Controller) coreReset() error {
	if !regs.WaitSet(c.bus, regs.GRSTCTL, regs.GRSTCTL_AHBIDL, c.spins) {
		return c.fault("AHB idle")
	}
	regs.Set(c.bus, regs.GRSTCTL, regs.GRSTCTL_CSRST)
	if !regs.WaitClear(c.bus, regs.GRSTCTL, regs.GRSTCTL_CSRST, c.spins) {
		return c.fault("core soft reset")
	}
	return nil
}

// sleep engages the clock gate for bus suspend and releases the
// platform's low-power block held for USB activity.
func (c *Controller) sleep() {
	regs.Set(c.bus, regs.PCGCCTL, regs.PCGCCTL_STOPCLK)
	if c.cfg.Power != nil {
		c.cfg.Power.EnterLowPower()
	}
	pkg.LogDebug(pkg.ComponentPower, "clock gated for suspend")
}

// wake restores the clocks after suspend, flushes both FIFO directions
// (their contents do not survive the gated state on all cores), and
// reacquires the platform's low-power block.
func (c *Controller) wake() error {
	if c.cfg.Power != nil {
		c.cfg.Power.ExitLowPower()
	}
	regs.Clear(c.bus, regs.PCGCCTL, regs.PCGCCTL_STOPCLK)
	if err := c.flushRxFIFO(); err != nil {
		return err
	}
	if err := c.flushTxFIFO(regs.FlushAll); err != nil {
		return err
	}
	pkg.LogDebug(pkg.ComponentPower, "clocks restored after suspend")
	return nil
}
