package dwc2

import (
	"github.com/ardnew/dwc2/pkg"
	"github.com/ardnew/dwc2/regs"
)

// Option identifies a controller or endpoint option for Option and
// SetOption. Options a controller does not implement are reported with
// pkg.ErrNotSupported.
type Option uint8

// Options.
const (
	// OptionMaxVersion queries the highest supported USB version as BCD
	// (0x0200 for USB 2.0). Controller, read-only.
	OptionMaxVersion Option = iota

	// OptionMaxSpeed queries the highest supported speed as a Speed
	// value. Controller, read-only.
	OptionMaxSpeed

	// OptionAddress sets the device address. Controller, write-only.
	OptionAddress

	// OptionAttach sets the soft-connect state: non-zero attaches,
	// zero detaches. Controller, write-only.
	OptionAttach

	// OptionAvailable queries the bytes received so far for the
	// endpoint's current OUT transfer. Endpoint, read-only.
	OptionAvailable
)

// Speed is a USB connection speed.
type Speed uint8

// USB speeds.
const (
	SpeedFull Speed = iota // Full Speed (12 Mbit/s)
	SpeedHigh              // High Speed (480 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	default:
		return "Unknown"
	}
}

// VersionUSB20 is the BCD encoding of USB 2.0, the highest version this
// core family implements.
const VersionUSB20 = 0x0200

// Option queries a controller option.
func (c *Controller) Option(opt Option) (int, error) {
	switch opt {
	case OptionMaxVersion:
		return VersionUSB20, nil
	case OptionMaxSpeed:
		if c.cfg.HighSpeed {
			return int(SpeedHigh), nil
		}
		return int(SpeedFull), nil
	default:
		pkg.LogDebug(pkg.ComponentController, "unhandled option query", "option", opt)
		return 0, pkg.ErrNotSupported
	}
}

// SetOption configures a controller option.
func (c *Controller) SetOption(opt Option, value int) error {
	switch opt {
	case OptionAddress:
		c.SetAddress(uint8(value))
		return nil
	case OptionAttach:
		if value != 0 {
			c.Attach()
		} else {
			c.Detach()
		}
		return nil
	default:
		pkg.LogDebug(pkg.ComponentController, "unhandled option set", "option", opt)
		return pkg.ErrNotSupported
	}
}

// Option queries an endpoint option.
func (e *Endpoint) Option(opt Option) (int, error) {
	switch {
	case opt == OptionAvailable && e.dir == DirOut:
		return e.available(), nil
	default:
		pkg.LogDebug(pkg.ComponentEndpoint, "unhandled option query",
			"endpoint", e.num, "option", opt)
		return 0, pkg.ErrNotSupported
	}
}

// available reports the bytes received so far for the current OUT
// transfer: the armed transfer size counts down as data arrives.
func (e *Endpoint) available() int {
	remaining := e.ctrl.bus.Read32(regs.DOEPTSIZ(e.num)) & regs.DEPTSIZ_XFRSIZ_Msk
	return e.maxLen - int(remaining)
}
