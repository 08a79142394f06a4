// Package dwc2 implements the device-mode driver core for USB 2.0
// peripheral controllers built on the Synopsys DWC2 OTG IP, as found in
// STM32, ESP32-S2/S3, EFM32 and similar microcontrollers.
//
// The driver exposes the controller's fixed set of hardware endpoints to
// an upper USB protocol stack and turns low-level register events (bus
// reset, suspend, resume, per-endpoint completion) into a small event
// interface the upper stack consumes. It does not parse USB requests,
// implement host mode, or queue transfers: exactly one transfer may be
// in flight per endpoint per direction, and re-arming after completion
// is the caller's responsibility.
//
// # Architecture
//
//   - [Controller] owns one peripheral instance: register access, FIFO
//     space budgeting, the endpoint tables, and the suspend state
//   - [Endpoint] is one direction of one endpoint number, with its
//     activate/deactivate/stall state machine and transfer operations
//   - [Controller.ISR] demultiplexes the controller interrupt into
//     bus-level and per-endpoint service events; the upper stack answers
//     with [Controller.ServiceController] and [Controller.ServiceEndpoint]
//
// Hardware access goes through the [github.com/ardnew/dwc2/regs.Bus]
// capability, so the core carries no per-silicon branches; board
// bring-up (clocks, pins, PHY selection) must be done by the platform
// before [Controller.Init], and low-power transitions are delegated to
// the optional [PowerGate].
//
// # Concurrency
//
// The driver is single-threaded and interrupt-driven. All state changes
// happen either in the non-reentrant initialization path or inside the
// interrupt dispatch path with global interrupt generation gated off;
// that gate is the sole mutual-exclusion mechanism. Register handshakes
// busy-wait with an explicit iteration bound and surface
// [github.com/ardnew/dwc2/pkg.ErrHardwareFault] on expiry instead of
// hanging on wedged silicon.
package dwc2
