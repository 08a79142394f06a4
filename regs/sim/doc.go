// Package sim provides a simulated DWC2 register file for host-side
// testing and examples.
//
// The simulator implements [github.com/ardnew/dwc2/regs.Bus] over an
// in-memory word store and completes the hardware handshakes the driver
// core depends on:
//
//   - Core soft reset and FIFO flush bits self-clear
//   - The AHB master always reports idle
//   - Global NAK set/clear triggers update the corresponding status bits
//   - Writing the endpoint disable bit completes the disable immediately
//   - The receive status queue backs GRXSTSR (peek) and GRXSTSP (pop),
//     with popped payload words readable through the FIFO window
//   - Transmit FIFO window writes are captured per bank
//   - GINTSTS derives its receive-level and endpoint summary bits from
//     queue state and the endpoint interrupt/mask registers
//
// Tests drive bus-side activity through the helper methods: [Controller.Raise]
// for core events, [Controller.RaiseIn] and [Controller.RaiseOut] for
// endpoint interrupts, and [Controller.PushRx] to deliver received packets.
package sim
