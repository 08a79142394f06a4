// Package regs describes the memory-mapped register space of a DWC2-class
// USB OTG controller and the access capability the driver core is given.
//
// The driver never touches memory directly: all register access goes
// through the [Bus] interface, supplied by the platform integration.
// On real hardware a Bus implementation performs 32-bit volatile reads
// and writes against the peripheral base address; under test the
// [github.com/ardnew/dwc2/regs/sim] package provides a simulated
// register file with the same handshake contract.
//
// Register and bit names follow the Synopsys/STM32 reference manual
// mnemonics (GINTSTS, DIEPCTL, ...) so they can be cross-checked
// against the datasheet directly.
package regs
