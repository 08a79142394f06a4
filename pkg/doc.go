// Package pkg provides shared utilities for the dwc2 driver core.
//
// This package contains common functionality used across the driver
// packages, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for driver and hardware faults
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentController, "address assigned", "address", 5)
//
// Be careful with enabling debug logging: as with all timing critical
// systems it is able to interfere with USB functionality, and failures
// may present differently with debug enabled.
//
// # Errors
//
// Driver faults are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrEndpointNotActive) {
//	    // Activate the endpoint before issuing transfers
//	}
package pkg
