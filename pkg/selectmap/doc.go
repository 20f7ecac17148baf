// Package selectmap drives the byte-wide SelectMAP configuration interface of
// a Xilinx Spartan-6 FPGA over a gpio.Bus.
//
// # Usage
//
// The caller owns a Device and walks it through the sequence in order:
//
//	dev := selectmap.New(bus, selectmap.Pins{
//		DataPort:   0,
//		DataOffset: 8,
//		Init:       4,
//		Program:    5,
//		Done:       6,
//		Clock:      7,
//	})
//	if err := dev.Init(); err != nil { ... }
//	if err := dev.StartConfig(); err != nil { ... }
//	for _, chunk := range chunks {
//		if err := dev.SendConfig(chunk); err != nil { ... }
//	}
//	result, err := dev.FinishConfig()
//
// Program wraps the same sequence around an io.Reader.
//
// # Sequence
//
// StartConfig drives CCLK low, holds PROGRAM_B low for Timing.ResetPulse,
// releases it and polls INIT_B every Timing.PollInterval until the device
// reports that its configuration memory is cleared. SendConfig places each
// byte on the data lines between a CCLK low and a CCLK high; the device
// samples on the rising edge. Only the eight data bits of the port change.
// FinishConfig keeps clocking 0xFF while DONE is low, at most
// Timing.DoneClocks times, so the startup sequence can complete.
//
// # States
//
// Idle -> Configuring -> Done. A finish that runs out of clocks leaves the
// device in Configuring and returns ResultTimedOut; the caller restarts from
// StartConfig.
package selectmap
