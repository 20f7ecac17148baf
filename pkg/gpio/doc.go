// Package gpio defines the digital I/O surface a configuration driver needs
// from its host: single pin writes and reads plus masked writes to a group of
// lines sharing one port.
//
// Backends live in subpackages:
//
//	gpio/ftdi     FT232H/FT2232H in MPSSE mode over USB (gousb)
//	gpio/gpiomem  BCM283x GPIO block mapped from /dev/gpiomem
//
// SimBus is an in-memory implementation with hooks and an access log. It is
// the base of the fpgasim target model and of most tests.
package gpio
