package ftdi

import "fmt"

// MPSSE opcodes used for GPIO access.
const (
	CmdSetLowByte     = 0x80 // value, direction for ADBUS0-7
	CmdGetLowByte     = 0x81
	CmdSetHighByte    = 0x82 // value, direction for ACBUS0-7
	CmdGetHighByte    = 0x83
	CmdLoopbackOff    = 0x85
	CmdSendImmediate  = 0x87
	CmdBadCommandEcho = 0xFA
)

// FTDI vendor control requests.
const (
	ReqReset           = 0x00
	ReqSetLatencyTimer = 0x09
	ReqSetBitMode      = 0x0B
)

// Bit modes for ReqSetBitMode.
const (
	BitModeReset = 0x00
	BitModeMPSSE = 0x02
)

// Number of status bytes at the start of every IN packet.
const statusBytes = 2

// MPSSEProtocol encodes the GPIO subset of the MPSSE command set.
type MPSSEProtocol struct{}

// EncodeSet builds the commands that drive the lines selected by mask to
// value. Lines 0-7 are ADBUS, 8-15 ACBUS; a byte is only sent when mask
// touches it.
func (MPSSEProtocol) EncodeSet(value, dir, mask uint16) []byte {
	cmd := make([]byte, 0, 6)
	if mask&0x00FF != 0 {
		cmd = append(cmd, CmdSetLowByte, byte(value), byte(dir))
	}
	if mask&0xFF00 != 0 {
		cmd = append(cmd, CmdSetHighByte, byte(value>>8), byte(dir>>8))
	}
	return cmd
}

// EncodeGet builds the command that samples the byte holding line.
func (MPSSEProtocol) EncodeGet(line uint) []byte {
	if line < 8 {
		return []byte{CmdGetLowByte, CmdSendImmediate}
	}
	return []byte{CmdGetHighByte, CmdSendImmediate}
}

// DecodeGet extracts the level of line from the byte returned by EncodeGet.
func (MPSSEProtocol) DecodeGet(resp []byte, line uint) (bool, error) {
	if len(resp) < 1 {
		return false, fmt.Errorf("ftdi: empty GPIO read response")
	}
	if len(resp) >= 2 && resp[0] == CmdBadCommandEcho {
		return false, fmt.Errorf("ftdi: device rejected command 0x%02X", resp[1])
	}
	return resp[0]&(1<<(line%8)) != 0, nil
}

// StripStatus removes the modem status bytes the chip prepends to every
// packet of an IN transfer.
func StripStatus(buf []byte, packetSize int) []byte {
	if packetSize <= statusBytes {
		return nil
	}
	out := make([]byte, 0, len(buf))
	for len(buf) > 0 {
		n := packetSize
		if n > len(buf) {
			n = len(buf)
		}
		if n > statusBytes {
			out = append(out, buf[statusBytes:n]...)
		}
		buf = buf[n:]
	}
	return out
}
