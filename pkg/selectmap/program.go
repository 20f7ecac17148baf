package selectmap

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
)

// DefaultChunkSize is the read size Program uses when none is given.
const DefaultChunkSize = 4096

// ErrTimedOut is returned by Program when DONE never goes high.
var ErrTimedOut = errors.New("selectmap: configuration timed out (DONE low)")

// ProgressFunc is called after each chunk with the total bytes sent so far.
type ProgressFunc func(sent int64)

// Program runs a complete configuration: Init, StartConfig, SendConfig for
// every chunk read from r, then FinishConfig. It returns the number of
// bitstream bytes sent. A timed out finish is reported as ErrTimedOut with
// the device left in Configuring.
func (d *Device) Program(r io.Reader, chunkSize int, progress ProgressFunc) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if err := d.Init(); err != nil {
		return 0, err
	}
	if err := d.StartConfig(); err != nil {
		return 0, err
	}

	buf := make([]byte, chunkSize)
	var sent int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if serr := d.SendConfig(buf[:n]); serr != nil {
				return sent, serr
			}
			sent += int64(n)
			if progress != nil {
				progress(sent)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return sent, fmt.Errorf("selectmap: read bitstream: %w", err)
		}
	}

	glog.V(1).Infof("selectmap: sent %d bitstream bytes", sent)

	result, err := d.FinishConfig()
	if err != nil {
		return sent, err
	}
	if result != ResultDone {
		return sent, ErrTimedOut
	}
	return sent, nil
}
