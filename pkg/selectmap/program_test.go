package selectmap_test

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"
	"time"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/fpgasim"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/selectmap"
)

var wiring = fpgasim.Wiring{
	DataPort:   0,
	DataOffset: 8,
	Init:       4,
	Program:    5,
	Done:       6,
	Clock:      7,
}

func newSimDevice(cfg fpgasim.Config) (*selectmap.Device, *fpgasim.Spartan6) {
	cfg.Wiring = wiring
	sim := fpgasim.NewSpartan6(cfg)
	dev := selectmap.New(sim.Bus(), selectmap.Pins{
		DataPort:   wiring.DataPort,
		DataOffset: wiring.DataOffset,
		Init:       wiring.Init,
		Program:    wiring.Program,
		Done:       wiring.Done,
		Clock:      wiring.Clock,
	})
	dev.Sleep = func(time.Duration) {}
	return dev, sim
}

func testBitstream(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i ^ (i >> 3))
	}
	return data
}

func TestProgramAgainstSimulator(t *testing.T) {
	bitstream := testBitstream(10_000)
	dev, sim := newSimDevice(fpgasim.Config{
		InitPolls:       12,
		BitstreamLength: len(bitstream),
		StartupClocks:   8,
	})

	var progress []int64
	sent, err := dev.Program(bytes.NewReader(bitstream), 3000, func(n int64) {
		progress = append(progress, n)
	})
	if err != nil {
		t.Fatalf("Program returned error: %v", err)
	}
	if sent != int64(len(bitstream)) {
		t.Fatalf("sent %d bytes, want %d", sent, len(bitstream))
	}
	if dev.State() != selectmap.StateDone {
		t.Fatalf("state = %s, want Done", dev.State())
	}
	if !bytes.Equal(sim.Received(), bitstream) {
		t.Fatalf("simulator received a different bitstream")
	}
	if sim.StartupClocks() != 8 {
		t.Fatalf("startup clocks = %d, want 8", sim.StartupClocks())
	}

	wantProgress := []int64{3000, 6000, 9000, 10000}
	if len(progress) != len(wantProgress) {
		t.Fatalf("progress = %v, want %v", progress, wantProgress)
	}
	for i := range wantProgress {
		if progress[i] != wantProgress[i] {
			t.Fatalf("progress = %v, want %v", progress, wantProgress)
		}
	}
}

func TestProgramOneByteReader(t *testing.T) {
	bitstream := testBitstream(64)
	dev, sim := newSimDevice(fpgasim.Config{BitstreamLength: len(bitstream)})

	if _, err := dev.Program(iotest.OneByteReader(bytes.NewReader(bitstream)), 0, nil); err != nil {
		t.Fatalf("Program returned error: %v", err)
	}
	if !bytes.Equal(sim.Received(), bitstream) {
		t.Fatalf("received %X, want %X", sim.Received(), bitstream)
	}
}

func TestProgramCRCFailureTimesOut(t *testing.T) {
	bitstream := testBitstream(100)
	dev, sim := newSimDevice(fpgasim.Config{BitstreamLength: len(bitstream), FailCRC: true})

	_, err := dev.Program(bytes.NewReader(bitstream), 0, nil)
	if !errors.Is(err, selectmap.ErrTimedOut) {
		t.Fatalf("Program error = %v, want ErrTimedOut", err)
	}
	if dev.State() != selectmap.StateConfiguring {
		t.Fatalf("state = %s, want Configuring", dev.State())
	}
	if sim.StartupClocks() != 0 {
		t.Fatalf("device counted %d startup clocks after CRC error", sim.StartupClocks())
	}
}

func TestProgramReaderError(t *testing.T) {
	dev, _ := newSimDevice(fpgasim.Config{BitstreamLength: 10})
	boom := errors.New("disk on fire")

	_, err := dev.Program(iotest.ErrReader(boom), 0, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Program error = %v, want reader error", err)
	}
}

func TestProgramReadyTimeout(t *testing.T) {
	dev, _ := newSimDevice(fpgasim.Config{InitPolls: 1 << 20, BitstreamLength: 1})
	dev.Timing.ReadyTimeout = 50 * time.Millisecond

	_, err := dev.Program(bytes.NewReader([]byte{0}), 0, nil)
	if !errors.Is(err, selectmap.ErrNotReady) {
		t.Fatalf("Program error = %v, want ErrNotReady", err)
	}
	if dev.State() != selectmap.StateIdle {
		t.Fatalf("state = %s, want Idle", dev.State())
	}
}

func TestRetryAfterTimeout(t *testing.T) {
	bitstream := testBitstream(32)
	dev, sim := newSimDevice(fpgasim.Config{BitstreamLength: len(bitstream), StartupClocks: 4})
	dev.Timing.DoneClocks = 2
	if err := dev.Init(); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	if err := dev.StartConfig(); err != nil {
		t.Fatalf("StartConfig returned error: %v", err)
	}
	if err := dev.SendConfig(bitstream); err != nil {
		t.Fatalf("SendConfig returned error: %v", err)
	}
	result, err := dev.FinishConfig()
	if err != nil {
		t.Fatalf("FinishConfig returned error: %v", err)
	}
	if result != selectmap.ResultTimedOut {
		t.Fatalf("result = %s, want TimedOut with a 2 clock budget", result)
	}

	// Restart the whole sequence with a larger budget.
	dev.Timing.DoneClocks = selectmap.DefaultDoneClocks
	if err := dev.StartConfig(); err != nil {
		t.Fatalf("StartConfig returned error: %v", err)
	}
	if err := dev.SendConfig(bitstream[:16]); err != nil {
		t.Fatalf("SendConfig returned error: %v", err)
	}
	if err := dev.SendConfig(bitstream[16:]); err != nil {
		t.Fatalf("SendConfig returned error: %v", err)
	}
	result, err = dev.FinishConfig()
	if err != nil || result != selectmap.ResultDone {
		t.Fatalf("FinishConfig = %s, %v; want Done", result, err)
	}
	if sim.Resets() != 2 {
		t.Fatalf("Resets = %d, want 2", sim.Resets())
	}
	if !bytes.Equal(sim.Received(), bitstream) {
		t.Fatalf("received %X, want %X", sim.Received(), bitstream)
	}
}
