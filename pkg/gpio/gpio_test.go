package gpio

import (
	"errors"
	"testing"
)

func TestValidatePin(t *testing.T) {
	if err := ValidatePin(15, 16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePin(16, 16); err == nil {
		t.Fatalf("expected error for pin past the last line")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		current, mask, value, want uint32
	}{
		{0x00000000, 0x000000FF, 0x000000AB, 0x000000AB},
		{0xFFFFFFFF, 0x0000FF00, 0x00000000, 0xFFFF00FF},
		{0x12345678, 0x00FF0000, 0xFFFFFFFF, 0x12FF5678},
		{0x12345678, 0x00000000, 0xFFFFFFFF, 0x12345678},
	}
	for _, tt := range tests {
		if got := Merge(tt.current, tt.mask, tt.value); got != tt.want {
			t.Errorf("Merge(%08X, %08X, %08X) = %08X, want %08X",
				tt.current, tt.mask, tt.value, got, tt.want)
		}
	}
}

func TestSimBusRecordsAccesses(t *testing.T) {
	sim := NewSimBus(BusInfo{Name: "sim"})

	if err := sim.WritePin(3, High); err != nil {
		t.Fatalf("WritePin returned error: %v", err)
	}
	if err := sim.WritePort(0, 0xFF00, 0xAB00); err != nil {
		t.Fatalf("WritePort returned error: %v", err)
	}
	level, err := sim.ReadPin(3)
	if err != nil {
		t.Fatalf("ReadPin returned error: %v", err)
	}
	if level != High {
		t.Fatalf("ReadPin = %v, want high", level)
	}

	ops := sim.Ops()
	if len(ops) != 3 {
		t.Fatalf("recorded %d ops, want 3", len(ops))
	}
	if ops[1].Kind != OpWritePort || ops[1].Mask != 0xFF00 || ops[1].Value != 0xAB00 {
		t.Fatalf("unexpected port op: %+v", ops[1])
	}
	if got := sim.PortValue(0); got != 0xAB00 {
		t.Fatalf("PortValue = %08X, want 0000AB00", got)
	}
	if n := sim.Count(OpWritePin, 3, High); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}

	sim.ResetOps()
	if len(sim.Ops()) != 0 {
		t.Fatalf("ResetOps left entries behind")
	}
}

func TestSimBusPortPreservesUnmaskedBits(t *testing.T) {
	sim := NewSimBus(BusInfo{})
	sim.SetPortValue(1, 0xDEADBEEF)

	if err := sim.WritePort(1, 0x00FF0000, 0x00120000); err != nil {
		t.Fatalf("WritePort returned error: %v", err)
	}
	if got := sim.PortValue(1); got != 0xDE12BEEF {
		t.Fatalf("PortValue = %08X, want DE12BEEF", got)
	}
}

func TestSimBusHooks(t *testing.T) {
	sim := NewSimBus(BusInfo{})
	var written []Level
	sim.OnWritePin = func(pin Pin, level Level) {
		if pin != 7 {
			t.Fatalf("unexpected hook pin %d", pin)
		}
		written = append(written, level)
	}
	sim.OnReadPin = func(pin Pin) (Level, bool) {
		return High, pin == 4
	}

	sim.WritePin(7, Low)
	sim.WritePin(7, High)
	if len(written) != 2 || written[0] != Low || written[1] != High {
		t.Fatalf("hook saw %v", written)
	}

	if l, _ := sim.ReadPin(4); l != High {
		t.Fatalf("hooked pin read %v, want high", l)
	}
	if l, _ := sim.ReadPin(5); l != Low {
		t.Fatalf("unhooked pin read %v, want low", l)
	}
}

func TestSimBusFail(t *testing.T) {
	sim := NewSimBus(BusInfo{})
	boom := errors.New("boom")
	sim.Fail(boom)

	if err := sim.WritePin(0, High); !errors.Is(err, boom) {
		t.Fatalf("WritePin error = %v, want boom", err)
	}
	if _, err := sim.ReadPin(0); !errors.Is(err, boom) {
		t.Fatalf("ReadPin error = %v, want boom", err)
	}
	if err := sim.WritePort(0, 1, 1); !errors.Is(err, boom) {
		t.Fatalf("WritePort error = %v, want boom", err)
	}

	sim.Fail(nil)
	if err := sim.WritePin(0, High); err != nil {
		t.Fatalf("WritePin after clearing failure: %v", err)
	}
}

func TestLevelString(t *testing.T) {
	if High.String() != "high" || Low.String() != "low" {
		t.Fatalf("unexpected level names %q %q", High, Low)
	}
}
