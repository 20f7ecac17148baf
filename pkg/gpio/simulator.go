package gpio

import "fmt"

// OpKind identifies the kind of bus access recorded by SimBus.
type OpKind uint8

const (
	OpWritePin OpKind = iota
	OpReadPin
	OpWritePort
)

func (k OpKind) String() string {
	switch k {
	case OpWritePin:
		return "WritePin"
	case OpReadPin:
		return "ReadPin"
	case OpWritePort:
		return "WritePort"
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// Op captures one bus access for inspection within tests.
type Op struct {
	Kind  OpKind
	Pin   Pin
	Port  Port
	Level Level
	Mask  uint32
	Value uint32
}

// WriteHook is called after SimBus has applied a pin write.
type WriteHook func(pin Pin, level Level)

// PortHook is called after SimBus has applied a port write.
type PortHook func(port Port, mask, value uint32)

// ReadHook lets a simulation decide what a pin reads. Returning ok=false falls
// back to the stored level.
type ReadHook func(pin Pin) (level Level, ok bool)

// SimBus is an in-memory bus useful for unit tests. It stores pin and port
// levels, records every access and can be driven by hooks to model a target.
type SimBus struct {
	InfoData BusInfo

	OnWritePin  WriteHook
	OnWritePort PortHook
	OnReadPin   ReadHook

	// Record keeps the access log when true.
	Record bool

	pins  map[Pin]Level
	ports map[Port]uint32
	ops   []Op
	err   error
}

// NewSimBus constructs a simulator configured with the provided BusInfo. The
// access log starts enabled.
func NewSimBus(info BusInfo) *SimBus {
	return &SimBus{
		InfoData: info,
		Record:   true,
		pins:     make(map[Pin]Level),
		ports:    make(map[Port]uint32),
	}
}

func (s *SimBus) Info() (BusInfo, error) {
	return s.InfoData, nil
}

// Fail makes every following access return err until cleared with Fail(nil).
func (s *SimBus) Fail(err error) {
	s.err = err
}

// SetLevel sets the stored level of a pin without recording an access. Tests
// use it to model signals driven by the target.
func (s *SimBus) SetLevel(pin Pin, level Level) {
	s.pins[pin] = level
}

// Level returns the stored level of a pin.
func (s *SimBus) Level(pin Pin) Level {
	return s.pins[pin]
}

// SetPortValue sets the stored value of a port without recording an access.
func (s *SimBus) SetPortValue(port Port, value uint32) {
	s.ports[port] = value
}

// PortValue returns the stored value of a port.
func (s *SimBus) PortValue(port Port) uint32 {
	return s.ports[port]
}

// Ops returns a copy of the access log.
func (s *SimBus) Ops() []Op {
	return append([]Op(nil), s.ops...)
}

// ResetOps clears the access log.
func (s *SimBus) ResetOps() {
	s.ops = s.ops[:0]
}

// Count reports how many recorded accesses match kind and, for pin accesses,
// pin and level. Port writes match on kind only.
func (s *SimBus) Count(kind OpKind, pin Pin, level Level) int {
	n := 0
	for _, op := range s.ops {
		if op.Kind != kind {
			continue
		}
		if kind == OpWritePort || (op.Pin == pin && op.Level == level) {
			n++
		}
	}
	return n
}

func (s *SimBus) WritePin(pin Pin, level Level) error {
	if s.err != nil {
		return s.err
	}
	s.pins[pin] = level
	s.record(Op{Kind: OpWritePin, Pin: pin, Level: level})
	if s.OnWritePin != nil {
		s.OnWritePin(pin, level)
	}
	return nil
}

func (s *SimBus) ReadPin(pin Pin) (Level, error) {
	if s.err != nil {
		return Low, s.err
	}
	level := s.pins[pin]
	if s.OnReadPin != nil {
		if l, ok := s.OnReadPin(pin); ok {
			level = l
		}
	}
	s.record(Op{Kind: OpReadPin, Pin: pin, Level: level})
	return level, nil
}

func (s *SimBus) WritePort(port Port, mask, value uint32) error {
	if s.err != nil {
		return s.err
	}
	s.ports[port] = Merge(s.ports[port], mask, value)
	s.record(Op{Kind: OpWritePort, Port: port, Mask: mask, Value: value})
	if s.OnWritePort != nil {
		s.OnWritePort(port, mask, value)
	}
	return nil
}

func (s *SimBus) record(op Op) {
	if s.Record {
		s.ops = append(s.ops, op)
	}
}
