package contracts

// Direction tells whether a port delivers MIDI to us or receives MIDI from us.
type Direction int

const (
	// Input ports deliver MIDI bytes to the router.
	Input Direction = iota
	// Output ports receive MIDI bytes sent by the router.
	Output
)

// String returns "input" or "output".
func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// Valid reports whether d is Input or Output.
func (d Direction) Valid() bool {
	return d == Input || d == Output
}

// MaxPortNameLen is the longest port name kept by the registry, in bytes.
const MaxPortNameLen = 511

// Port describes a MIDI port found during an enumeration.
//
// Name is the durable identity of the port. Index is only valid for the scan
// that produced it: unplugging an earlier device shifts every later index.
type Port struct {
	Name      string    // Port name as reported by the transport.
	Index     int       // Transport index at scan time.
	Direction Direction // Input or Output.
}
