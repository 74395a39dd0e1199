package contracts

// Kind identifies the variant held by a Message. Channel message kinds
// reuse the MIDI status nibble (0x8-0xE) so that Kind(status>>4) is always
// meaningful for channel messages, matching the wire encoding the parser
// and serializer share.
type Kind byte

const (
	NoteOff         Kind = 0x8
	NoteOn          Kind = 0x9
	PolyPressure    Kind = 0xA
	ControlChange   Kind = 0xB
	ProgramChange   Kind = 0xC
	ChannelPressure Kind = 0xD
	PitchBend       Kind = 0xE

	SysEx           Kind = 0x10
	MtcQuarterFrame Kind = 0x11
	SongPosition    Kind = 0x12
	SongSelect      Kind = 0x13
	TuneRequest     Kind = 0x14

	Clock       Kind = 0x18
	Start       Kind = 0x1A
	Continue    Kind = 0x1B
	Stop        Kind = 0x1C
	ActiveSense Kind = 0x1E
	Reset       Kind = 0x1F
)

func (k Kind) String() string {
	switch k {
	case NoteOff:
		return "NoteOff"
	case NoteOn:
		return "NoteOn"
	case PolyPressure:
		return "PolyPressure"
	case ControlChange:
		return "ControlChange"
	case ProgramChange:
		return "ProgramChange"
	case ChannelPressure:
		return "ChannelPressure"
	case PitchBend:
		return "PitchBend"
	case SysEx:
		return "SysEx"
	case MtcQuarterFrame:
		return "MtcQuarterFrame"
	case SongPosition:
		return "SongPosition"
	case SongSelect:
		return "SongSelect"
	case TuneRequest:
		return "TuneRequest"
	case Clock:
		return "Clock"
	case Start:
		return "Start"
	case Continue:
		return "Continue"
	case Stop:
		return "Stop"
	case ActiveSense:
		return "ActiveSense"
	case Reset:
		return "Reset"
	default:
		return "Unknown"
	}
}

// IsChannelMessage reports whether k carries a channel 0-15.
func (k Kind) IsChannelMessage() bool {
	return k >= NoteOff && k <= PitchBend
}

// Message is a decoded MIDI 1.0 event. Exactly the fields relevant to Kind
// are meaningful; the rest are zero. Timestamp is seconds since an
// implementation-defined epoch, monotonic and non-decreasing within a
// single device but not comparable across devices.
type Message struct {
	Kind      Kind
	Channel   uint8   // meaningful only when Kind.IsChannelMessage(), 0-15
	Data1     uint8   // note/controller/program/pressure/lsb
	Data2     uint8   // velocity/value/msb
	Timestamp float64 // seconds, device-relative monotonic clock

	// SongPos is the 14-bit beat count for SongPosition (lsb | msb<<7).
	SongPos uint16

	// SysExData holds the bytes the parser assembled for a SysEx message,
	// including the leading 0xF0 and trailing 0xF7 if they appeared on the
	// wire. Valid only for the duration of the callback that receives it -
	// copy it to retain it past return.
	SysExData []byte
}

// NoteNumber is Data1 for NoteOn/NoteOff/PolyPressure messages.
func (m Message) NoteNumber() uint8 { return m.Data1 }

// Velocity is Data2 for NoteOn/NoteOff messages.
func (m Message) Velocity() uint8 { return m.Data2 }

// PitchBendValue reconstructs the 14-bit pitch bend value from Data1 (lsb)
// and Data2 (msb). Callers that need the signed range subtract 8192.
func (m Message) PitchBendValue() uint16 {
	return uint16(m.Data1) | uint16(m.Data2)<<7
}

// MtcRate enumerates the MTC frame-rate field (bits 1-2 of the last
// quarter-frame piece).
type MtcRate uint8

const (
	Mtc24Fps     MtcRate = 0
	Mtc25Fps     MtcRate = 1
	Mtc30FpsDrop MtcRate = 2 // 29.97fps drop-frame
	Mtc30Fps     MtcRate = 3
)

// FPS returns the nominal frames-per-second for the rate, using 29.97 for
// the drop-frame rate as spec.md §4.5 prescribes for to-seconds conversion.
func (r MtcRate) FPS() float64 {
	switch r {
	case Mtc24Fps:
		return 24.0
	case Mtc25Fps:
		return 25.0
	case Mtc30FpsDrop:
		return 29.97
	case Mtc30Fps:
		return 30.0
	default:
		return 30.0
	}
}

func (r MtcRate) String() string {
	switch r {
	case Mtc24Fps:
		return "24fps"
	case Mtc25Fps:
		return "25fps"
	case Mtc30FpsDrop:
		return "29.97fps (drop)"
	case Mtc30Fps:
		return "30fps"
	default:
		return "unknown"
	}
}

// MtcFrame is a fully reassembled SMPTE timecode frame, decoded from eight
// MTC quarter-frame pieces.
type MtcFrame struct {
	Hours   uint8
	Minutes uint8
	Seconds uint8
	Frames  uint8
	Rate    MtcRate
}

// ToSeconds converts f to wall-clock seconds from midnight.
func (f MtcFrame) ToSeconds() float64 {
	return float64(f.Hours)*3600.0 + float64(f.Minutes)*60.0 + float64(f.Seconds) + float64(f.Frames)/f.Rate.FPS()
}

// MtcState accumulates MTC quarter-frame bytes (the raw Data1 of a
// MtcQuarterFrame message) eight at a time. One instance per input device;
// reset on Start/Continue/Reset or whenever the host chooses. The zero
// value is ready to use.
type MtcState struct {
	pieces [8]uint8
	count  uint8
}

// Reset clears accumulated pieces, discarding any partial frame.
func (s *MtcState) Reset() {
	s.pieces = [8]uint8{}
	s.count = 0
}

// Push feeds one quarter-frame byte. It returns the decoded frame and true
// once the eighth piece has been received (after which state resets to
// empty), or the zero frame and false otherwise. The counter advances on
// every push, not only on receipt of a new piece index, matching the wire
// protocol of sending pieces 0..7 in order.
func (s *MtcState) Push(qf uint8) (MtcFrame, bool) {
	nibble := qf & 0x0F
	piece := (qf >> 4) & 0x07
	s.pieces[piece] = nibble
	s.count++
	if s.count < 8 {
		return MtcFrame{}, false
	}
	s.count = 0
	frame := MtcFrame{
		Frames:  s.pieces[0] | (s.pieces[1] << 4),
		Seconds: s.pieces[2] | (s.pieces[3] << 4),
		Minutes: s.pieces[4] | (s.pieces[5] << 4),
		Hours:   s.pieces[6] | ((s.pieces[7] & 0x01) << 4),
		Rate:    MtcRate((s.pieces[7] >> 1) & 0x03),
	}
	s.pieces = [8]uint8{}
	return frame, true
}

// MessageCallback is invoked from a background thread for each decoded
// input message. msg and any SysExData slice it carries are borrowed and
// valid only for the duration of the call - copy to retain.
type MessageCallback func(msg Message)

// Context is a process-level handle to the host MIDI service. It owns a
// display name and an OS client handle whose lifetime equals the context.
type Context interface {
	// Name returns the display name this context was initialized with.
	Name() string

	InputCount() (int, error)
	InputName(idx int) (string, error)
	// InputInfo returns richer metadata for input idx than InputName alone;
	// Manufacturer/EntityName are empty on backends that do not expose them.
	InputInfo(idx int) (DeviceInfo, error)
	OutputCount() (int, error)
	OutputName(idx int) (string, error)
	OutputInfo(idx int) (DeviceInfo, error)

	// OpenInput locates endpoint idx under the input capability filter and
	// returns a device bound to it but not yet delivering messages.
	OpenInput(idx int, cb MessageCallback) (InputDevice, error)
	// OpenVirtualInput creates an endpoint owned by this process that peers
	// subscribe to as a destination. Returns a *Result with code NoBackend
	// on platforms without virtual-endpoint support (WinMM).
	OpenVirtualInput(cb MessageCallback) (InputDevice, error)

	OpenOutput(idx int) (OutputDevice, error)
	// OpenVirtualOutput creates an endpoint owned by this process that
	// peers subscribe to as a source. Returns NoBackend on WinMM.
	OpenVirtualOutput() (OutputDevice, error)

	// Close releases the OS client. The context does not record that it is
	// closed: operations on it or its devices after Close are not checked
	// and do not return NotOpen.
	Close() error
}

// InputDevice owns an OS subscription (or virtual endpoint) and a
// background receive path delivering decoded messages to its callback.
type InputDevice interface {
	// Start attaches the remote endpoint and begins delivery. For virtual
	// inputs this is a no-op with respect to routing but still spawns any
	// backend receive thread.
	Start() error
	// Stop detaches delivery. Legal to call on a device that is not
	// started; idempotent.
	Stop() error
	// Close disposes the device. Implies Stop if running. Legal on an
	// unstarted device.
	Close() error
}

// OutputDevice owns an OS handle (or virtual source) and transmits
// serialized messages to it.
type OutputDevice interface {
	// Send serializes and transmits msg.
	Send(msg Message) error
	// SendSysEx transmits an arbitrary-length SysEx payload. May block
	// until the OS has accepted the buffer on backends whose long-message
	// API is asynchronous (WinMM).
	SendSysEx(data []byte) error
	Close() error
}
