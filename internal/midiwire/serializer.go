package midiwire

import "github.com/octetta/gomidio/sdk/contracts"

// Encode serializes msg to raw wire bytes per spec §4.3's Serializer
// subsection. SysEx is intentionally not handled here: callers send SysEx
// payloads through OutputDevice.SendSysEx, which transmits the raw buffer
// directly without going through the channel/system-common encoder.
func Encode(msg contracts.Message) ([]byte, error) {
	switch {
	case msg.Kind.IsChannelMessage():
		status := byte(msg.Kind)<<4 | (msg.Channel & 0x0F)
		switch msg.Kind {
		case contracts.ProgramChange, contracts.ChannelPressure:
			return []byte{status, msg.Data1}, nil
		default:
			return []byte{status, msg.Data1, msg.Data2}, nil
		}

	case msg.Kind == contracts.MtcQuarterFrame:
		return []byte{0xF1, msg.Data1}, nil
	case msg.Kind == contracts.SongPosition:
		return []byte{0xF2, byte(msg.SongPos & 0x7F), byte((msg.SongPos >> 7) & 0x7F)}, nil
	case msg.Kind == contracts.SongSelect:
		return []byte{0xF3, msg.Data1}, nil
	case msg.Kind == contracts.TuneRequest:
		return []byte{0xF6}, nil

	case msg.Kind == contracts.Clock:
		return []byte{0xF8}, nil
	case msg.Kind == contracts.Start:
		return []byte{0xFA}, nil
	case msg.Kind == contracts.Continue:
		return []byte{0xFB}, nil
	case msg.Kind == contracts.Stop:
		return []byte{0xFC}, nil
	case msg.Kind == contracts.ActiveSense:
		return []byte{0xFE}, nil
	case msg.Kind == contracts.Reset:
		return []byte{0xFF}, nil

	default:
		return nil, contracts.NewResult("Encode", contracts.InvalidArg, nil)
	}
}

// PushMtc builds the eight quarter-frame messages (pieces 0-7, Data1
// carrying piece<<4|nibble) that serialize an MtcFrame, in wire order.
// Backends that generate MTC output (a DAW sync source) use this to drive
// OutputDevice.Send once per piece at the quarter-frame interval.
func PushMtc(frame contracts.MtcFrame) []contracts.Message {
	rate := byte(frame.Rate) & 0x03
	pieces := [8]byte{
		frame.Frames & 0x0F,
		(frame.Frames >> 4) & 0x0F,
		frame.Seconds & 0x0F,
		(frame.Seconds >> 4) & 0x0F,
		frame.Minutes & 0x0F,
		(frame.Minutes >> 4) & 0x0F,
		frame.Hours & 0x0F,
		((frame.Hours>>4)&0x01)|(rate<<1),
	}
	out := make([]contracts.Message, 8)
	for i, nibble := range pieces {
		out[i] = contracts.Message{
			Kind:  contracts.MtcQuarterFrame,
			Data1: byte(i)<<4 | nibble,
		}
	}
	return out
}
