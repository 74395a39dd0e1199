package midiwire

import (
	"testing"

	"github.com/octetta/gomidio/sdk/contracts"
)

func collect(p *Parser, data []byte) []contracts.Message {
	var out []contracts.Message
	p.Feed(data, 1.0, func(msg contracts.Message) {
		out = append(out, msg)
	})
	return out
}

func TestParserDoesNotInferRunningStatus(t *testing.T) {
	p := NewParser(0)
	// Note On ch0 60/100, then a dangling data pair with no repeated status
	// byte: the library does not infer running status on input, so the
	// trailing 64,110 bytes must be dropped as misalignment.
	msgs := collect(p, []byte{0x90, 60, 100, 64, 110})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message (dangling bytes dropped), got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Kind != contracts.NoteOn || msgs[0].Data1 != 60 || msgs[0].Data2 != 100 {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestParserRealTimeInterleavesMidMessage(t *testing.T) {
	p := NewParser(0)
	// Note On status+data1, Clock interleaved, then data2.
	msgs := collect(p, []byte{0x90, 60, 0xF8, 100})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages (clock + completed note on), got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Kind != contracts.Clock {
		t.Fatalf("expected real-time Clock first, got %v", msgs[0].Kind)
	}
	if msgs[1].Kind != contracts.NoteOn || msgs[1].Data1 != 60 || msgs[1].Data2 != 100 {
		t.Fatalf("unexpected completed note on: %+v", msgs[1])
	}
}

func TestParserUndefinedStatusSkipped(t *testing.T) {
	p := NewParser(0)
	msgs := collect(p, []byte{0xF4, 0xF9, 0x90, 1, 2})
	if len(msgs) != 1 {
		t.Fatalf("expected undefined statuses dropped, 1 message left, got %d", len(msgs))
	}
}

func TestParserSysExAccumulatesAcrossFeedCalls(t *testing.T) {
	p := NewParser(0)
	var got []contracts.Message
	emit := func(msg contracts.Message) { got = append(got, msg) }
	p.Feed([]byte{0xF0, 0x7E, 0x00}, 0, emit)
	p.Feed([]byte{0x06, 0x01, 0xF7}, 0, emit)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 SysEx message, got %d", len(got))
	}
	want := []byte{0xF0, 0x7E, 0x00, 0x06, 0x01, 0xF7}
	if string(got[0].SysExData) != string(want) {
		t.Fatalf("unexpected SysEx bytes: %v", got[0].SysExData)
	}
}

func TestParserSysExOverflowElidesChunk(t *testing.T) {
	p := NewParser(4) // tiny buffer: only room for the leading 0xF0 + 3 bytes
	var got []contracts.Message
	emit := func(msg contracts.Message) { got = append(got, msg) }
	p.Feed([]byte{0xF0, 0x01, 0x02}, 0, emit) // 3 bytes, fits
	// The parser hands bytes to the accumulator one at a time: 0x03 fills the
	// buffer to 4, 0x04 and 0xF7 overflow and are dropped, and the dropped
	// 0xF7 still emits what is held.
	p.Feed([]byte{0x03, 0x04, 0xF7}, 0, emit)
	if len(got) != 1 {
		t.Fatalf("expected an emitted (incomplete) message on overflow + terminator, got %d", len(got))
	}
	if len(got[0].SysExData) != 4 {
		t.Fatalf("expected only the pre-overflow bytes held (4), got %d bytes", len(got[0].SysExData))
	}
}

func TestParserSongPositionDecodesFourteenBits(t *testing.T) {
	p := NewParser(0)
	// lsb=0x7F, msb=0x01 -> 0x7F | (0x01<<7) = 255
	msgs := collect(p, []byte{0xF2, 0x7F, 0x01})
	if len(msgs) != 1 || msgs[0].Kind != contracts.SongPosition {
		t.Fatalf("expected one SongPosition message, got %+v", msgs)
	}
	if msgs[0].SongPos != 255 {
		t.Fatalf("expected SongPos 255, got %d", msgs[0].SongPos)
	}
}

func TestParserProgramChangeSingleDataByte(t *testing.T) {
	p := NewParser(0)
	msgs := collect(p, []byte{0xC3, 0x05, 0xC3, 0x07})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 program change messages, got %d", len(msgs))
	}
	if msgs[0].Data1 != 0x05 || msgs[1].Data1 != 0x07 {
		t.Fatalf("unexpected program numbers: %+v", msgs)
	}
}

func TestEncodeRoundTripsChannelMessage(t *testing.T) {
	msg := contracts.Message{Kind: contracts.ControlChange, Channel: 3, Data1: 7, Data2: 64}
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	p := NewParser(0)
	got := collect(p, data)
	if len(got) != 1 || got[0].Kind != contracts.ControlChange || got[0].Channel != 3 || got[0].Data1 != 7 || got[0].Data2 != 64 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEncodeRealTimeMessages(t *testing.T) {
	for _, kind := range []contracts.Kind{contracts.Clock, contracts.Start, contracts.Continue, contracts.Stop, contracts.ActiveSense, contracts.Reset} {
		data, err := Encode(contracts.Message{Kind: kind})
		if err != nil {
			t.Fatalf("Encode(%v) failed: %v", kind, err)
		}
		if len(data) != 1 {
			t.Fatalf("expected a single-byte real-time message for %v, got %v", kind, data)
		}
	}
}

func TestPushMtcProducesEightPiecesInOrder(t *testing.T) {
	frame := contracts.MtcFrame{Hours: 1, Minutes: 2, Seconds: 3, Frames: 4, Rate: contracts.Mtc30Fps}
	msgs := PushMtc(frame)
	if len(msgs) != 8 {
		t.Fatalf("expected 8 quarter-frame messages, got %d", len(msgs))
	}
	var s contracts.MtcState
	var got contracts.MtcFrame
	for i, m := range msgs {
		if m.Kind != contracts.MtcQuarterFrame {
			t.Fatalf("message %d not a quarter frame: %+v", i, m)
		}
		if f, done := s.Push(m.Data1); done {
			got = f
		}
	}
	if got != frame {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, frame)
	}
}
