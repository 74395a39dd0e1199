package contracts

import "testing"

func TestMtcStatePushCompletesAfterEightPieces(t *testing.T) {
	var s MtcState
	pieces := []uint8{
		0x00 | 0x05, // piece 0, frames lsb = 5
		0x10 | 0x01, // piece 1, frames msb = 1 -> frames = 0x15 = 21
		0x20 | 0x00, // piece 2, seconds lsb = 0
		0x30 | 0x03, // piece 3, seconds msb = 3 -> seconds = 0x30 = 48
		0x40 | 0x02, // piece 4, minutes lsb = 2
		0x50 | 0x01, // piece 5, minutes msb = 1 -> minutes = 0x12 = 18
		0x60 | 0x09, // piece 6, hours lsb = 9
		0x70 | 0x03, // piece 7, hours msb bit0=1, rate=01 -> hours=0x19=25, rate=Mtc25Fps
	}

	var frame MtcFrame
	var done bool
	for _, p := range pieces[:7] {
		if _, ok := s.Push(p); ok {
			t.Fatalf("frame completed early")
		}
	}
	frame, done = s.Push(pieces[7])
	if !done {
		t.Fatalf("expected frame completion on eighth piece")
	}
	if frame.Frames != 0x15 || frame.Seconds != 0x30 || frame.Minutes != 0x12 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if frame.Hours != 0x19 {
		t.Fatalf("unexpected hours: %v", frame.Hours)
	}
	if frame.Rate != Mtc25Fps {
		t.Fatalf("unexpected rate: %v", frame.Rate)
	}
}

func TestMtcStateResetsAfterCompletion(t *testing.T) {
	var s MtcState
	for i := 0; i < 8; i++ {
		s.Push(uint8(i) << 4)
	}
	if _, ok := s.Push(0x00); ok {
		t.Fatalf("expected no completion on first piece of next frame")
	}
}

func TestMtcFrameToSeconds(t *testing.T) {
	f := MtcFrame{Hours: 1, Minutes: 2, Seconds: 3, Frames: 12, Rate: Mtc24Fps}
	got := f.ToSeconds()
	want := 3600.0 + 120.0 + 3.0 + 12.0/24.0
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestPitchBendValue(t *testing.T) {
	m := Message{Kind: PitchBend, Data1: 0x00, Data2: 0x40}
	if got := m.PitchBendValue(); got != 8192 {
		t.Fatalf("expected center value 8192, got %d", got)
	}
}

func TestKindIsChannelMessage(t *testing.T) {
	cases := map[Kind]bool{
		NoteOn:       true,
		PitchBend:    true,
		SysEx:        false,
		Clock:        false,
		SongPosition: false,
	}
	for k, want := range cases {
		if got := k.IsChannelMessage(); got != want {
			t.Errorf("%v.IsChannelMessage() = %v, want %v", k, got, want)
		}
	}
}
