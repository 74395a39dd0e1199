package midiwire

import "testing"

func TestSysExAccumulatorEmitsOnTerminator(t *testing.T) {
	a := NewSysExAccumulator(0)
	if _, done := a.Feed([]byte{0xF0, 0x01}); done {
		t.Fatalf("should not complete before 0xF7")
	}
	msg, done := a.Feed([]byte{0x02, 0xF7})
	if !done {
		t.Fatalf("expected completion on 0xF7")
	}
	want := []byte{0xF0, 0x01, 0x02, 0xF7}
	if string(msg) != string(want) {
		t.Fatalf("got %v want %v", msg, want)
	}
}

func TestSysExAccumulatorResetClearsPartial(t *testing.T) {
	a := NewSysExAccumulator(0)
	a.Feed([]byte{0xF0, 0x01})
	a.Reset()
	msg, done := a.Feed([]byte{0xF0, 0xF7})
	if !done {
		t.Fatalf("expected completion after reset + new message")
	}
	if string(msg) != string([]byte{0xF0, 0xF7}) {
		t.Fatalf("reset did not clear prior partial message: %v", msg)
	}
}

func TestSysExAccumulatorEmptyChunkIgnored(t *testing.T) {
	a := NewSysExAccumulator(0)
	if msg, done := a.Feed(nil); done || msg != nil {
		t.Fatalf("empty chunk should be a no-op")
	}
}
