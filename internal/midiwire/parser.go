package midiwire

import "github.com/octetta/gomidio/sdk/contracts"

// systemCommonLen gives the data-byte count following a System Common
// status byte; TuneRequest (0xF6) carries none. Undefined statuses (0xF4,
// 0xF5, 0xF9, 0xFD) are absent and must be skipped by the caller.
var systemCommonLen = map[byte]int{
	0xF1: 1, // MTC quarter frame
	0xF2: 2, // song position
	0xF3: 1, // song select
	0xF6: 0, // tune request
}

// channelLen gives the data-byte count following a channel status nibble.
var channelLen = map[byte]int{
	0x8: 2, 0x9: 2, 0xA: 2, 0xB: 2, 0xC: 1, 0xD: 1, 0xE: 2,
}

func isRealTime(b byte) bool {
	switch b {
	case 0xF8, 0xFA, 0xFB, 0xFC, 0xFE, 0xFF:
		return true
	}
	return false
}

func realTimeKind(b byte) contracts.Kind {
	switch b {
	case 0xF8:
		return contracts.Clock
	case 0xFA:
		return contracts.Start
	case 0xFB:
		return contracts.Continue
	case 0xFC:
		return contracts.Stop
	case 0xFE:
		return contracts.ActiveSense
	case 0xFF:
		return contracts.Reset
	}
	return 0
}

func isUndefined(b byte) bool {
	switch b {
	case 0xF4, 0xF5, 0xF9, 0xFD:
		return true
	}
	return false
}

// Parser decodes a running byte stream into contracts.Message values,
// implementing spec §4.3's five-step algorithm: real-time bytes interleave
// at any position without disturbing in-progress state, SysEx accumulates
// across Feed calls via an embedded SysExAccumulator, a status byte must be
// present before its data bytes (no running-status inference on input —
// an orphan data byte is dropped as misalignment), and undefined status
// bytes are skipped. One Parser belongs to one input device's delivery
// thread.
type Parser struct {
	sysex      *SysExAccumulator
	inSysex    bool
	pending    byte // status byte awaiting its data bytes
	pendingLen int
	data       [2]byte
	dataCount  int
	mtc        contracts.MtcState
}

// NewParser builds a Parser whose SysEx accumulator has the given capacity
// (see SysExAccumulator for the zero/negative fallback).
func NewParser(sysExBufferSize int) *Parser {
	return &Parser{sysex: NewSysExAccumulator(sysExBufferSize)}
}

// Feed decodes one chunk of raw MIDI bytes as delivered by the OS (a
// CoreMIDI packet's data, an ALSA raw-mode buffer, or a WinMM short/long
// message already split into status+data), invoking emit once per decoded
// message, in order. timestamp is attached to every message produced from
// this chunk.
func (p *Parser) Feed(raw []byte, timestamp float64, emit contracts.MessageCallback) {
	for _, b := range raw {
		p.feedByte(b, timestamp, emit)
	}
}

func (p *Parser) feedByte(b byte, timestamp float64, emit contracts.MessageCallback) {
	if isRealTime(b) {
		emit(contracts.Message{Kind: realTimeKind(b), Timestamp: timestamp})
		return
	}

	if p.inSysex {
		if b == 0xF0 {
			// defensive: a nested 0xF0 inside an open SysEx cannot occur on
			// a conformant stream; ignore rather than corrupt state.
			return
		}
		if msg, done := p.sysex.Feed([]byte{b}); done {
			p.inSysex = false
			emit(contracts.Message{Kind: contracts.SysEx, Timestamp: timestamp, SysExData: msg})
		}
		return
	}

	if isUndefined(b) {
		return
	}
	if b == 0xF0 {
		p.inSysex = true
		p.sysex.Reset()
		p.sysex.Feed([]byte{b})
		p.pending = 0
		p.pendingLen = 0
		p.dataCount = 0
		return
	}
	if b == 0xF7 {
		// stray end-of-exclusive with no open SysEx: spec treats as noise.
		return
	}
	if b >= 0xF1 && b <= 0xF6 {
		n, ok := systemCommonLen[b]
		if !ok {
			return
		}
		p.pending = b
		p.pendingLen = n
		p.dataCount = 0
		if n == 0 {
			p.emitSystemCommon(b, 0, 0, timestamp, emit)
			p.pending = 0
		}
		return
	}
	if b >= 0x80 {
		status := b >> 4
		n, ok := channelLen[status]
		if !ok {
			return
		}
		p.pending = b
		p.pendingLen = n
		p.dataCount = 0
		return
	}

	// data byte (b < 0x80)
	if p.pending == 0 {
		// orphan data byte with no preceding status: the library does not
		// infer running status on input, so skip it and resync on the next
		// status byte.
		return
	}
	p.data[p.dataCount] = b
	p.dataCount++
	if p.dataCount < p.pendingLen {
		return
	}

	switch {
	case p.pending >= 0x80 && p.pending < 0xF0:
		emit(contracts.Message{
			Kind:      contracts.Kind(p.pending >> 4),
			Channel:   p.pending & 0x0F,
			Data1:     p.data[0],
			Data2:     p.dataAt(1),
			Timestamp: timestamp,
		})
	case p.pending >= 0xF1 && p.pending <= 0xF6:
		p.emitSystemCommon(p.pending, p.data[0], p.dataAt(1), timestamp, emit)
	}
	p.pending = 0
	p.dataCount = 0
}

func (p *Parser) dataAt(i int) byte {
	if p.pendingLen > i {
		return p.data[i]
	}
	return 0
}

func (p *Parser) emitSystemCommon(status, d1, d2 byte, timestamp float64, emit contracts.MessageCallback) {
	switch status {
	case 0xF1:
		emit(contracts.Message{Kind: contracts.MtcQuarterFrame, Data1: d1, Timestamp: timestamp})
	case 0xF2:
		emit(contracts.Message{Kind: contracts.SongPosition, SongPos: uint16(d1) | uint16(d2)<<7, Timestamp: timestamp})
	case 0xF3:
		emit(contracts.Message{Kind: contracts.SongSelect, Data1: d1, Timestamp: timestamp})
	case 0xF6:
		emit(contracts.Message{Kind: contracts.TuneRequest, Timestamp: timestamp})
	}
}

// PushMtc feeds a decoded MtcQuarterFrame message's Data1 into the
// Parser's own MtcState accumulator and reports a completed frame every
// eight pieces. Backends that want MTC reassembly alongside raw
// quarter-frame delivery call this from their MessageCallback; it is not
// invoked automatically so callers that only want raw quarter frames pay
// nothing for it.
func (p *Parser) PushMtc(quarterFrameData1 uint8) (contracts.MtcFrame, bool) {
	return p.mtc.Push(quarterFrameData1)
}

// ResetMtc discards any partially accumulated MTC frame, e.g. on Stop/Reset.
func (p *Parser) ResetMtc() {
	p.mtc.Reset()
}
