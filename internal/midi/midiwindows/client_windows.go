//go:build windows
// +build windows

package midiwindows

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/octetta/gomidio/internal/midiwire"
	"github.com/octetta/gomidio/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type HMIDIIN windows.Handle
type HMIDIOUT windows.Handle

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI input message types
const (
	MIM_OPEN      = 0x3C1
	MIM_CLOSE     = 0x3C2
	MIM_DATA      = 0x3C3
	MIM_LONGDATA  = 0x3C4
	MIM_ERROR     = 0x3C5
	MIM_LONGERROR = 0x3C6
	MIM_MOREDATA  = 0x3CC
)

const (
	MMSYSERR_NOERROR     = 0
	MIDIERR_STILLPLAYING = 65
)

// midiInCaps / midiOutCaps mirror MIDIINCAPSW / MIDIOUTCAPSW.
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// midiHdr mirrors MIDIHDR, used for SysEx input/output buffers.
type midiHdr struct {
	lpData          uintptr
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uintptr
	dwReserved      [4]uintptr
}

var (
	winmm                    = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs     = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps     = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen           = winmm.NewProc("midiInOpen")
	procMidiInStart          = winmm.NewProc("midiInStart")
	procMidiInStop           = winmm.NewProc("midiInStop")
	procMidiInClose          = winmm.NewProc("midiInClose")
	procMidiInPrepareHeader  = winmm.NewProc("midiInPrepareHeader")
	procMidiInAddBuffer      = winmm.NewProc("midiInAddBuffer")
	procMidiInUnprepareHdr   = winmm.NewProc("midiInUnprepareHeader")
	procMidiOutGetNumDevs    = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps    = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen          = winmm.NewProc("midiOutOpen")
	procMidiOutClose         = winmm.NewProc("midiOutClose")
	procMidiOutShortMsg      = winmm.NewProc("midiOutShortMsg")
	procMidiOutPrepareHeader = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHdr  = winmm.NewProc("midiOutUnprepareHeader")
	procMidiOutLongMsg       = winmm.NewProc("midiOutLongMsg")
)

// client is a WinMM-backed contracts.Context. WinMM has no concept of a
// process-wide client handle the way CoreMIDI/ALSA do: every open input or
// output device owns its own handle, so client mainly carries naming and
// option defaults new devices are constructed with.
type client struct {
	logger  contracts.Logger
	options *contracts.ClientOptions
}

// NewMIDIClient creates a MIDI client for Windows.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.Context, error) {
	options.Logger.Info("MIDI client created for Windows")
	return &client{logger: options.Logger, options: options}, nil
}

func (c *client) Name() string { return c.options.ClientName }

func (c *client) InputCount() (int, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	return int(r0), nil
}

func (c *client) InputName(idx int) (string, error) {
	n, _ := c.InputCount()
	if idx < 0 || idx >= n {
		return "", contracts.NewResult("InputName", contracts.OutOfRange, nil)
	}
	var caps midiInCaps
	r1, _, _ := procMidiInGetDevCaps.Call(uintptr(idx), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
	if r1 != MMSYSERR_NOERROR {
		return "", contracts.NewResult("InputName", contracts.Error, fmt.Errorf("midiInGetDevCaps: %d", r1))
	}
	return windows.UTF16ToString(caps.szPname[:]), nil
}

func (c *client) InputInfo(idx int) (contracts.DeviceInfo, error) {
	n, _ := c.InputCount()
	if idx < 0 || idx >= n {
		return contracts.DeviceInfo{}, contracts.NewResult("InputInfo", contracts.OutOfRange, nil)
	}
	var caps midiInCaps
	r1, _, _ := procMidiInGetDevCaps.Call(uintptr(idx), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
	if r1 != MMSYSERR_NOERROR {
		return contracts.DeviceInfo{}, contracts.NewResult("InputInfo", contracts.Error, fmt.Errorf("midiInGetDevCaps: %d", r1))
	}
	name := windows.UTF16ToString(caps.szPname[:])
	return contracts.DeviceInfo{Name: name, Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid)}, nil
}

func (c *client) OutputCount() (int, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	return int(r0), nil
}

func (c *client) OutputName(idx int) (string, error) {
	n, _ := c.OutputCount()
	if idx < 0 || idx >= n {
		return "", contracts.NewResult("OutputName", contracts.OutOfRange, nil)
	}
	var caps midiOutCaps
	r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(idx), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
	if r1 != MMSYSERR_NOERROR {
		return "", contracts.NewResult("OutputName", contracts.Error, fmt.Errorf("midiOutGetDevCaps: %d", r1))
	}
	return windows.UTF16ToString(caps.szPname[:]), nil
}

func (c *client) OutputInfo(idx int) (contracts.DeviceInfo, error) {
	n, _ := c.OutputCount()
	if idx < 0 || idx >= n {
		return contracts.DeviceInfo{}, contracts.NewResult("OutputInfo", contracts.OutOfRange, nil)
	}
	var caps midiOutCaps
	r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(idx), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
	if r1 != MMSYSERR_NOERROR {
		return contracts.DeviceInfo{}, contracts.NewResult("OutputInfo", contracts.Error, fmt.Errorf("midiOutGetDevCaps: %d", r1))
	}
	name := windows.UTF16ToString(caps.szPname[:])
	return contracts.DeviceInfo{Name: name, Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid)}, nil
}

func (c *client) OpenInput(idx int, cb contracts.MessageCallback) (contracts.InputDevice, error) {
	n, _ := c.InputCount()
	if idx < 0 || idx >= n {
		return nil, contracts.NewResult("OpenInput", contracts.OutOfRange, nil)
	}
	return &inputDevice{
		client:   c,
		deviceID: uint32(idx),
		parser:   midiwire.NewParser(c.options.SysExBufferSize),
		cb:       cb,
	}, nil
}

// OpenVirtualInput is unsupported: WinMM has no virtual MIDI port concept.
func (c *client) OpenVirtualInput(contracts.MessageCallback) (contracts.InputDevice, error) {
	return nil, contracts.NewResult("OpenVirtualInput", contracts.NoBackend, nil)
}

func (c *client) OpenOutput(idx int) (contracts.OutputDevice, error) {
	n, _ := c.OutputCount()
	if idx < 0 || idx >= n {
		return nil, contracts.NewResult("OpenOutput", contracts.OutOfRange, nil)
	}
	d := &outputDevice{client: c, deviceID: uint32(idx)}
	if err := d.open(); err != nil {
		return nil, err
	}
	return d, nil
}

// OpenVirtualOutput is unsupported: WinMM has no virtual MIDI port concept.
func (c *client) OpenVirtualOutput() (contracts.OutputDevice, error) {
	return nil, contracts.NewResult("OpenVirtualOutput", contracts.NoBackend, nil)
}

func (c *client) Close() error { return nil }

// inputRegistry recovers the owning *inputDevice from the dwInstance value
// WinMM hands back to the callback, and keeps it reachable to the garbage
// collector for the lifetime of the capture.
var (
	inputRegistryMu sync.Mutex
	inputRegistry   = map[uintptr]*inputDevice{}
)

type inputDevice struct {
	client   *client
	deviceID uint32
	handle   HMIDIIN
	callback uintptr
	parser   *midiwire.Parser
	cb       contracts.MessageCallback
	sysexHdr *midiHdr
	sysexBuf []byte
	started  bool
}

func (d *inputDevice) Start() error {
	if d.started {
		return contracts.NewResult("Start", contracts.AlreadyOpen, nil)
	}
	d.callback = windows.NewCallback(midiInCallback)
	fdwOpen := uintptr(CALLBACK_FUNCTION | MIDI_IO_STATUS)

	inputRegistryMu.Lock()
	inputRegistry[uintptr(unsafe.Pointer(d))] = d
	inputRegistryMu.Unlock()

	r1, _, _ := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&d.handle)),
		uintptr(d.deviceID),
		d.callback,
		uintptr(unsafe.Pointer(d)),
		fdwOpen,
	)
	if r1 != MMSYSERR_NOERROR {
		inputRegistryMu.Lock()
		delete(inputRegistry, uintptr(unsafe.Pointer(d)))
		inputRegistryMu.Unlock()
		return contracts.NewResult("Start", contracts.Error, fmt.Errorf("midiInOpen: %d", r1))
	}

	// Prime a SysEx buffer so MIM_LONGDATA has somewhere to land; WinMM
	// requires buffers be prepared and re-added after every completion.
	d.sysexBuf = make([]byte, d.client.options.SysExBufferSize)
	d.sysexHdr = &midiHdr{
		lpData:         uintptr(unsafe.Pointer(&d.sysexBuf[0])),
		dwBufferLength: uint32(len(d.sysexBuf)),
	}
	procMidiInPrepareHeader.Call(uintptr(d.handle), uintptr(unsafe.Pointer(d.sysexHdr)), unsafe.Sizeof(*d.sysexHdr))
	procMidiInAddBuffer.Call(uintptr(d.handle), uintptr(unsafe.Pointer(d.sysexHdr)), unsafe.Sizeof(*d.sysexHdr))

	r1, _, _ = procMidiInStart.Call(uintptr(d.handle))
	if r1 != MMSYSERR_NOERROR {
		return contracts.NewResult("Start", contracts.Error, fmt.Errorf("midiInStart: %d", r1))
	}
	d.started = true
	return nil
}

func (d *inputDevice) Stop() error {
	if !d.started {
		return nil
	}
	procMidiInStop.Call(uintptr(d.handle))
	if d.sysexHdr != nil {
		procMidiInUnprepareHdr.Call(uintptr(d.handle), uintptr(unsafe.Pointer(d.sysexHdr)), unsafe.Sizeof(*d.sysexHdr))
	}
	procMidiInClose.Call(uintptr(d.handle))
	inputRegistryMu.Lock()
	delete(inputRegistry, uintptr(unsafe.Pointer(d)))
	inputRegistryMu.Unlock()
	d.started = false
	return nil
}

func (d *inputDevice) Close() error { return d.Stop() }

// midiInCallback is the free function WinMM invokes via the lazy-bound
// callback trampoline; dwInstance recovers the owning *inputDevice.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	inputRegistryMu.Lock()
	d := inputRegistry[dwInstance]
	inputRegistryMu.Unlock()
	if d == nil {
		return 0
	}

	// dwParam2 is the millisecond tick count since midiInStart; convert to
	// seconds. The epoch is this device's start, so these timestamps are not
	// comparable across devices or backends.
	timestamp := float64(uint32(dwParam2)) / 1000.0

	switch wMsg {
	case MIM_DATA:
		status := byte(dwParam1 & 0xFF)
		data1 := byte((dwParam1 >> 8) & 0xFF)
		data2 := byte((dwParam1 >> 16) & 0xFF)
		d.parser.Feed([]byte{status, data1, data2}, timestamp, d.cb)
	case MIM_LONGDATA:
		hdr := (*midiHdr)(unsafe.Pointer(dwParam1))
		if hdr.dwBytesRecorded > 0 {
			buf := unsafe.Slice((*byte)(unsafe.Pointer(hdr.lpData)), hdr.dwBytesRecorded)
			d.parser.Feed(buf, timestamp, d.cb)
		}
		// re-arm the same buffer for the next SysEx chunk
		procMidiInAddBuffer.Call(uintptr(hMidiIn), dwParam1, unsafe.Sizeof(*hdr))
	case MIM_ERROR, MIM_LONGERROR, MIM_OPEN, MIM_CLOSE, MIM_MOREDATA:
		// diagnostic only; no message to deliver
	}
	return 0
}

type outputDevice struct {
	client   *client
	deviceID uint32
	handle   HMIDIOUT
}

func (o *outputDevice) open() error {
	r1, _, _ := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&o.handle)),
		uintptr(o.deviceID),
		0, 0, 0,
	)
	if r1 != MMSYSERR_NOERROR {
		return contracts.NewResult("OpenOutput", contracts.Error, fmt.Errorf("midiOutOpen: %d", r1))
	}
	return nil
}

func (o *outputDevice) Send(msg contracts.Message) error {
	data, err := midiwire.Encode(msg)
	if err != nil {
		return err
	}
	if msg.Kind == contracts.SysEx {
		return o.SendSysEx(data)
	}
	var packed uint32
	for i, b := range data {
		packed |= uint32(b) << (8 * uint(i))
	}
	r1, _, _ := procMidiOutShortMsg.Call(uintptr(o.handle), uintptr(packed))
	if r1 != MMSYSERR_NOERROR {
		return contracts.NewResult("Send", contracts.Error, fmt.Errorf("midiOutShortMsg: %d", r1))
	}
	return nil
}

func (o *outputDevice) SendSysEx(data []byte) error {
	if len(data) == 0 {
		return contracts.NewResult("SendSysEx", contracts.InvalidArg, nil)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	hdr := &midiHdr{
		lpData:         uintptr(unsafe.Pointer(&buf[0])),
		dwBufferLength: uint32(len(buf)),
	}
	procMidiOutPrepareHeader.Call(uintptr(o.handle), uintptr(unsafe.Pointer(hdr)), unsafe.Sizeof(*hdr))
	defer procMidiOutUnprepareHdr.Call(uintptr(o.handle), uintptr(unsafe.Pointer(hdr)), unsafe.Sizeof(*hdr))

	r1, _, _ := procMidiOutLongMsg.Call(uintptr(o.handle), uintptr(unsafe.Pointer(hdr)), unsafe.Sizeof(*hdr))
	if r1 != MMSYSERR_NOERROR {
		return contracts.NewResult("SendSysEx", contracts.Error, fmt.Errorf("midiOutLongMsg: %d", r1))
	}
	// Poll for completion, matching original_source's MIDIERR_STILLPLAYING
	// wait loop rather than requiring the caller to track a callback.
	for i := 0; i < 1000; i++ {
		r1, _, _ = procMidiOutUnprepareHdr.Call(uintptr(o.handle), uintptr(unsafe.Pointer(hdr)), unsafe.Sizeof(*hdr))
		if r1 != MIDIERR_STILLPLAYING {
			break
		}
	}
	return nil
}

func (o *outputDevice) Close() error {
	procMidiOutClose.Call(uintptr(o.handle))
	return nil
}
