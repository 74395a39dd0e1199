//go:build !darwin
// +build !darwin

package mididarwin

import "github.com/octetta/gomidio/sdk/contracts"

// DummyMIDIClient stands in for the CoreMIDI backend when cross-compiling
// for a non-Darwin target: enumeration reports no endpoints and the Open*
// operations fail with NoBackend.
type DummyMIDIClient struct {
	logger contracts.Logger
}

func NewMIDIClient(options *contracts.ClientOptions) (contracts.Context, error) {
	options.Logger.Warn("CoreMIDI backend unavailable on this platform")
	return &DummyMIDIClient{logger: options.Logger}, nil
}

func (m *DummyMIDIClient) Name() string { return "coremidi-dummy" }

func (m *DummyMIDIClient) InputCount() (int, error)      { return 0, nil }
func (m *DummyMIDIClient) InputName(int) (string, error) { return "", contracts.NewResult("InputName", contracts.OutOfRange, nil) }
func (m *DummyMIDIClient) InputInfo(int) (contracts.DeviceInfo, error) {
	return contracts.DeviceInfo{}, contracts.NewResult("InputInfo", contracts.OutOfRange, nil)
}
func (m *DummyMIDIClient) OutputCount() (int, error)      { return 0, nil }
func (m *DummyMIDIClient) OutputName(int) (string, error) { return "", contracts.NewResult("OutputName", contracts.OutOfRange, nil) }
func (m *DummyMIDIClient) OutputInfo(int) (contracts.DeviceInfo, error) {
	return contracts.DeviceInfo{}, contracts.NewResult("OutputInfo", contracts.OutOfRange, nil)
}

func (m *DummyMIDIClient) OpenInput(int, contracts.MessageCallback) (contracts.InputDevice, error) {
	return nil, contracts.NewResult("OpenInput", contracts.NoBackend, nil)
}

func (m *DummyMIDIClient) OpenVirtualInput(contracts.MessageCallback) (contracts.InputDevice, error) {
	return nil, contracts.NewResult("OpenVirtualInput", contracts.NoBackend, nil)
}

func (m *DummyMIDIClient) OpenOutput(int) (contracts.OutputDevice, error) {
	return nil, contracts.NewResult("OpenOutput", contracts.NoBackend, nil)
}

func (m *DummyMIDIClient) OpenVirtualOutput() (contracts.OutputDevice, error) {
	return nil, contracts.NewResult("OpenVirtualOutput", contracts.NoBackend, nil)
}

func (m *DummyMIDIClient) Close() error { return nil }
