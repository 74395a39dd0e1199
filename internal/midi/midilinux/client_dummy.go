//go:build !linux
// +build !linux

package midilinux

import "github.com/octetta/gomidio/sdk/contracts"

// dummyMIDIClient stands in for the ALSA backend when cross-compiling for a
// non-Linux target: enumeration reports no endpoints and the Open*
// operations fail with NoBackend.
type dummyMIDIClient struct {
	logger contracts.Logger
}

func NewMIDIClient(options *contracts.ClientOptions) (contracts.Context, error) {
	options.Logger.Warn("ALSA backend unavailable on this platform")
	return &dummyMIDIClient{logger: options.Logger}, nil
}

func (m *dummyMIDIClient) Name() string { return "alsa-dummy" }

func (m *dummyMIDIClient) InputCount() (int, error)      { return 0, nil }
func (m *dummyMIDIClient) InputName(int) (string, error) { return "", contracts.NewResult("InputName", contracts.OutOfRange, nil) }
func (m *dummyMIDIClient) InputInfo(int) (contracts.DeviceInfo, error) {
	return contracts.DeviceInfo{}, contracts.NewResult("InputInfo", contracts.OutOfRange, nil)
}
func (m *dummyMIDIClient) OutputCount() (int, error)      { return 0, nil }
func (m *dummyMIDIClient) OutputName(int) (string, error) { return "", contracts.NewResult("OutputName", contracts.OutOfRange, nil) }
func (m *dummyMIDIClient) OutputInfo(int) (contracts.DeviceInfo, error) {
	return contracts.DeviceInfo{}, contracts.NewResult("OutputInfo", contracts.OutOfRange, nil)
}

func (m *dummyMIDIClient) OpenInput(int, contracts.MessageCallback) (contracts.InputDevice, error) {
	return nil, contracts.NewResult("OpenInput", contracts.NoBackend, nil)
}

func (m *dummyMIDIClient) OpenVirtualInput(contracts.MessageCallback) (contracts.InputDevice, error) {
	return nil, contracts.NewResult("OpenVirtualInput", contracts.NoBackend, nil)
}

func (m *dummyMIDIClient) OpenOutput(int) (contracts.OutputDevice, error) {
	return nil, contracts.NewResult("OpenOutput", contracts.NoBackend, nil)
}

func (m *dummyMIDIClient) OpenVirtualOutput() (contracts.OutputDevice, error) {
	return nil, contracts.NewResult("OpenVirtualOutput", contracts.NoBackend, nil)
}

func (m *dummyMIDIClient) Close() error { return nil }
