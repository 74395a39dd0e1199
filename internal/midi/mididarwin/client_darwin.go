//go:build darwin
// +build darwin

package mididarwin

/*
#cgo LDFLAGS: -framework CoreMIDI -framework CoreFoundation
#include <CoreMIDI/CoreMIDI.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdlib.h>
#include <string.h>

extern void goDarwinReadProc(const MIDIPacketList *pktlist, void *readProcRefCon, void *srcConnRefCon);

static MIDIClientRef darwinNewClient(CFStringRef name) {
	MIDIClientRef client;
	MIDIClientCreate(name, NULL, NULL, &client);
	return client;
}

static MIDIPortRef darwinNewOutputPort(MIDIClientRef client, CFStringRef name) {
	MIDIPortRef port;
	MIDIOutputPortCreate(client, name, &port);
	return port;
}

static MIDIEndpointRef darwinNewVirtualSource(MIDIClientRef client, CFStringRef name) {
	MIDIEndpointRef ep;
	MIDISourceCreate(client, name, &ep);
	return ep;
}

static MIDIEndpointRef darwinNewVirtualDestination(MIDIClientRef client, CFStringRef name, void *refcon) {
	MIDIEndpointRef ep;
	MIDIDestinationCreate(client, name, goDarwinReadProc, refcon, &ep);
	return ep;
}

static CFStringRef darwinCFString(const char *s) {
	return CFStringCreateWithCString(NULL, s, kCFStringEncodingUTF8);
}

static void darwinCFStringToBuf(CFStringRef s, char *buf, int len) {
	if (s == NULL) { buf[0] = 0; return; }
	CFStringGetCString(s, buf, len, kCFStringEncodingUTF8);
}

static int darwinSendShort(MIDIPortRef port, MIDIEndpointRef dest, const Byte *data, UInt32 n) {
	Byte packetBuf[512];
	MIDIPacketList *pktlist = (MIDIPacketList *)packetBuf;
	MIDIPacket *pkt = MIDIPacketListInit(pktlist);
	pkt = MIDIPacketListAdd(pktlist, sizeof(packetBuf), pkt, 0, n, data);
	if (pkt == NULL) {
		return -1;
	}
	return MIDISend(port, dest, pktlist);
}

static int darwinReceivedShort(MIDIEndpointRef src, const Byte *data, UInt32 n) {
	Byte packetBuf[512];
	MIDIPacketList *pktlist = (MIDIPacketList *)packetBuf;
	MIDIPacket *pkt = MIDIPacketListInit(pktlist);
	pkt = MIDIPacketListAdd(pktlist, sizeof(packetBuf), pkt, 0, n, data);
	if (pkt == NULL) {
		return -1;
	}
	return MIDIReceived(src, pktlist);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/octetta/gomidio/internal/midiwire"
	"github.com/octetta/gomidio/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// registry maps an opaque integer handle to the Go-side input device
// that owns it. cgo callbacks receive a refCon void*, and passing a Go
// pointer across that boundary is unsafe once the garbage collector can
// move or free it; registering an integer handle instead (grounded on the
// same refCon-indirection pattern original_source/minimidio.h uses to
// recover its per-device state struct) keeps the callback side free of Go
// pointers entirely.
var (
	registryMu  sync.Mutex
	registry    = map[uintptr]*darwinInputDevice{}
	registryNum uintptr
)

func registerInput(d *darwinInputDevice) uintptr {
	registryMu.Lock()
	defer registryMu.Unlock()
	registryNum++
	id := registryNum
	registry[id] = d
	return id
}

func unregisterInput(id uintptr) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, id)
}

func lookupInput(id uintptr) *darwinInputDevice {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry[id]
}

//export goDarwinReadProc
func goDarwinReadProc(pktlist *C.MIDIPacketList, refcon unsafe.Pointer, _ unsafe.Pointer) {
	d := lookupInput(uintptr(refcon))
	if d == nil {
		return
	}
	numPackets := pktlist.numPackets
	packet := &pktlist.packet[0]
	for i := C.UInt32(0); i < numPackets; i++ {
		data := C.GoBytes(unsafe.Pointer(&packet.data[0]), C.int(packet.length))
		timestamp := float64(packet.timeStamp) / 1e9
		d.parser.Feed(data, timestamp, d.cb)
		packet = (*C.MIDIPacket)(unsafe.Pointer(C.MIDIPacketNext(packet)))
	}
}

// client manages a CoreMIDI process client plus a single shared output
// port. Enumeration and hardware-source input connection reuse go-coremidi
// exactly as the teacher's backend demonstrated; virtual endpoints, output
// transmission, and SysEx bind directly to the CoreMIDI framework via cgo
// since go-coremidi's surface never covers them.
type client struct {
	logger     contracts.Logger
	options    *contracts.ClientOptions
	coreClient coremidi.Client
	ref        C.MIDIClientRef
	outPort    C.MIDIPortRef
	name       *C.char
}

// NewMIDIClient initializes a new MIDI client for Darwin with applied options.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.Context, error) {
	coreClient, err := coremidi.NewClient(options.ClientName)
	if err != nil {
		return nil, contracts.NewResult("NewMIDIClient", contracts.Error, err)
	}

	cName := C.CString(options.ClientName)
	cfName := C.darwinCFString(cName)
	defer C.CFRelease(C.CFTypeRef(cfName))

	ref := C.darwinNewClient(cfName)
	if ref == 0 {
		C.free(unsafe.Pointer(cName))
		return nil, contracts.NewResult("NewMIDIClient", contracts.AllocFailed, nil)
	}
	outPort := C.darwinNewOutputPort(ref, cfName)

	options.Logger.Info("MIDI client successfully created")
	return &client{
		logger:     options.Logger,
		options:    options,
		coreClient: coreClient,
		ref:        ref,
		outPort:    outPort,
		name:       cName,
	}, nil
}

func (c *client) Name() string { return c.options.ClientName }

func (c *client) InputCount() (int, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return 0, contracts.NewResult("InputCount", contracts.Error, err)
	}
	return len(sources), nil
}

func (c *client) InputName(idx int) (string, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return "", contracts.NewResult("InputName", contracts.Error, err)
	}
	if idx < 0 || idx >= len(sources) {
		return "", contracts.NewResult("InputName", contracts.OutOfRange, nil)
	}
	return sources[idx].Name(), nil
}

func (c *client) InputInfo(idx int) (contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return contracts.DeviceInfo{}, contracts.NewResult("InputInfo", contracts.Error, err)
	}
	if idx < 0 || idx >= len(sources) {
		return contracts.DeviceInfo{}, contracts.NewResult("InputInfo", contracts.OutOfRange, nil)
	}
	entity := sources[idx].Entity()
	return contracts.DeviceInfo{
		Name:         sources[idx].Name(),
		EntityName:   entity.Name(),
		Manufacturer: entity.Manufacturer(),
	}, nil
}

func (c *client) OutputCount() (int, error) {
	return int(C.MIDIGetNumberOfDestinations()), nil
}

func (c *client) OutputName(idx int) (string, error) {
	n := int(C.MIDIGetNumberOfDestinations())
	if idx < 0 || idx >= n {
		return "", contracts.NewResult("OutputName", contracts.OutOfRange, nil)
	}
	ep := C.MIDIGetDestination(C.ItemCount(idx))
	return endpointName(ep), nil
}

func endpointName(ep C.MIDIEndpointRef) string {
	var cfName C.CFStringRef
	C.MIDIObjectGetStringProperty(C.MIDIObjectRef(ep), C.kMIDIPropertyName, &cfName)
	if cfName == 0 {
		return ""
	}
	defer C.CFRelease(C.CFTypeRef(cfName))
	buf := make([]byte, 256)
	C.darwinCFStringToBuf(cfName, (*C.char)(unsafe.Pointer(&buf[0])), C.int(len(buf)))
	return C.GoString((*C.char)(unsafe.Pointer(&buf[0])))
}

func (c *client) OutputInfo(idx int) (contracts.DeviceInfo, error) {
	name, err := c.OutputName(idx)
	if err != nil {
		return contracts.DeviceInfo{}, err
	}
	return contracts.DeviceInfo{Name: name}, nil
}

func (c *client) OpenInput(idx int, cb contracts.MessageCallback) (contracts.InputDevice, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, contracts.NewResult("OpenInput", contracts.Error, err)
	}
	if idx < 0 || idx >= len(sources) {
		return nil, contracts.NewResult("OpenInput", contracts.OutOfRange, nil)
	}

	return &darwinInputDevice{
		client: c,
		parser: midiwire.NewParser(c.options.SysExBufferSize),
		cb:     cb,
		source: sources[idx],
	}, nil
}

func (c *client) OpenVirtualInput(cb contracts.MessageCallback) (contracts.InputDevice, error) {
	return &darwinInputDevice{
		client:    c,
		parser:    midiwire.NewParser(c.options.SysExBufferSize),
		cb:        cb,
		isVirtual: true,
	}, nil
}

func (c *client) OpenOutput(idx int) (contracts.OutputDevice, error) {
	n := int(C.MIDIGetNumberOfDestinations())
	if idx < 0 || idx >= n {
		return nil, contracts.NewResult("OpenOutput", contracts.OutOfRange, nil)
	}
	ep := C.MIDIGetDestination(C.ItemCount(idx))
	return &darwinOutputDevice{client: c, dest: ep}, nil
}

func (c *client) OpenVirtualOutput() (contracts.OutputDevice, error) {
	cfName := C.darwinCFString(c.name)
	defer C.CFRelease(C.CFTypeRef(cfName))
	ep := C.darwinNewVirtualSource(c.ref, cfName)
	if ep == 0 {
		return nil, contracts.NewResult("OpenVirtualOutput", contracts.AllocFailed, nil)
	}
	return &darwinOutputDevice{client: c, dest: ep, isVirtualSrc: true}, nil
}

func (c *client) Close() error {
	C.MIDIPortDispose(c.outPort)
	C.MIDIClientDispose(c.ref)
	C.free(unsafe.Pointer(c.name))
	return nil
}

// darwinInputDevice wraps either a go-coremidi connection to a hardware
// source, or a directly-created CoreMIDI virtual destination.
type darwinInputDevice struct {
	client    *client
	parser    *midiwire.Parser
	cb        contracts.MessageCallback
	isVirtual bool

	source coremidi.Source
	port   coremidi.InputPort
	conn   interface{ Disconnect() }

	vEndpoint C.MIDIEndpointRef
	regID     uintptr
	started   bool
}

func (d *darwinInputDevice) Start() error {
	if d.started {
		return contracts.NewResult("Start", contracts.AlreadyOpen, nil)
	}

	if d.isVirtual {
		d.regID = registerInput(d)
		cName := C.CString(fmt.Sprintf("%s Virtual In", d.client.options.ClientName))
		defer C.free(unsafe.Pointer(cName))
		cfName := C.darwinCFString(cName)
		defer C.CFRelease(C.CFTypeRef(cfName))
		ep := C.darwinNewVirtualDestination(d.client.ref, cfName, unsafe.Pointer(d.regID))
		if ep == 0 {
			unregisterInput(d.regID)
			return contracts.NewResult("Start", contracts.AllocFailed, nil)
		}
		d.vEndpoint = ep
		d.started = true
		return nil
	}

	port, err := coremidi.NewInputPort(d.client.coreClient, "Input Port", func(_ coremidi.Source, packet coremidi.Packet) {
		// go-coremidi's Packet does not expose the CoreMIDI host-time field,
		// so stamp arrival time the same way the teacher's wrapper did.
		timestamp := float64(time.Now().UnixNano()) / 1e9
		d.parser.Feed(packet.Data, timestamp, d.cb)
	})
	if err != nil {
		return contracts.NewResult("Start", contracts.Error, err)
	}
	conn, err := port.Connect(d.source)
	if err != nil {
		return contracts.NewResult("Start", contracts.Error, err)
	}
	d.port = port
	d.conn = conn
	d.started = true
	return nil
}

func (d *darwinInputDevice) Stop() error {
	if !d.started {
		return nil
	}
	if d.isVirtual {
		C.MIDIEndpointDispose(d.vEndpoint)
		unregisterInput(d.regID)
	} else if d.conn != nil {
		d.conn.Disconnect()
		d.conn = nil
	}
	d.started = false
	return nil
}

func (d *darwinInputDevice) Close() error {
	return d.Stop()
}

type darwinOutputDevice struct {
	client       *client
	dest         C.MIDIEndpointRef
	isVirtualSrc bool
}

func (o *darwinOutputDevice) Send(msg contracts.Message) error {
	data, err := midiwire.Encode(msg)
	if err != nil {
		return err
	}
	return o.sendRaw(data)
}

func (o *darwinOutputDevice) SendSysEx(data []byte) error {
	if len(data) == 0 {
		return contracts.NewResult("SendSysEx", contracts.InvalidArg, nil)
	}
	return o.sendRaw(data)
}

func (o *darwinOutputDevice) sendRaw(data []byte) error {
	if len(data) == 0 {
		return contracts.NewResult("Send", contracts.InvalidArg, nil)
	}
	cData := C.CBytes(data)
	defer C.free(cData)

	var rc C.int
	if o.isVirtualSrc {
		rc = C.darwinReceivedShort(o.dest, (*C.Byte)(cData), C.UInt32(len(data)))
	} else {
		rc = C.darwinSendShort(o.client.outPort, o.dest, (*C.Byte)(cData), C.UInt32(len(data)))
	}
	if rc != 0 {
		return contracts.NewResult("Send", contracts.Error, fmt.Errorf("coremidi status %d", int(rc)))
	}
	return nil
}

func (o *darwinOutputDevice) Close() error {
	if o.isVirtualSrc {
		C.MIDIEndpointDispose(o.dest)
	}
	return nil
}
