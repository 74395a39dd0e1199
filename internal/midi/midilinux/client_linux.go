//go:build linux
// +build linux

package midilinux

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <poll.h>
#include <unistd.h>
#include <stdlib.h>
#include <string.h>
#include <time.h>

// linux_monotonic_seconds mirrors original_source/minimidio.h's
// clock_gettime(CLOCK_MONOTONIC, ...) call taken right after an event is
// dequeued, since raw ALSA sequencer events carry no wall-clock timestamp
// of their own on a non-queued (direct) connection.
static double linux_monotonic_seconds(void) {
	struct timespec ts;
	clock_gettime(CLOCK_MONOTONIC, &ts);
	return (double)ts.tv_sec + (double)ts.tv_nsec * 1e-9;
}

// linux_wake_pipe holds both ends of the wake-pipe Stop writes to in order
// to interrupt a blocked poll(), one pair per started input port; the
// original_source ALSA backend uses the identical pipe-plus-poll technique
// because snd_seq has no portable "cancel this poll" call of its own.
typedef struct {
	int read_fd;
	int write_fd;
} linux_wake_pipe;

static int linux_make_wake_pipe(linux_wake_pipe *p) {
	int fds[2];
	if (pipe(fds) != 0) {
		return -1;
	}
	p->read_fd = fds[0];
	p->write_fd = fds[1];
	return 0;
}

static void linux_wake(linux_wake_pipe *p) {
	char b = 1;
	write(p->write_fd, &b, 1);
}

static void linux_close_wake_pipe(linux_wake_pipe *p) {
	close(p->read_fd);
	close(p->write_fd);
}

// linux_poll_seq_or_wake blocks until either a sequencer event is pending or
// the wake pipe is written to (meaning "stop"). Returns 1 if sequencer data
// is ready, 0 if woken to stop.
static int linux_poll_seq_or_wake(snd_seq_t *seq, linux_wake_pipe *wake) {
	int npfds = snd_seq_poll_descriptors_count(seq, POLLIN);
	struct pollfd *pfds = (struct pollfd *)malloc(sizeof(struct pollfd) * (npfds + 1));
	snd_seq_poll_descriptors(seq, pfds, npfds, POLLIN);
	pfds[npfds].fd = wake->read_fd;
	pfds[npfds].events = POLLIN;
	pfds[npfds].revents = 0;

	int rc = poll(pfds, npfds + 1, -1);
	int woken = (rc > 0 && (pfds[npfds].revents & POLLIN));
	free(pfds);
	if (woken) {
		return 0;
	}
	return 1;
}

static snd_seq_t *linux_open_seq(const char *name) {
	snd_seq_t *seq;
	if (snd_seq_open(&seq, "default", SND_SEQ_OPEN_DUPLEX, 0) < 0) {
		return NULL;
	}
	snd_seq_set_client_name(seq, name);
	return seq;
}

static int linux_create_port(snd_seq_t *seq, const char *name, unsigned int caps, unsigned int type) {
	return snd_seq_create_simple_port(seq, name, caps, type);
}

static int linux_connect_from(snd_seq_t *seq, int myport, int srcClient, int srcPort) {
	return snd_seq_connect_from(seq, myport, srcClient, srcPort);
}

static int linux_connect_to(snd_seq_t *seq, int myport, int dstClient, int dstPort) {
	return snd_seq_connect_to(seq, myport, dstClient, dstPort);
}

// linux_event_pending returns the number of pending input events, first
// fetching from the sequencer with the fetch_sequencer=1 argument the
// original backend insists on:
// without it, events addressed to a virtual port sit in the kernel ring and
// snd_seq_event_input_pending never reports them.
static int linux_event_pending(snd_seq_t *seq) {
	return snd_seq_event_input_pending(seq, 1);
}

static int linux_event_input(snd_seq_t *seq, snd_seq_event_t **ev) {
	return snd_seq_event_input(seq, ev);
}

// linux_decode_event renders ev's channel-message bytes (if any) into buf,
// returning the byte count, or 0 for event types with no direct MIDI 1.0
// byte-stream representation (port subscribe/unsubscribe notifications).
static int linux_decode_event(snd_seq_event_t *ev, unsigned char *buf, int buflen) {
	snd_midi_event_t *coder;
	snd_midi_event_new(buflen, &coder);
	long n = snd_midi_event_decode(coder, buf, buflen, ev);
	snd_midi_event_free(coder);
	if (n < 0) {
		return 0;
	}
	return (int)n;
}

static int linux_send_raw(snd_seq_t *seq, int myport, int destClient, int destPort, const unsigned char *data, int n) {
	snd_midi_event_t *coder;
	snd_midi_event_new(n, &coder);
	snd_seq_event_t ev;
	snd_seq_ev_clear(&ev);
	long used = snd_midi_event_encode(coder, data, n, &ev);
	snd_midi_event_free(coder);
	if (used <= 0) {
		return -1;
	}
	snd_seq_ev_set_source(&ev, myport);
	if (destClient >= 0) {
		snd_seq_ev_set_dest(&ev, destClient, destPort);
	} else {
		snd_seq_ev_set_subs(&ev);
	}
	snd_seq_ev_set_direct(&ev);
	int rc = snd_seq_event_output(seq, &ev);
	if (rc >= 0) {
		snd_seq_drain_output(seq);
	}
	return rc;
}

// linux_scan_ports lists, across all clients, the ports whose capability
// bits include every bit of wantCap, skipping NO_EXPORT ports. Input
// enumeration passes CAP_READ|CAP_SUBS_READ, so read ports without
// CAP_SUBS_READ are not listed; CAP_WRITE is not required of inputs.
static int linux_scan_ports(snd_seq_t *seq, unsigned int wantCap, char names[][64], int maxPorts) {
	snd_seq_client_info_t *cinfo;
	snd_seq_port_info_t *pinfo;
	snd_seq_client_info_alloca(&cinfo);
	snd_seq_port_info_alloca(&pinfo);

	int count = 0;
	snd_seq_client_info_set_client(cinfo, -1);
	while (snd_seq_query_next_client(seq, cinfo) >= 0 && count < maxPorts) {
		int client = snd_seq_client_info_get_client(cinfo);
		snd_seq_port_info_set_client(pinfo, client);
		snd_seq_port_info_set_port(pinfo, -1);
		while (snd_seq_query_next_port(seq, pinfo) >= 0 && count < maxPorts) {
			unsigned int cap = snd_seq_port_info_get_capability(pinfo);
			if ((cap & wantCap) != wantCap) {
				continue;
			}
			if (cap & SND_SEQ_PORT_CAP_NO_EXPORT) {
				continue;
			}
			snprintf(names[count], 64, "%d:%d %s", client, snd_seq_port_info_get_port(pinfo), snd_seq_port_info_get_name(pinfo));
			count++;
		}
	}
	return count;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/octetta/gomidio/internal/midiwire"
	"github.com/octetta/gomidio/sdk/contracts"
)

const maxScanPorts = 256

// client is an ALSA sequencer-backed contracts.Context. Unlike CoreMIDI,
// ALSA ports are plain capability bits: there is no separate
// "virtual endpoint" API call, a virtual input is just a port advertising
// SND_SEQ_PORT_CAP_WRITE|SUBS_WRITE that any other client can connect to,
// exactly as original_source/minimidio.h's ALSA section creates them.
type client struct {
	logger  contracts.Logger
	options *contracts.ClientOptions
	seq     *C.snd_seq_t
	name    *C.char
}

func NewMIDIClient(options *contracts.ClientOptions) (contracts.Context, error) {
	cName := C.CString(options.ClientName)
	seq := C.linux_open_seq(cName)
	if seq == nil {
		C.free(unsafe.Pointer(cName))
		return nil, contracts.NewResult("NewMIDIClient", contracts.NoBackend, fmt.Errorf("snd_seq_open failed"))
	}
	options.Logger.Info("ALSA sequencer client created")
	return &client{logger: options.Logger, options: options, seq: seq, name: cName}, nil
}

func (c *client) Name() string { return c.options.ClientName }

func (c *client) scan(cap C.uint) ([]string, error) {
	buf := make([]byte, 64*maxScanPorts)
	cbuf := (*[maxScanPorts][64]C.char)(unsafe.Pointer(&buf[0]))
	n := int(C.linux_scan_ports(c.seq, cap, (*[64]C.char)(unsafe.Pointer(&buf[0])), C.int(maxScanPorts)))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = C.GoString(&cbuf[i][0])
	}
	return out, nil
}

func (c *client) InputCount() (int, error) {
	ports, err := c.scan(C.SND_SEQ_PORT_CAP_READ | C.SND_SEQ_PORT_CAP_SUBS_READ)
	return len(ports), err
}

func (c *client) InputName(idx int) (string, error) {
	ports, err := c.scan(C.SND_SEQ_PORT_CAP_READ | C.SND_SEQ_PORT_CAP_SUBS_READ)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(ports) {
		return "", contracts.NewResult("InputName", contracts.OutOfRange, nil)
	}
	return ports[idx], nil
}

func (c *client) InputInfo(idx int) (contracts.DeviceInfo, error) {
	name, err := c.InputName(idx)
	if err != nil {
		return contracts.DeviceInfo{}, err
	}
	return contracts.DeviceInfo{Name: name}, nil
}

func (c *client) OutputCount() (int, error) {
	ports, err := c.scan(C.SND_SEQ_PORT_CAP_WRITE | C.SND_SEQ_PORT_CAP_SUBS_WRITE)
	return len(ports), err
}

func (c *client) OutputName(idx int) (string, error) {
	ports, err := c.scan(C.SND_SEQ_PORT_CAP_WRITE | C.SND_SEQ_PORT_CAP_SUBS_WRITE)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(ports) {
		return "", contracts.NewResult("OutputName", contracts.OutOfRange, nil)
	}
	return ports[idx], nil
}

func (c *client) OutputInfo(idx int) (contracts.DeviceInfo, error) {
	name, err := c.OutputName(idx)
	if err != nil {
		return contracts.DeviceInfo{}, err
	}
	return contracts.DeviceInfo{Name: name}, nil
}

func parsePortAddr(s string) (clientNum, portNum int, ok bool) {
	if n, _ := fmt.Sscanf(s, "%d:%d", &clientNum, &portNum); n == 2 {
		return clientNum, portNum, true
	}
	return 0, 0, false
}

func (c *client) OpenInput(idx int, cb contracts.MessageCallback) (contracts.InputDevice, error) {
	ports, err := c.scan(C.SND_SEQ_PORT_CAP_READ | C.SND_SEQ_PORT_CAP_SUBS_READ)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(ports) {
		return nil, contracts.NewResult("OpenInput", contracts.OutOfRange, nil)
	}
	srcClient, srcPort, ok := parsePortAddr(ports[idx])
	if !ok {
		return nil, contracts.NewResult("OpenInput", contracts.Error, fmt.Errorf("malformed port address"))
	}
	return &inputDevice{
		client:    c,
		parser:    midiwire.NewParser(c.options.SysExBufferSize),
		cb:        cb,
		srcClient: srcClient,
		srcPort:   srcPort,
	}, nil
}

func (c *client) OpenVirtualInput(cb contracts.MessageCallback) (contracts.InputDevice, error) {
	return &inputDevice{
		client:    c,
		parser:    midiwire.NewParser(c.options.SysExBufferSize),
		cb:        cb,
		isVirtual: true,
	}, nil
}

func (c *client) OpenOutput(idx int) (contracts.OutputDevice, error) {
	ports, err := c.scan(C.SND_SEQ_PORT_CAP_WRITE | C.SND_SEQ_PORT_CAP_SUBS_WRITE)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(ports) {
		return nil, contracts.NewResult("OpenOutput", contracts.OutOfRange, nil)
	}
	dstClient, dstPort, ok := parsePortAddr(ports[idx])
	if !ok {
		return nil, contracts.NewResult("OpenOutput", contracts.Error, fmt.Errorf("malformed port address"))
	}

	myPort := int(C.linux_create_port(c.seq, C.CString("out"),
		C.SND_SEQ_PORT_CAP_READ|C.SND_SEQ_PORT_CAP_WRITE,
		C.SND_SEQ_PORT_TYPE_MIDI_GENERIC|C.SND_SEQ_PORT_TYPE_APPLICATION))
	if myPort < 0 {
		return nil, contracts.NewResult("OpenOutput", contracts.AllocFailed, nil)
	}
	if rc := C.linux_connect_to(c.seq, C.int(myPort), C.int(dstClient), C.int(dstPort)); rc < 0 {
		return nil, contracts.NewResult("OpenOutput", contracts.Error, fmt.Errorf("snd_seq_connect_to: %d", int(rc)))
	}
	return &outputDevice{client: c, myPort: myPort, destClient: dstClient, destPort: dstPort}, nil
}

func (c *client) OpenVirtualOutput() (contracts.OutputDevice, error) {
	myPort := int(C.linux_create_port(c.seq, C.CString("virtual-out"),
		C.SND_SEQ_PORT_CAP_READ|C.SND_SEQ_PORT_CAP_SUBS_READ,
		C.SND_SEQ_PORT_TYPE_MIDI_GENERIC|C.SND_SEQ_PORT_TYPE_APPLICATION))
	if myPort < 0 {
		return nil, contracts.NewResult("OpenVirtualOutput", contracts.AllocFailed, nil)
	}
	// No explicit connect call: ALSA's SUBS_READ capability bit alone is
	// what lets a peer "subscribe" to this port as a source, unlike
	// CoreMIDI's MIDISourceCreate/Connect pairing.
	return &outputDevice{client: c, myPort: myPort, destClient: -1}, nil
}

func (c *client) Close() error {
	C.snd_seq_close(c.seq)
	C.free(unsafe.Pointer(c.name))
	return nil
}

type inputDevice struct {
	client    *client
	parser    *midiwire.Parser
	cb        contracts.MessageCallback
	isVirtual bool
	srcClient int
	srcPort   int

	myPort  int
	wake    C.linux_wake_pipe
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	started bool
}

func (d *inputDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return contracts.NewResult("Start", contracts.AlreadyOpen, nil)
	}

	caps := C.uint(C.SND_SEQ_PORT_CAP_WRITE)
	if d.isVirtual {
		caps |= C.SND_SEQ_PORT_CAP_SUBS_WRITE
	}
	myPort := int(C.linux_create_port(d.client.seq, C.CString("in"),
		caps, C.SND_SEQ_PORT_TYPE_MIDI_GENERIC|C.SND_SEQ_PORT_TYPE_APPLICATION))
	if myPort < 0 {
		return contracts.NewResult("Start", contracts.AllocFailed, nil)
	}
	d.myPort = myPort

	if !d.isVirtual {
		if rc := C.linux_connect_from(d.client.seq, C.int(myPort), C.int(d.srcClient), C.int(d.srcPort)); rc < 0 {
			return contracts.NewResult("Start", contracts.Error, fmt.Errorf("snd_seq_connect_from: %d", int(rc)))
		}
	}

	if C.linux_make_wake_pipe(&d.wake) != 0 {
		return contracts.NewResult("Start", contracts.AllocFailed, nil)
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.started = true

	go d.receiveLoop()
	return nil
}

func (d *inputDevice) receiveLoop() {
	defer close(d.done)
	buf := make([]byte, 1024)
	for {
		if C.linux_poll_seq_or_wake(d.client.seq, &d.wake) == 0 {
			return // woken for shutdown
		}
		for C.linux_event_pending(d.client.seq) > 0 {
			var ev *C.snd_seq_event_t
			if C.linux_event_input(d.client.seq, &ev) < 0 {
				break
			}
			n := int(C.linux_decode_event(ev, (*C.uchar)(unsafe.Pointer(&buf[0])), C.int(len(buf))))
			if n > 0 {
				timestamp := float64(C.linux_monotonic_seconds())
				d.parser.Feed(buf[:n], timestamp, d.cb)
			}
		}
	}
}

func (d *inputDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil
	}
	C.linux_wake(&d.wake)
	<-d.done
	C.linux_close_wake_pipe(&d.wake)
	C.snd_seq_delete_simple_port(d.client.seq, C.int(d.myPort))
	d.started = false
	return nil
}

func (d *inputDevice) Close() error { return d.Stop() }

type outputDevice struct {
	client     *client
	myPort     int
	destClient int
	destPort   int
}

func (o *outputDevice) Send(msg contracts.Message) error {
	data, err := midiwire.Encode(msg)
	if err != nil {
		return err
	}
	return o.sendRaw(data)
}

func (o *outputDevice) SendSysEx(data []byte) error {
	if len(data) == 0 {
		return contracts.NewResult("SendSysEx", contracts.InvalidArg, nil)
	}
	return o.sendRaw(data)
}

func (o *outputDevice) sendRaw(data []byte) error {
	cData := C.CBytes(data)
	defer C.free(cData)
	rc := C.linux_send_raw(o.client.seq, C.int(o.myPort), C.int(o.destClient), C.int(o.destPort),
		(*C.uchar)(cData), C.int(len(data)))
	if rc < 0 {
		return contracts.NewResult("Send", contracts.Error, fmt.Errorf("snd_seq_event_output: %d", int(rc)))
	}
	return nil
}

func (o *outputDevice) Close() error {
	C.snd_seq_delete_simple_port(o.client.seq, C.int(o.myPort))
	return nil
}
