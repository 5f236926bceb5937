package rf

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRadio feeds queued payloads to the listener.
type fakeRadio struct {
	mu       sync.Mutex
	payloads [][]byte
	powered  bool
	listen   bool
	pipes    map[int][]byte
}

func newFakeRadio(payloads ...[]byte) *fakeRadio {
	return &fakeRadio{payloads: payloads, pipes: make(map[int][]byte)}
}

func (f *fakeRadio) OpenReadingPipe(pipe int, addr []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipes[pipe] = addr
	return nil
}

func (f *fakeRadio) StartListening() error { f.mu.Lock(); f.listen = true; f.mu.Unlock(); return nil }
func (f *fakeRadio) StopListening() error  { f.mu.Lock(); f.listen = false; f.mu.Unlock(); return nil }
func (f *fakeRadio) PowerUp() error        { f.mu.Lock(); f.powered = true; f.mu.Unlock(); return nil }
func (f *fakeRadio) PowerDown() error      { f.mu.Lock(); f.powered = false; f.mu.Unlock(); return nil }
func (f *fakeRadio) Close() error          { return nil }

func (f *fakeRadio) Available() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads) > 0, nil
}

func (f *fakeRadio) ReadPayload() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return nil, errors.New("fifo empty")
	}
	p := f.payloads[0]
	f.payloads = f.payloads[1:]
	return p, nil
}

// payloadFor builds a raw frame carrying the given command word.
func payloadFor(word uint32) []byte {
	return []byte{0x0f, byte(word >> 16), byte(word >> 8), byte(word), 0x00}
}

func listenerConfig() Config {
	cfg := DefaultConfig()
	cfg.Addresses = []string{"e7e7e7e7e7", "c2c2c2c2c2"}
	cfg.Keymap = map[string]string{
		"power":     "0x0f0c01",
		"volume_up": "0x0f0c02",
	}
	cfg.PollInterval = time.Millisecond
	return cfg
}

func newTestListener(t *testing.T, radio Radio) *Listener {
	t.Helper()
	l, err := NewListener(radio, listenerConfig())
	if err != nil {
		t.Fatalf("NewListener() error = %v", err)
	}
	return l
}

// bufSnapshot copies the pending event buffer.
func (l *Listener) bufSnapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.buf))
	copy(out, l.buf)
	return out
}

func TestHandleMappedPress(t *testing.T) {
	l := newTestListener(t, newFakeRadio())

	l.handle(payloadFor(0x0f0c01))

	events := l.bufSnapshot()
	if len(events) != 1 {
		t.Fatalf("buffered %d events, want 1", len(events))
	}
	if events[0].Type != EventPress || events[0].Key != "power" {
		t.Errorf("event = %+v, want press of power", events[0])
	}
}

func TestHandleHousekeepingWords(t *testing.T) {
	tests := []struct {
		word uint32
		want EventType
	}{
		{0x40044c, EventIdle},
		{0x4f0300, EventSleep},
		{0x4f0700, EventWake},
	}

	for _, tt := range tests {
		l := newTestListener(t, newFakeRadio())
		l.handle(payloadFor(tt.word))

		events := l.bufSnapshot()
		if len(events) != 1 || events[0].Type != tt.want {
			t.Errorf("word %#06x produced %+v, want %s", tt.word, events, tt.want)
		}
	}
}

func TestHandleRepeatCarriesLastKey(t *testing.T) {
	l := newTestListener(t, newFakeRadio())

	l.handle(payloadFor(0x0f0c02)) // volume_up press
	l.handle(payloadFor(0x400028)) // repeat

	events := l.bufSnapshot()
	if len(events) != 2 {
		t.Fatalf("buffered %d events, want 2", len(events))
	}
	if events[1].Type != EventRepeat || events[1].Key != "volume_up" {
		t.Errorf("event = %+v, want repeat of volume_up", events[1])
	}
}

func TestHandleRepeatWithoutPressIgnored(t *testing.T) {
	l := newTestListener(t, newFakeRadio())

	l.handle(payloadFor(0x400028))

	if events := l.bufSnapshot(); len(events) != 0 {
		t.Errorf("buffered %d events, want 0", len(events))
	}
}

func TestHandleReleaseClearsLastKey(t *testing.T) {
	l := newTestListener(t, newFakeRadio())

	l.handle(payloadFor(0x0f0c01)) // power press
	l.handle(payloadFor(0x4f0004)) // release all
	l.handle(payloadFor(0x400028)) // repeat after release must be ignored

	events := l.bufSnapshot()
	if len(events) != 2 {
		t.Fatalf("buffered %d events, want 2", len(events))
	}
	if events[1].Type != EventRelease || events[1].Key != "power" {
		t.Errorf("event = %+v, want release of power", events[1])
	}
}

func TestHandleSingleReleaseMarkersSwallowed(t *testing.T) {
	l := newTestListener(t, newFakeRadio())

	l.handle(payloadFor(0xc10000))
	l.handle(payloadFor(0xc30000))

	if events := l.bufSnapshot(); len(events) != 0 {
		t.Errorf("buffered %d events, want 0", len(events))
	}
}

func TestHandleUnknownWordIgnored(t *testing.T) {
	l := newTestListener(t, newFakeRadio())

	l.handle(payloadFor(0xdeadbe))

	if events := l.bufSnapshot(); len(events) != 0 {
		t.Errorf("buffered %d events, want 0", len(events))
	}
}

func TestHandleShortPayloadIgnored(t *testing.T) {
	l := newTestListener(t, newFakeRadio())

	l.handle([]byte{0x0f, 0x40})

	if events := l.bufSnapshot(); len(events) != 0 {
		t.Errorf("buffered %d events, want 0", len(events))
	}
}

func TestBackpressureShedsIdleNeverPress(t *testing.T) {
	cfg := listenerConfig()
	cfg.EventBuffer = 4
	l, err := NewListener(newFakeRadio(), cfg)
	if err != nil {
		t.Fatalf("NewListener() error = %v", err)
	}

	// Fill the buffer with idle beacons, then a press and a release.
	for i := 0; i < 4; i++ {
		l.handle(payloadFor(0x40044c))
	}
	l.handle(payloadFor(0x0f0c01))
	l.handle(payloadFor(0x4f0004))

	events := l.bufSnapshot()
	if len(events) != 4 {
		t.Fatalf("buffered %d events, want 4", len(events))
	}

	var press, release bool
	for _, ev := range events {
		switch ev.Type {
		case EventPress:
			press = true
		case EventRelease:
			release = true
		}
	}
	if !press || !release {
		t.Errorf("press/release shed under backpressure: %+v", events)
	}
}

func TestBackpressureDropsIncomingIdleWhenNothingSheddable(t *testing.T) {
	cfg := listenerConfig()
	cfg.EventBuffer = 2
	l, err := NewListener(newFakeRadio(), cfg)
	if err != nil {
		t.Fatalf("NewListener() error = %v", err)
	}

	l.handle(payloadFor(0x0f0c01)) // press
	l.handle(payloadFor(0x4f0004)) // release
	l.handle(payloadFor(0x40044c)) // idle must be dropped

	events := l.bufSnapshot()
	if len(events) != 2 {
		t.Fatalf("buffered %d events, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Type == EventIdle {
			t.Errorf("idle beacon kept over press/release: %+v", events)
		}
	}
}

func TestRunDeliversEventsAndStops(t *testing.T) {
	radio := newFakeRadio(
		payloadFor(0x0f0c01),
		payloadFor(0x4f0004),
	)
	l := newTestListener(t, radio)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-l.Events():
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out with %d events", len(got))
		}
	}

	if got[0].Type != EventPress || got[0].Key != "power" {
		t.Errorf("first event = %+v, want press of power", got[0])
	}
	if got[1].Type != EventRelease {
		t.Errorf("second event = %+v, want release", got[1])
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	radio.mu.Lock()
	defer radio.mu.Unlock()
	if radio.powered || radio.listen {
		t.Error("radio left powered or listening after Run returned")
	}
	if len(radio.pipes) != 2 {
		t.Errorf("opened %d pipes, want 2", len(radio.pipes))
	}
}

func TestParseKeymap(t *testing.T) {
	km, err := ParseKeymap(map[string]string{
		"power": "0x0f0c01",
		"up":    "0F0C02",
	})
	if err != nil {
		t.Fatalf("ParseKeymap() error = %v", err)
	}
	if km[0x0f0c01] != "power" || km[0x0f0c02] != "up" {
		t.Errorf("keymap = %v", km)
	}

	if _, err := ParseKeymap(map[string]string{"bad": "zz"}); !errors.Is(err, ErrInvalidKeymap) {
		t.Errorf("ParseKeymap(bad) error = %v, want ErrInvalidKeymap", err)
	}
	if _, err := ParseKeymap(map[string]string{"wide": "0x1000000"}); !errors.Is(err, ErrInvalidKeymap) {
		t.Errorf("ParseKeymap(wide) error = %v, want ErrInvalidKeymap", err)
	}
}

func TestDecodeWord(t *testing.T) {
	word, err := decodeWord([]byte{0xaa, 0x40, 0x04, 0x4c, 0x00})
	if err != nil {
		t.Fatalf("decodeWord() error = %v", err)
	}
	if word != 0x40044c {
		t.Errorf("decodeWord() = %#06x, want 0x40044c", word)
	}

	if _, err := decodeWord([]byte{0x01, 0x02}); !errors.Is(err, ErrShortPayload) {
		t.Errorf("decodeWord(short) error = %v, want ErrShortPayload", err)
	}
}
