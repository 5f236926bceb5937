package rf

import (
	"context"
	"sync"
	"time"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Listener polls the radio and turns payloads into events.
//
// Events are buffered up to the configured bound. When the consumer falls
// behind, housekeeping events (idle beacons first) are shed; press and
// release events are never dropped, so the buffer may transiently exceed
// the bound when it holds nothing else.
type Listener struct {
	cfg    Config
	radio  Radio
	keymap Keymap
	log    Logger
	now    func() time.Time

	mu      sync.Mutex
	buf     []Event
	lastKey string
	running bool

	notify chan struct{}
	out    chan Event
}

// NewListener builds a listener over an opened radio.
func NewListener(radio Radio, cfg Config) (*Listener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	keymap, err := ParseKeymap(cfg.Keymap)
	if err != nil {
		return nil, err
	}
	return &Listener{
		cfg:    cfg,
		radio:  radio,
		keymap: keymap,
		log:    noopLogger{},
		now:    time.Now,
		notify: make(chan struct{}, 1),
		out:    make(chan Event),
	}, nil
}

// SetLogger sets the logger for listener operations.
func (l *Listener) SetLogger(log Logger) {
	if log != nil {
		l.log = log
	}
}

// Events returns the decoded event stream. Closed when Run returns.
func (l *Listener) Events() <-chan Event {
	return l.out
}

// Run powers the radio, opens the reading pipes and polls until the
// context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrListenerRunning
	}
	l.running = true
	l.mu.Unlock()

	if err := l.radio.PowerUp(); err != nil {
		return err
	}
	for i, raw := range l.cfg.Addresses {
		addr, err := parseAddress(raw)
		if err != nil {
			return err
		}
		// Pipe 0 is reserved for transmit auto-ack on this chip family, so
		// reading pipes start at 1.
		if err := l.radio.OpenReadingPipe(i+1, addr); err != nil {
			return err
		}
	}
	if err := l.radio.StartListening(); err != nil {
		return err
	}
	l.log.Info("rf listener started",
		"channel", l.cfg.Channel,
		"pipes", len(l.cfg.Addresses),
		"keys", len(l.keymap))

	defer func() {
		if err := l.radio.StopListening(); err != nil {
			l.log.Error("stop listening failed", "error", err)
		}
		if err := l.radio.PowerDown(); err != nil {
			l.log.Error("power down failed", "error", err)
		}
		close(l.out)
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.pump(ctx)
	}()
	defer wg.Wait()

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.poll()
		}
	}
}

// poll drains the radio FIFO.
func (l *Listener) poll() {
	for {
		ok, err := l.radio.Available()
		if err != nil {
			l.log.Error("radio availability check failed", "error", err)
			return
		}
		if !ok {
			return
		}

		payload, err := l.radio.ReadPayload()
		if err != nil {
			l.log.Error("payload read failed", "error", err)
			return
		}
		l.handle(payload)
	}
}

// handle decodes one payload and publishes the resulting event, if any.
func (l *Listener) handle(payload []byte) {
	word, err := decodeWord(payload)
	if err != nil {
		l.log.Warn("short payload ignored", "len", len(payload))
		return
	}

	ts := l.now()
	switch word {
	case wordIdle:
		l.publish(Event{Type: EventIdle, Word: word, Time: ts})
	case wordSleep:
		l.publish(Event{Type: EventSleep, Word: word, Time: ts})
	case wordWake:
		l.publish(Event{Type: EventWake, Word: word, Time: ts})
	case wordRepeat:
		l.mu.Lock()
		key := l.lastKey
		l.mu.Unlock()
		if key == "" {
			return
		}
		l.publish(Event{Type: EventRepeat, Key: key, Word: word, Time: ts})
	case wordReleaseAll:
		l.mu.Lock()
		key := l.lastKey
		l.lastKey = ""
		l.mu.Unlock()
		l.publish(Event{Type: EventRelease, Key: key, Word: word, Time: ts})
	case wordSingleReleaseA, wordSingleReleaseB:
		// Per-button release markers precede the release-all word; nothing
		// downstream needs them.
	default:
		key, ok := l.keymap[word]
		if !ok {
			l.log.Warn("unexpected command word", "word", word, "len", len(payload))
			return
		}
		l.mu.Lock()
		l.lastKey = key
		l.mu.Unlock()
		l.publish(Event{Type: EventPress, Key: key, Word: word, Time: ts})
	}
}

func (l *Listener) publish(ev Event) {
	l.mu.Lock()
	if len(l.buf) >= l.cfg.EventBuffer {
		if i := l.shedIndexLocked(); i >= 0 {
			dropped := l.buf[i]
			l.buf = append(l.buf[:i], l.buf[i+1:]...)
			l.log.Debug("event shed under backpressure", "type", dropped.Type)
		} else if ev.sheddable() {
			l.mu.Unlock()
			return
		}
	}
	l.buf = append(l.buf, ev)
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// shedIndexLocked picks the buffered event to drop: the oldest idle beacon
// first, then any other housekeeping event. Returns -1 when only press and
// release events remain.
func (l *Listener) shedIndexLocked() int {
	for i, ev := range l.buf {
		if ev.Type == EventIdle {
			return i
		}
	}
	for i, ev := range l.buf {
		if ev.sheddable() {
			return i
		}
	}
	return -1
}

func (l *Listener) pump(ctx context.Context) {
	for {
		l.mu.Lock()
		if len(l.buf) == 0 {
			l.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-l.notify:
				continue
			}
		}
		ev := l.buf[0]
		l.buf = l.buf[1:]
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case l.out <- ev:
		}
	}
}
