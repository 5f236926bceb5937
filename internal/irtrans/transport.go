package irtrans

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	gpiod "github.com/warthog618/go-gpiocdev"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
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

// OutputLine is the writable half of a GPIO line.
type OutputLine interface {
	SetValue(value int) error
	Close() error
}

// Edge is a single observed transition on the receive line, timestamped
// with the kernel's monotonic clock.
type Edge struct {
	Rising bool
	Time   time.Duration
}

// edgeSource opens the receive line and delivers edges to handler until
// the returned closer is closed.
type edgeSource func(handler func(Edge)) (io.Closer, error)

// Transport owns the IR transmit and receive lines.
type Transport struct {
	cfg Config
	log Logger

	chip   *gpiod.Chip
	tx     OutputLine
	openRX edgeSource
	sleep  func(time.Duration)

	// txMu serialises bursts; a burst holding it always completes.
	txMu sync.Mutex

	repeatMu   sync.Mutex
	repeatStop chan struct{}
	repeatDone chan struct{}

	closeMu sync.Mutex
	closed  bool
}

// New opens the configured GPIO lines and returns a ready transport.
func New(cfg Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chip, err := gpiod.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("irtrans: open chip %s: %w", cfg.Chip, err)
	}

	tx, err := chip.RequestLine(cfg.TXPin, gpiod.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("irtrans: request tx pin %d: %w", cfg.TXPin, err)
	}

	t := &Transport{
		cfg:   cfg,
		log:   noopLogger{},
		chip:  chip,
		tx:    tx,
		sleep: time.Sleep,
	}
	t.openRX = t.openHardwareRX
	return t, nil
}

// newWithLines builds a transport on injected lines. Test hook.
func newWithLines(cfg Config, tx OutputLine, openRX edgeSource) *Transport {
	return &Transport{
		cfg:    cfg,
		log:    noopLogger{},
		tx:     tx,
		openRX: openRX,
		sleep:  func(time.Duration) {},
	}
}

// SetLogger sets the logger for transport operations.
func (t *Transport) SetLogger(log Logger) {
	if log != nil {
		t.log = log
	}
}

func (t *Transport) openHardwareRX(handler func(Edge)) (io.Closer, error) {
	line, err := t.chip.RequestLine(t.cfg.RXPin,
		gpiod.AsInput,
		gpiod.WithPullUp,
		gpiod.WithBothEdges,
		gpiod.WithEventHandler(func(ev gpiod.LineEvent) {
			handler(Edge{
				Rising: ev.Type == gpiod.LineEventRisingEdge,
				Time:   ev.Timestamp,
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("irtrans: request rx pin %d: %w", t.cfg.RXPin, err)
	}
	return line, nil
}

// Send transmits one frame. The context is checked before the burst starts;
// once transmission begins the full frame is always sent.
func (t *Transport) Send(ctx context.Context, seq ircodec.TimingSequence) error {
	if err := seq.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.checkOpen(); err != nil {
		return err
	}

	t.txMu.Lock()
	defer t.txMu.Unlock()
	return t.burst(seq)
}

// StartRepeating transmits the frame continuously at the configured
// interval until StopRepeating is called. A repeat already in progress is
// replaced.
func (t *Transport) StartRepeating(seq ircodec.TimingSequence) error {
	if err := seq.Validate(); err != nil {
		return err
	}
	if err := t.checkOpen(); err != nil {
		return err
	}

	t.repeatMu.Lock()
	defer t.repeatMu.Unlock()
	t.stopRepeatLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	t.repeatStop = stop
	t.repeatDone = done
	go t.repeatLoop(seq.Clone(), stop, done)
	return nil
}

// StopRepeating halts a repeating transmission. The in-flight burst, if
// any, completes before this returns.
func (t *Transport) StopRepeating() error {
	t.repeatMu.Lock()
	defer t.repeatMu.Unlock()
	if t.repeatStop == nil {
		return ErrNotRepeating
	}
	t.stopRepeatLocked()
	return nil
}

func (t *Transport) stopRepeatLocked() {
	if t.repeatStop == nil {
		return
	}
	close(t.repeatStop)
	<-t.repeatDone
	t.repeatStop = nil
	t.repeatDone = nil
}

func (t *Transport) repeatLoop(seq ircodec.TimingSequence, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.cfg.RepeatInterval)
	defer ticker.Stop()

	for {
		t.txMu.Lock()
		err := t.burst(seq)
		t.txMu.Unlock()
		if err != nil {
			t.log.Error("repeat burst failed", "error", err)
			return
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// burst bit-bangs one frame. Caller holds txMu.
func (t *Transport) burst(seq ircodec.TimingSequence) error {
	for i, d := range seq {
		dur := time.Duration(d) * time.Microsecond
		if i%2 == 0 {
			if err := t.mark(dur); err != nil {
				t.tx.SetValue(0)
				return err
			}
		} else {
			t.sleep(dur)
		}
	}
	return t.tx.SetValue(0)
}

// mark generates the carrier for one mark period. Roughly 33% duty keeps
// the LED inside its continuous current rating.
func (t *Transport) mark(dur time.Duration) error {
	period := time.Second / time.Duration(t.cfg.CarrierHz)
	on := period / 3
	off := period - on

	for elapsed := time.Duration(0); elapsed < dur; elapsed += period {
		if err := t.tx.SetValue(1); err != nil {
			return fmt.Errorf("irtrans: drive tx high: %w", err)
		}
		t.sleep(on)
		if err := t.tx.SetValue(0); err != nil {
			return fmt.Errorf("irtrans: drive tx low: %w", err)
		}
		t.sleep(off)
	}
	return nil
}

// Capture records one frame from the receiver. It waits up to the capture
// timeout for the first edge, then collects intervals until the quiet gap
// that ends a frame. Frames longer than the configured maximum are
// rejected.
func (t *Transport) Capture(ctx context.Context) (ircodec.TimingSequence, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	edges := make(chan Edge, 256)
	closer, err := t.openRX(func(e Edge) {
		// Dropping under overload is preferable to blocking the event
		// handler; an incomplete frame fails validation below.
		select {
		case edges <- e:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	first := time.NewTimer(t.cfg.CaptureTimeout)
	defer first.Stop()

	var last time.Duration
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-first.C:
		return nil, ErrCaptureTimeout
	case e := <-edges:
		last = e.Time
	}

	var seq ircodec.TimingSequence
	gap := time.NewTimer(t.cfg.FrameGap)
	defer gap.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-gap.C:
			if err := seq.Validate(); err != nil {
				return nil, err
			}
			t.log.Debug("captured frame", "elements", len(seq))
			return seq, nil
		case e := <-edges:
			delta := e.Time - last
			last = e.Time
			if delta < 0 {
				continue
			}
			seq = append(seq, uint32(delta/time.Microsecond))
			if len(seq) > t.cfg.MaxElements {
				return nil, ErrCaptureTooLong
			}
			if !gap.Stop() {
				select {
				case <-gap.C:
				default:
				}
			}
			gap.Reset(t.cfg.FrameGap)
		}
	}
}

// Close stops any repeating transmission and releases the GPIO lines.
func (t *Transport) Close() error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return nil
	}
	t.closed = true
	t.closeMu.Unlock()

	t.repeatMu.Lock()
	t.stopRepeatLocked()
	t.repeatMu.Unlock()

	var errs []error
	if t.tx != nil {
		if err := t.tx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("irtrans: close tx line: %w", err))
		}
	}
	if t.chip != nil {
		if err := t.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("irtrans: close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (t *Transport) checkOpen() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return ErrClosed
	}
	return nil
}
