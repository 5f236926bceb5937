package rf

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Command words the remote uses for protocol housekeeping. Observed on the
// wire; the remote's protocol is undocumented and these are assumed stable
// across firmware revisions.
const (
	wordIdle       = 0x40044c
	wordSleep      = 0x4f0300
	wordWake       = 0x4f0700
	wordRepeat     = 0x400028
	wordReleaseAll = 0x4f0004

	// Sent per button before the release-all marker. Only useful for
	// disambiguating chords, so they are swallowed.
	wordSingleReleaseA = 0xc10000
	wordSingleReleaseB = 0xc30000
)

// EventType classifies a decoded remote event.
type EventType string

const (
	// EventPress is a mapped button going down.
	EventPress EventType = "press"
	// EventRepeat is the remote signalling the last button is held.
	EventRepeat EventType = "repeat"
	// EventRelease is all buttons coming up.
	EventRelease EventType = "release"
	// EventIdle is the remote's periodic idle beacon.
	EventIdle EventType = "idle"
	// EventSleep is the remote announcing it is going to sleep.
	EventSleep EventType = "sleep"
	// EventWake is the remote announcing it woke up.
	EventWake EventType = "wake"
)

// Event is one decoded message from the remote.
type Event struct {
	Type EventType
	// Key is the mapped button name for press, repeat and release events.
	Key  string
	Word uint32
	Time time.Time
}

// sheddable reports whether the event may be dropped under backpressure.
func (e Event) sheddable() bool {
	switch e.Type {
	case EventPress, EventRelease:
		return false
	}
	return true
}

// Keymap maps 24-bit command words to button names.
type Keymap map[uint32]string

// ParseKeymap converts a name-to-hex-word configuration table into a
// Keymap, e.g. {"power": "0x0f0c01"}.
func ParseKeymap(entries map[string]string) (Keymap, error) {
	km := make(Keymap, len(entries))
	for name, raw := range entries {
		s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x")
		word, err := strconv.ParseUint(s, 16, 24)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidKeymap, name, raw, err)
		}
		km[uint32(word)] = name
	}
	return km, nil
}

// decodeWord extracts the 24-bit command word from a raw payload. The
// remote pads payloads to at least 5 bytes; the word lives in bytes 1..3,
// big-endian.
func decodeWord(payload []byte) (uint32, error) {
	if len(payload) < 5 {
		return 0, fmt.Errorf("%w: %d bytes", ErrShortPayload, len(payload))
	}
	return uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3]), nil
}
