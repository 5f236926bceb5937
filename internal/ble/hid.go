package ble

import (
	"fmt"
	"strings"
	"sync"
)

// reportID identifies the single input report the remote exposes.
const reportID = 0x01

// buttonBits maps key names to their bit in the 16-bit input report. The
// layout mirrors the report map below; the names are the public SendKey
// vocabulary.
var buttonBits = map[string]uint16{
	"dpad_up":      0x0001,
	"dpad_down":    0x0002,
	"dpad_left":    0x0004,
	"dpad_right":   0x0008,
	"select":       0x0010,
	"back":         0x0020,
	"home":         0x0040,
	"menu":         0x0080,
	"play_pause":   0x0100,
	"stop":         0x0200,
	"rewind":       0x0400,
	"fast_forward": 0x0800,
	"volume_up":    0x1000,
	"volume_down":  0x2000,
	"mute":         0x4000,
	"power":        0x8000,
}

// reportMap is the HID report descriptor: one application collection on
// the consumer page carrying 16 buttons as a bitfield.
var reportMap = []byte{
	0x05, 0x0c, // Usage Page (Consumer)
	0x09, 0x01, // Usage (Consumer Control)
	0xa1, 0x01, // Collection (Application)
	0x85, reportID, //   Report ID

	0x05, 0x01, //   Usage Page (Generic Desktop)
	0x09, 0x90, //   Usage (D-pad Up)
	0x09, 0x91, //   Usage (D-pad Down)
	0x09, 0x92, //   Usage (D-pad Right)
	0x09, 0x93, //   Usage (D-pad Left)

	0x05, 0x0c, //   Usage Page (Consumer)
	0x09, 0x41, //   Usage (Menu Pick)
	0x0a, 0x24, 0x02, //   Usage (AC Back)
	0x0a, 0x23, 0x02, //   Usage (AC Home)
	0x09, 0x40, //   Usage (Menu)

	0x09, 0xcd, //   Usage (Play/Pause)
	0x09, 0xb7, //   Usage (Stop)
	0x09, 0xb4, //   Usage (Rewind)
	0x09, 0xb3, //   Usage (Fast Forward)

	0x09, 0xe9, //   Usage (Volume Up)
	0x09, 0xea, //   Usage (Volume Down)
	0x09, 0xe2, //   Usage (Mute)
	0x09, 0x30, //   Usage (Power)

	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x75, 0x01, //   Report Size (1)
	0x95, 0x10, //   Report Count (16)
	0x81, 0x02, //   Input (Data, Var, Abs)
	0xc0, // End Collection
}

// hidInformation is HID v1.11, no country code, RemoteWake and
// NormallyConnectable set so the host can wake from standby.
var hidInformation = []byte{0x11, 0x01, 0x00, 0x03}

// KeyNames returns the supported key vocabulary, for validation and
// configuration errors.
func KeyNames() []string {
	names := make([]string, 0, len(buttonBits))
	for name := range buttonBits {
		names = append(names, name)
	}
	return names
}

// buttonBit resolves a key name case-insensitively.
func buttonBit(name string) (uint16, error) {
	bit, ok := buttonBits[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return bit, nil
}

// buttonState tracks the pressed bitfield and renders input reports.
type buttonState struct {
	mu      sync.Mutex
	pressed uint16
}

func (b *buttonState) press(bit uint16) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pressed |= bit
	return b.reportLocked()
}

func (b *buttonState) release(bit uint16) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pressed &^= bit
	return b.reportLocked()
}

func (b *buttonState) releaseAll() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pressed = 0
	return b.reportLocked()
}

func (b *buttonState) report() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reportLocked()
}

func (b *buttonState) reportLocked() []byte {
	return []byte{byte(b.pressed), byte(b.pressed >> 8)}
}
