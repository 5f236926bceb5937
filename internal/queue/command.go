package queue

import (
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
)

// Kind discriminates the command variants the queue can execute.
type Kind string

const (
	// KindSendIR transmits an infrared code, optionally repeating.
	KindSendIR Kind = "send_ir"

	// KindSendBLEKey sends a BLE HID key press with a hold duration.
	KindSendBLEKey Kind = "send_ble_key"

	// KindMacro executes an ordered list of child commands atomically.
	KindMacro Kind = "macro"
)

// Command is the tagged variant accepted by the queue. Exactly one of the
// payload fields matching Kind is populated. Commands are created by the
// orchestrator and owned exclusively by the queue until executed or
// cancelled.
type Command struct {
	Kind Kind

	// IR carries the payload for KindSendIR.
	IR *IRPayload

	// BLEKey carries the payload for KindSendBLEKey.
	BLEKey *BLEKeyPayload

	// Children carries the ordered child commands for KindMacro.
	Children []Command

	// Delays holds the pause inserted after each macro child. Delays[i]
	// applies after Children[i]; missing entries mean no pause.
	Delays []time.Duration
}

// IRPayload describes an infrared transmission.
type IRPayload struct {
	Code ircodec.Code

	// Repeat is how many times the sequence is retransmitted after the
	// initial burst. Zero sends the code once.
	Repeat int
}

// BLEKeyPayload describes a BLE HID key press.
type BLEKeyPayload struct {
	// Keycode is the HID usage name resolved by the BLE peripheral
	// (e.g. "KEY_PLAYPAUSE").
	Keycode string

	// Hold is how long the key stays pressed before release.
	Hold time.Duration
}

// Label returns a human-readable name for the command: the IR code name,
// the BLE keycode, or "macro". Used for logging and history.
func (c Command) Label() string {
	switch c.Kind {
	case KindSendIR:
		if c.IR != nil {
			return c.IR.Code.Name
		}
	case KindSendBLEKey:
		if c.BLEKey != nil {
			return c.BLEKey.Keycode
		}
	case KindMacro:
		return "macro"
	}
	return ""
}

// SendIR builds a KindSendIR command.
func SendIR(code ircodec.Code, repeat int) Command {
	return Command{Kind: KindSendIR, IR: &IRPayload{Code: code, Repeat: repeat}}
}

// SendBLEKey builds a KindSendBLEKey command.
func SendBLEKey(keycode string, hold time.Duration) Command {
	return Command{Kind: KindSendBLEKey, BLEKey: &BLEKeyPayload{Keycode: keycode, Hold: hold}}
}

// Macro builds a KindMacro command. delays[i] is the pause inserted after
// children[i]; a short delays slice leaves the remaining gaps at zero.
func Macro(children []Command, delays []time.Duration) Command {
	return Command{Kind: KindMacro, Children: children, Delays: delays}
}
