package ircodec

import "fmt"

// Protocol identifies a recognised IR carrier protocol.
type Protocol string

// Supported protocol identifications. Detection is best effort; codes are
// always stored and replayed as raw timings, so an Unknown result only means
// the metadata (device/command bytes) is unavailable.
const (
	ProtocolNEC     Protocol = "nec"
	ProtocolNECExt  Protocol = "nec_ext"
	ProtocolJVC     Protocol = "jvc"
	ProtocolUnknown Protocol = "unknown"
)

// Protocol timing constants in microseconds.
const (
	necHeaderMark   = 9000
	necHeaderSpace  = 4500
	necBitMark      = 560
	necZeroSpace    = 560
	necOneSpace     = 1690
	necPayloadBits  = 32
	necMinElements  = 2 + necPayloadBits*2 + 1 // header pair + 32 bit pairs + end mark
	jvcHeaderMark   = 8400
	jvcHeaderSpace  = 4200
	detectTolerance = 0.25
)

// DecodedCode is the protocol-level interpretation of a timing sequence.
type DecodedCode struct {
	Protocol   Protocol
	Confidence float64 // 0.0–1.0
	Device     uint8
	Command    uint8
}

// String renders the decoded identity as "nec D:0x04 C:0x08".
func (d DecodedCode) String() string {
	if d.Protocol == ProtocolUnknown {
		return string(ProtocolUnknown)
	}
	return fmt.Sprintf("%s D:0x%02X C:0x%02X", d.Protocol, d.Device, d.Command)
}

// Decode attempts to identify the protocol of a raw timing sequence and
// extract its device/command bytes.
//
// Candidates are tried from most to least specific; the highest-confidence
// match wins. A sequence matching no candidate decodes as ProtocolUnknown
// with zero confidence — this is not an error.
func Decode(seq TimingSequence) DecodedCode {
	candidates := []DecodedCode{
		tryNEC(seq),
		tryJVC(seq),
	}
	best := DecodedCode{Protocol: ProtocolUnknown}
	for _, c := range candidates {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// tryNEC matches the NEC frame: 9ms header mark, 4.5ms header space, 32 bits
// distance-coded in the spaces, short end mark. Standard NEC carries the
// device and command bytes each followed by their bitwise inverse; when the
// inverse check fails the frame is reported as extended NEC (which reuses
// the inverse bytes for a 16-bit address) at lower confidence.
func tryNEC(seq TimingSequence) DecodedCode {
	none := DecodedCode{Protocol: ProtocolUnknown}
	if len(seq) < necMinElements {
		return none
	}
	if !withinTolerance(seq[0], necHeaderMark, detectTolerance) ||
		!withinTolerance(seq[1], necHeaderSpace, detectTolerance) {
		return none
	}

	bits := extractBits(seq[2:], necZeroSpace, necOneSpace)
	if len(bits) < necPayloadBits {
		return none
	}

	device := bitsToByte(bits[0:8])
	deviceInv := bitsToByte(bits[8:16])
	command := bitsToByte(bits[16:24])
	commandInv := bitsToByte(bits[24:32])

	if device^deviceInv == 0xFF && command^commandInv == 0xFF {
		return DecodedCode{Protocol: ProtocolNEC, Confidence: 0.9, Device: device, Command: command}
	}
	return DecodedCode{Protocol: ProtocolNECExt, Confidence: 0.7, Device: device, Command: command}
}

// tryJVC matches only the JVC header (8.4ms/4.2ms); bit extraction is not
// attempted because JVC frames repeat without headers and captures usually
// contain partial repeats.
func tryJVC(seq TimingSequence) DecodedCode {
	if len(seq) < minSequenceLength {
		return DecodedCode{Protocol: ProtocolUnknown}
	}
	if withinTolerance(seq[0], jvcHeaderMark, detectTolerance) &&
		withinTolerance(seq[1], jvcHeaderSpace, detectTolerance) {
		return DecodedCode{Protocol: ProtocolJVC, Confidence: 0.6}
	}
	return DecodedCode{Protocol: ProtocolUnknown}
}

// extractBits reads distance-coded bits from a mark/space tail: a long space
// is a 1, a short space is a 0. Elements at even indices are marks and are
// only consumed as separators.
func extractBits(tail TimingSequence, zeroSpace, oneSpace uint32) []byte {
	var bits []byte
	for i := 1; i < len(tail); i += 2 {
		space := tail[i]
		switch {
		case withinTolerance(space, oneSpace, detectTolerance):
			bits = append(bits, 1)
		case withinTolerance(space, zeroSpace, detectTolerance):
			bits = append(bits, 0)
		}
	}
	return bits
}

// bitsToByte assembles a byte from up to 8 bits, LSB first (NEC bit order).
func bitsToByte(bits []byte) uint8 {
	var out uint8
	for i, b := range bits {
		if i >= 8 {
			break
		}
		out |= b << i
	}
	return out
}
