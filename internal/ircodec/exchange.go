package ircodec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Library exchange format constants.
//
// The format is line-oriented: a two-line header identifying the file type
// and version, followed by repeated name/timing pairs:
//
//	Filetype: Equilibrium IR library
//	Version: 1
//	PowerOff
//	9024 4512 564 1692 564 564 ...
//	VolumeUp
//	9041 4498 561 1688 559 570 ...
const (
	LibraryFiletype = "Equilibrium IR library"
	LibraryVersion  = 1
)

// ParseLibrary reads codes from the exchange format. Every timing list is
// validated (starts with mark, all positive, length sanity) before
// acceptance; a single malformed entry fails the whole parse so that import
// is all-or-nothing.
func ParseLibrary(r io.Reader) ([]Code, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if err := readHeader(sc); err != nil {
		return nil, err
	}

	var codes []Code
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: code %q has no timing line", ErrInvalidLibrary, name)
		}
		seq, err := ParseTimings(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("code %q: %w", name, err)
		}
		code, err := NewCode(name, "", seq)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	return codes, nil
}

// readHeader consumes and validates the Filetype/Version header block.
func readHeader(sc *bufio.Scanner) error {
	if !sc.Scan() {
		return fmt.Errorf("%w: missing header", ErrInvalidLibrary)
	}
	filetype, ok := headerValue(sc.Text(), "Filetype")
	if !ok || filetype != LibraryFiletype {
		return fmt.Errorf("%w: unexpected filetype %q", ErrInvalidLibrary, filetype)
	}
	if !sc.Scan() {
		return fmt.Errorf("%w: missing version line", ErrInvalidLibrary)
	}
	versionStr, ok := headerValue(sc.Text(), "Version")
	if !ok {
		return fmt.Errorf("%w: missing version line", ErrInvalidLibrary)
	}
	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return fmt.Errorf("%w: version %q", ErrInvalidLibrary, versionStr)
	}
	if version != LibraryVersion {
		return fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
	}
	return nil
}

// headerValue extracts the value of a "Key: value" header line.
func headerValue(line, key string) (string, bool) {
	prefix := key + ":"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(prefix):]), true
}

// FormatLibrary writes codes in the exchange format.
func FormatLibrary(w io.Writer, codes []Code) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Filetype: %s\n", LibraryFiletype)
	fmt.Fprintf(bw, "Version: %d\n", LibraryVersion)
	for _, c := range codes {
		fmt.Fprintln(bw, c.Name)
		fmt.Fprintln(bw, FormatTimings(c.Sequence))
	}
	return bw.Flush()
}

// ParseTimings parses a space-separated decimal mark/space list, as found in
// library files and third-party IR databases. The result is validated.
func ParseTimings(line string) (TimingSequence, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmptySequence
	}
	seq := make(TimingSequence, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d %q", ErrInvalidDuration, i, f)
		}
		if v == 0 {
			return nil, fmt.Errorf("%w: element %d", ErrInvalidDuration, i)
		}
		seq = append(seq, uint32(v))
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return seq, nil
}

// FormatTimings renders a timing sequence as a space-separated decimal list.
func FormatTimings(seq TimingSequence) string {
	var sb strings.Builder
	for i, d := range seq {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatUint(uint64(d), 10))
	}
	return sb.String()
}
