package filter

import "bytes"

// Marker is the directive that introduces a boothook block inside user-data.
const Marker = "#cloud-boothook"

var (
	markerBytes = []byte(Marker)
	newline     = []byte("\n")
)

// Boothooks removes every boothook block from a raw user-data payload.
//
// A block starts at a line beginning with Marker and extends through all
// following lines until a line that starts a new token (a '#' followed by a
// word character) or the end of input. Payloads with no marker line are
// returned unchanged; otherwise the surviving content is whitespace-trimmed.
// The function is idempotent: its output never contains a marker line.
func Boothooks(data []byte) []byte {
	if len(data) == 0 || !containsMarkerLine(data) {
		return data
	}
	lines := bytes.Split(data, newline)
	kept := make([][]byte, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		if bytes.HasPrefix(line, markerBytes) {
			inBlock = true
			continue
		}
		if inBlock {
			if !startsToken(line) {
				continue
			}
			inBlock = false
		}
		kept = append(kept, line)
	}
	return bytes.TrimSpace(bytes.Join(kept, newline))
}

// BoothooksString is Boothooks for textual payloads.
func BoothooksString(s string) string {
	return string(Boothooks([]byte(s)))
}

// Extract returns every boothook block removed by Boothooks, marker line
// included, in payload order. It returns nil when the payload has none.
func Extract(data []byte) [][]byte {
	if len(data) == 0 || !containsMarkerLine(data) {
		return nil
	}
	var blocks [][]byte
	var current [][]byte
	flush := func() {
		if current != nil {
			blocks = append(blocks, bytes.Join(current, newline))
			current = nil
		}
	}
	for _, line := range bytes.Split(data, newline) {
		if bytes.HasPrefix(line, markerBytes) {
			flush()
			current = [][]byte{line}
			continue
		}
		if current != nil {
			if startsToken(line) {
				flush()
				continue
			}
			current = append(current, line)
		}
	}
	flush()
	return blocks
}

func containsMarkerLine(data []byte) bool {
	if bytes.HasPrefix(data, markerBytes) {
		return true
	}
	return bytes.Contains(data, append([]byte("\n"), markerBytes...))
}

// startsToken reports whether a line begins a new '#'-prefixed token, the
// condition that terminates a boothook block.
func startsToken(line []byte) bool {
	return len(line) >= 2 && line[0] == '#' && isWordChar(line[1])
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
