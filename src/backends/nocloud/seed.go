package nocloud

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Seed is a parsed seed location like "dir:/var/lib/cloud/seed/nocloud".
type Seed struct {
	Raw    string
	Scheme string
	// Dir is the cleaned absolute seed directory.
	Dir string
}

// supportedSchemes lists the seed schemes the parser accepts. Only local
// directories for now; network seeds belong to the ec2 backend.
var supportedSchemes = map[string]struct{}{
	"dir": {},
}

// ParseSeed parses a seedfrom string into a Seed.
func ParseSeed(raw string) (Seed, error) {
	s := Seed{Raw: raw}
	v := strings.TrimSpace(raw)
	if v == "" {
		return s, fmt.Errorf("seedfrom must not be empty; expected format 'dir:/path'")
	}
	i := strings.Index(v, ":")
	if i <= 0 || i == len(v)-1 {
		return s, fmt.Errorf("invalid seedfrom %q; expected format '<scheme>:<value>' (e.g., 'dir:/path')", raw)
	}
	scheme := strings.ToLower(strings.TrimSpace(v[:i]))
	val := strings.TrimSpace(v[i+1:])
	if _, ok := supportedSchemes[scheme]; !ok {
		return s, fmt.Errorf("unsupported seedfrom scheme %q", scheme)
	}
	clean := filepath.Clean(val)
	if !filepath.IsAbs(clean) {
		return s, fmt.Errorf("seed directory must be an absolute path: %q", val)
	}
	s.Scheme = scheme
	s.Dir = clean
	return s, nil
}

func (s Seed) String() string {
	if s.Scheme != "" {
		return s.Scheme + ":" + s.Dir
	}
	return s.Raw
}
