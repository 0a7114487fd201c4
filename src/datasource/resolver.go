package datasource

import "github.com/sirupsen/logrus"

// Resolve produces the ordered, stage-eligible candidate list for one stage.
//
// The configured order is preserved and acts as the detection tie-break.
// The excluded name (the proxy itself) is removed, unknown names are dropped
// with a log line, and only descriptors whose requirements the stage
// satisfies survive. An empty result is not an error; the caller treats it
// as "no progress possible in this stage".
func Resolve(reg *Registry, configured []string, exclude string, stage CapabilitySet, log *logrus.Entry) []Descriptor {
	out := make([]Descriptor, 0, len(configured))
	for _, name := range configured {
		if name == exclude {
			continue
		}
		d, ok := reg.Lookup(name)
		if !ok {
			if log != nil {
				log.WithField("datasource", name).Warn("skipping unknown datasource name")
			}
			continue
		}
		if !stage.Satisfies(d.Requires) {
			continue
		}
		out = append(out, d)
	}
	return out
}
