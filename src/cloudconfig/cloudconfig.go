// Package cloudconfig sanitizes decoded cloud-config documents before they
// reach any consumer: a whitelist pass that drops everything the system
// configuration does not allow, and a key validator that enforces safety
// rules on the keys that survive.
package cloudconfig

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"cloud-init-strict/src/logging"
	"cloud-init-strict/src/sysconfig"
)

// ForbiddenKeys are removed from user-data unconditionally. They steer
// module execution and datasource detection and must never come from an
// untrusted payload.
var ForbiddenKeys = map[string]bool{
	"cloud_init_modules":   true,
	"cloud_config_modules": true,
	"cloud_final_modules":  true,
	"datasource_list":      true,
}

// DefaultWritePaths restrict write_files targets when the system
// configuration does not name its own patterns.
var DefaultWritePaths = []string{"/etc/myappliance/**", "/tmp/**"}

// ApplyWhitelist removes forbidden keys and every key absent from the
// configured allowed_keys list. The comparison is case-insensitive. An
// unset whitelist admits nothing, so a misconfigured system fails closed.
func ApplyWhitelist(cfg map[string]any, wl sysconfig.WhitelistConfig) map[string]any {
	log := logging.Component("whitelist")
	allowed := make(map[string]bool, len(wl.AllowedKeys))
	for _, k := range wl.AllowedKeys {
		allowed[strings.ToLower(k)] = true
	}
	if len(allowed) == 0 {
		log.Warn("no allowed_keys configured, removing all user-data keys")
	}

	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		lower := strings.ToLower(k)
		if ForbiddenKeys[lower] {
			log.WithField("key", k).Warn("removing forbidden key from user-data")
			continue
		}
		if !allowed[lower] {
			log.WithField("key", k).Info("removing key not in whitelist")
			continue
		}
		out[k] = v
	}
	return out
}

// ValidateStandardKeys enforces per-key safety rules on a whitelisted
// document: hostnames must look sane, write_files entries must target an
// allowed path pattern, and runcmd is stripped outright.
func ValidateStandardKeys(cfg map[string]any, wl sysconfig.WhitelistConfig) map[string]any {
	log := logging.Component("keyvalidator")
	patterns := wl.AllowedWritePaths
	if len(patterns) == 0 {
		patterns = DefaultWritePaths
	}

	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}

	if h, ok := out["hostname"]; ok && !hostnameSafe(h) {
		log.WithField("hostname", h).Warn("removing invalid hostname")
		delete(out, "hostname")
	}

	if files, ok := out["write_files"]; ok {
		safe, changed := filterWriteFiles(files, patterns, log)
		if changed {
			if len(safe) > 0 {
				out["write_files"] = safe
			} else {
				delete(out, "write_files")
			}
		}
	}

	if _, ok := out["runcmd"]; ok {
		log.Warn("removing disallowed runcmd key")
		delete(out, "runcmd")
	}

	return out
}

// filterWriteFiles keeps entries whose path matches an allowed pattern.
// The second return reports whether anything was dropped; a non-list value
// drops the whole key.
func filterWriteFiles(value any, patterns []string, log *logrus.Entry) ([]any, bool) {
	entries, ok := value.([]any)
	if !ok {
		log.Warn("write_files is not a list, removing")
		return nil, true
	}
	safe := make([]any, 0, len(entries))
	changed := false
	for _, e := range entries {
		if writeSafe(e, patterns) {
			safe = append(safe, e)
			continue
		}
		changed = true
		log.WithField("path", entryPath(e)).Warn("removing unsafe write_files entry")
	}
	return safe, changed
}

func writeSafe(entry any, patterns []string) bool {
	path := entryPath(entry)
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

func entryPath(entry any) string {
	m, ok := entry.(map[string]any)
	if !ok {
		return ""
	}
	path, _ := m["path"].(string)
	return path
}

func hostnameSafe(v any) bool {
	h, ok := v.(string)
	if !ok || h == "" || len(h) > 253 {
		return false
	}
	for _, label := range strings.Split(h, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for i, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case r == '-' && i > 0 && i < len(label)-1:
			default:
				return false
			}
		}
	}
	return true
}
