// Package allowkeys prunes user-supplied cloud-config down to the keys the
// base configuration explicitly permits. The allow-list lives under the
// base config's allow_keys section; without one, user config passes through
// untouched.
package allowkeys

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"cloud-init-strict/src/logging"
)

// ModuleListKeys are base-config keys whose values name lists of config
// modules rather than plain config values.
var ModuleListKeys = []string{
	"cloud_init_modules",
	"cloud_config_modules",
	"cloud_final_modules",
}

// KeySet is a tree of allowed key names. A nil value admits the whole
// subtree under that key; a non-nil value restricts it further.
type KeySet map[string]KeySet

// Filter applies an allow_keys policy drawn from a base configuration.
type Filter struct {
	base map[string]any
	log  *logrus.Entry
}

func New(base map[string]any) *Filter {
	return &Filter{base: base, log: logging.Component("allowkeys")}
}

// Apply filters raw down to the allowed keys. When the base configuration
// carries no allow_keys rules the input is returned as-is.
func (f *Filter) Apply(raw map[string]any) map[string]any {
	rules := f.Rules()
	if len(rules) == 0 {
		return raw
	}
	f.log.WithField("keys", rules.String()).Debug("allow keys")
	return f.apply(raw, rules, nil)
}

// Rules expands the base configuration's allow_keys section into a KeySet.
// Module-list entries are resolved against the base config's own module
// lists; everything else becomes a nested key tree.
func (f *Filter) Rules() KeySet {
	if f.base == nil {
		return nil
	}
	cfg, ok := f.base["allow_keys"].(map[string]any)
	if !ok || len(cfg) == 0 {
		return nil
	}
	rules := KeySet{}
	for k, v := range cfg {
		if isModuleListKey(k) {
			for name, sub := range f.moduleRules(k, v) {
				rules[name] = sub
			}
		} else {
			rules[k] = valueRules(v)
		}
	}
	return rules
}

// moduleRules turns a module-list entry into allowed module names. The
// sentinel "CONFIG" admits every module the base config lists under the
// same key; "CUSTOM" additionally admits the list key itself so users may
// supply their own module list.
func (f *Filter) moduleRules(key string, value any) KeySet {
	rules := KeySet{}
	switch v := value.(type) {
	case string:
		if v == "CONFIG" || v == "CUSTOM" {
			for _, item := range f.baseList(key) {
				if name := moduleName(item); name != "" {
					rules[name] = nil
				}
			}
			if v == "CUSTOM" {
				rules[key] = nil
			}
		} else {
			rules[v] = nil
		}
	case []any:
		for _, item := range v {
			if name := moduleName(item); name != "" {
				rules[name] = nil
			}
		}
	default:
		f.log.WithField("key", key).
			Warnf("unexpected module list value %v, ignoring", value)
	}
	return rules
}

func (f *Filter) baseList(key string) []any {
	switch v := f.base[key].(type) {
	case []any:
		return v
	case string:
		return []any{v}
	default:
		return nil
	}
}

func (f *Filter) apply(raw map[string]any, rules KeySet, path []string) map[string]any {
	out := map[string]any{}
	for k, v := range raw {
		sub, allowed := rules[k]
		if !allowed {
			f.log.Infof("ignored user config %q", strings.Join(append(path, k), "/"))
			continue
		}
		if sub == nil {
			out[k] = v
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			out[k] = f.apply(val, sub, append(path, k))
		case []any:
			kept := make([]any, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					continue
				}
				if _, member := sub[s]; member {
					kept = append(kept, item)
				}
			}
			out[k] = kept
		default:
			out[k] = v
		}
	}
	return out
}

// valueRules converts one allow_keys value into its KeySet. Maps recurse,
// list items name allowed child keys, and a bare scalar names a single
// allowed child key. A null value admits the whole subtree.
func valueRules(value any) KeySet {
	switch v := value.(type) {
	case map[string]any:
		rules := KeySet{}
		for k, sub := range v {
			rules[k] = valueRules(sub)
		}
		return rules
	case []any:
		rules := KeySet{}
		for _, item := range v {
			rules[fmt.Sprint(item)] = nil
		}
		return rules
	case nil:
		return nil
	default:
		return KeySet{fmt.Sprint(v): nil}
	}
}

// moduleName extracts a module's name from a module-list item, which is
// either a bare name or a [name, frequency] pair.
func moduleName(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case []any:
		if len(v) == 0 || v[0] == nil {
			return ""
		}
		return fmt.Sprint(v[0])
	default:
		return ""
	}
}

func isModuleListKey(key string) bool {
	for _, k := range ModuleListKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (s KeySet) String() string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	return strings.Join(names, ",")
}
