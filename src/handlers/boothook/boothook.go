// Package boothook runs #cloud-boothook user-data parts. Each part is
// written under the instance boothooks directory and executed once per boot
// with the originating instance ID in its environment.
package boothook

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"

	"cloud-init-strict/src/filter"
	"cloud-init-strict/src/logging"
	"cloud-init-strict/src/sysconfig"
)

// Handler writes and executes boothook parts.
type Handler struct {
	dir        string
	instanceID string
	enabled    bool
	log        *logrus.Entry
}

// New builds a handler rooted at the environment's boothooks directory.
// instanceID may be empty when no datasource has been detected yet.
func New(env *sysconfig.Environment, instanceID string) *Handler {
	return &Handler{
		dir:        env.Paths.BoothookDir(),
		instanceID: instanceID,
		enabled:    env.SysCfg.BoothookEnabled(),
		log:        logging.Component("boothook"),
	}
}

// Enabled reports whether the handler will act on parts.
func (h *Handler) Enabled() bool { return h.enabled }

// ForceEnable overrides a disabled configuration, used when an operator
// explicitly forces a run.
func (h *Handler) ForceEnable() { h.enabled = true }

// HandlePart persists one boothook part and executes it. Execution failures
// are logged, not returned: a broken hook must not abort the boot sequence.
// The returned path names the written script, empty when the handler is
// disabled.
func (h *Handler) HandlePart(ctx context.Context, filename string, payload []byte) (string, error) {
	if !h.enabled {
		h.log.Debug("boothook handler is disabled")
		return "", nil
	}

	path, err := h.writePart(filename, payload)
	if err != nil {
		return "", err
	}

	h.log.WithField("script", path).Debug("executing boothook")
	cmd := exec.CommandContext(ctx, path)
	cmd.Env = os.Environ()
	if h.instanceID != "" {
		cmd.Env = append(cmd.Env, "INSTANCE_ID="+h.instanceID)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		h.log.WithError(err).Errorf("boothook script %s execution error", path)
	}
	return path, nil
}

// writePart stores the part 0700 under the boothooks directory with the
// content prefix stripped and line endings normalized.
func (h *Handler) writePart(filename string, payload []byte) (string, error) {
	contents := dos2unix(payload)
	contents = bytes.TrimPrefix(contents, []byte(filter.Marker))
	contents = bytes.TrimLeft(contents, " \t\r\n")

	name := cleanFilename(filename)
	if name == "" {
		name = "boothook-" + contentHash(contents)
	}
	path := filepath.Join(h.dir, name)
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("boothook dir: %w", err)
	}
	if err := os.WriteFile(path, contents, 0o700); err != nil {
		return "", fmt.Errorf("write boothook part: %w", err)
	}
	return path, nil
}

// cleanFilename reduces a part filename to a safe basename.
func cleanFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// contentHash names anonymous parts by their content so re-delivered parts
// land on the same path.
func contentHash(contents []byte) string {
	sum := blake3.Sum256(contents)
	return hex.EncodeToString(sum[:6])
}

func dos2unix(data []byte) []byte {
	return bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
}
