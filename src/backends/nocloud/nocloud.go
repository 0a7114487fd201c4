// Package nocloud implements the filesystem seed datasource: instance
// metadata and user-data read from a local seed directory, available from
// the earliest boot stage.
package nocloud

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/logging"
	"cloud-init-strict/src/sysconfig"
)

// Name is the registry name of this backend.
const Name = "nocloud"

// Describe returns the static registration entry.
func Describe() datasource.Descriptor {
	return datasource.Descriptor{
		Name:           Name,
		Requires:       datasource.NewCapabilitySet(datasource.DepFilesystem),
		CachesUserdata: true,
		New:            New,
	}
}

// metadata is the decoded meta-data file of a seed.
type metadata struct {
	InstanceID    string   `yaml:"instance-id"`
	LocalHostname string   `yaml:"local-hostname"`
	Locale        string   `yaml:"locale"`
	PublicKeys    []string `yaml:"public-keys"`
}

// Datasource reads a seed directory containing meta-data and user-data.
type Datasource struct {
	seedDir string
	log     *logrus.Entry

	md       metadata
	userdata []byte
}

var _ datasource.Datasource = (*Datasource)(nil)

// New builds the backend from the boot environment. The seed directory comes
// from datasource.nocloud.seedfrom when set, otherwise the default layout.
func New(env *sysconfig.Environment) (datasource.Datasource, error) {
	dir := env.Paths.NoCloudSeedDir()
	if raw := env.SysCfg.Datasource.NoCloud.SeedFrom; raw != "" {
		seed, err := ParseSeed(raw)
		if err != nil {
			return nil, fmt.Errorf("nocloud: %w", err)
		}
		dir = seed.Dir
	}
	return &Datasource{seedDir: dir, log: logging.Component(Name)}, nil
}

// GetData loads the seed. A missing seed directory or meta-data file means
// this backend does not apply to the environment.
func (d *Datasource) GetData(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	mdPath := filepath.Join(d.seedDir, "meta-data")
	raw, err := os.ReadFile(mdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("nocloud: no seed at %s: %w", d.seedDir, datasource.ErrNotFound)
		}
		return false, fmt.Errorf("nocloud: read meta-data: %w", err)
	}
	var md metadata
	if err := yaml.Unmarshal(raw, &md); err != nil {
		return false, fmt.Errorf("nocloud: decode meta-data: %w", err)
	}
	d.md = md

	ud, err := os.ReadFile(filepath.Join(d.seedDir, "user-data"))
	switch {
	case err == nil:
		d.userdata = ud
	case os.IsNotExist(err):
		d.userdata = nil
	default:
		return false, fmt.Errorf("nocloud: read user-data: %w", err)
	}
	d.log.WithFields(logrus.Fields{"seed": d.seedDir, "instance_id": d.md.InstanceID}).
		Debug("seed loaded")
	return true, nil
}

func (d *Datasource) UserDataRaw(context.Context) ([]byte, error) { return d.userdata, nil }
func (d *Datasource) SetUserDataRaw(data []byte)                  { d.userdata = data }

func (d *Datasource) InstanceID() string      { return d.md.InstanceID }
func (d *Datasource) PublicSSHKeys() []string { return d.md.PublicKeys }

func (d *Datasource) Hostname(fqdn, metadataOnly bool) string {
	h := d.md.LocalHostname
	if h == "" {
		return ""
	}
	if fqdn && !strings.Contains(h, ".") {
		return h + ".localdomain"
	}
	return h
}

func (d *Datasource) Locale() string { return d.md.Locale }

func (d *Datasource) Platform() string { return Name }

func (d *Datasource) Subplatform() string {
	return fmt.Sprintf("seed-dir (%s)", d.seedDir)
}
