// Package incus implements the container-platform datasource: instance data
// read from the local Incus daemon over its UNIX socket.
package incus

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/logging"
	"cloud-init-strict/src/sysconfig"
)

// Name is the registry name of this backend.
const Name = "incus"

// Instance config keys carrying cloud-init data.
const (
	userDataKey       = "cloud-init.user-data"
	legacyUserDataKey = "user.user-data"
	instanceIDKey     = "volatile.cloud-init.instance-id"
	sshKeysKey        = "cloud-init.ssh-keys"
)

// Describe returns the static registration entry. The socket is filesystem
// local, so the backend is eligible from the earliest stage.
func Describe() datasource.Descriptor {
	return datasource.Descriptor{
		Name:           Name,
		Requires:       datasource.NewCapabilitySet(datasource.DepFilesystem),
		CachesUserdata: true,
		New:            New,
	}
}

// connectLocal is swapped out by tests; the production path dials the
// daemon socket.
var connectLocal = func() (Client, error) { return ConnectLocal() }

// Datasource reads instance configuration from an Incus daemon.
type Datasource struct {
	connect  func() (Client, error)
	instance string
	log      *logrus.Entry

	instanceID string
	hostname   string
	sshKeys    []string
	userdata   []byte
}

var _ datasource.Datasource = (*Datasource)(nil)

// New builds the backend. datasource.incus.instance names the instance to
// read; it defaults to this host's name.
func New(env *sysconfig.Environment) (datasource.Datasource, error) {
	name := env.SysCfg.Datasource.Incus.Instance
	if name == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("incus: resolve instance name: %w", err)
		}
		name = h
	}
	return &Datasource{connect: connectLocal, instance: name, log: logging.Component(Name)}, nil
}

// GetData connects to the daemon and loads the instance's cloud-init
// configuration. A missing daemon or instance means this backend does not
// apply here.
func (d *Datasource) GetData(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c, err := d.connect()
	if err != nil {
		return false, fmt.Errorf("incus: daemon unreachable: %v: %w", err, datasource.ErrNotFound)
	}
	version, err := c.ServerVersion()
	if err != nil {
		return false, fmt.Errorf("incus: query server: %w", err)
	}
	inst, err := c.Instance(d.instance)
	if err != nil {
		return false, fmt.Errorf("incus: instance %s: %v: %w", d.instance, err, datasource.ErrNotFound)
	}

	d.hostname = inst.Name
	d.instanceID = inst.Config[instanceIDKey]
	if d.instanceID == "" {
		d.instanceID = inst.Name
	}
	if ud, ok := inst.Config[userDataKey]; ok {
		d.userdata = []byte(ud)
	} else if ud, ok := inst.Config[legacyUserDataKey]; ok {
		d.userdata = []byte(ud)
	}
	if keys := inst.Config[sshKeysKey]; keys != "" {
		d.sshKeys = splitKeys(keys)
	}
	d.log.WithFields(logrus.Fields{"server_version": version, "instance": inst.Name}).
		Debug("instance data loaded")
	return true, nil
}

func splitKeys(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (d *Datasource) UserDataRaw(context.Context) ([]byte, error) { return d.userdata, nil }
func (d *Datasource) SetUserDataRaw(data []byte)                  { d.userdata = data }

func (d *Datasource) InstanceID() string      { return d.instanceID }
func (d *Datasource) PublicSSHKeys() []string { return d.sshKeys }

func (d *Datasource) Hostname(fqdn, metadataOnly bool) string {
	return d.hostname
}

// Locale is not modeled in instance config.
func (d *Datasource) Locale() string { return "" }

func (d *Datasource) Platform() string    { return Name }
func (d *Datasource) Subplatform() string { return "unix-socket" }
