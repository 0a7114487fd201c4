// Package ec2 implements an IMDS-style metadata-service datasource. It is
// only probed once the network stage is reached.
package ec2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/logging"
	"cloud-init-strict/src/sysconfig"
)

// Name is the registry name of this backend.
const Name = "ec2"

// DefaultMetadataURL is the well-known link-local metadata endpoint.
const DefaultMetadataURL = "http://169.254.169.254"

const apiVersion = "latest"

// Describe returns the static registration entry.
func Describe() datasource.Descriptor {
	return datasource.Descriptor{
		Name:           Name,
		Requires:       datasource.NewCapabilitySet(datasource.DepFilesystem, datasource.DepNetwork),
		CachesUserdata: true,
		New:            New,
	}
}

// Datasource fetches instance data from a metadata service.
type Datasource struct {
	baseURL string
	client  *http.Client
	log     *logrus.Entry

	instanceID string
	hostname   string
	sshKeys    []string
	userdata   []byte
}

var _ datasource.Datasource = (*Datasource)(nil)

// New builds the backend. datasource.ec2.metadata_url overrides the
// endpoint, which tests point at a local server.
func New(env *sysconfig.Environment) (datasource.Datasource, error) {
	base := env.SysCfg.Datasource.Ec2.MetadataURL
	if base == "" {
		base = DefaultMetadataURL
	}
	return &Datasource{
		baseURL: strings.TrimRight(base, "/"),
		// No client-level timeout: the probe context is the deadline.
		client: &http.Client{},
		log:    logging.Component(Name),
	}, nil
}

// GetData probes the metadata service. Connection failures mean the service
// is not there, which is the ordinary "not this platform" outcome.
func (d *Datasource) GetData(ctx context.Context) (bool, error) {
	id, status, err := d.get(ctx, "meta-data/instance-id")
	if err != nil {
		return false, fmt.Errorf("ec2: metadata service unreachable: %v: %w", err, datasource.ErrNotFound)
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("ec2: metadata service returned %d: %w", status, datasource.ErrNotFound)
	}
	d.instanceID = strings.TrimSpace(string(id))

	if h, status, err := d.get(ctx, "meta-data/local-hostname"); err == nil && status == http.StatusOK {
		d.hostname = strings.TrimSpace(string(h))
	}
	if keys, status, err := d.get(ctx, "meta-data/public-keys"); err == nil && status == http.StatusOK {
		d.sshKeys = nonEmptyLines(string(keys))
	}
	ud, status, err := d.get(ctx, "user-data")
	switch {
	case err != nil:
		return false, fmt.Errorf("ec2: fetch user-data: %w", err)
	case status == http.StatusOK:
		d.userdata = ud
	case status == http.StatusNotFound:
		d.userdata = nil
	default:
		return false, fmt.Errorf("ec2: user-data returned %d", status)
	}
	d.log.WithField("instance_id", d.instanceID).Debug("metadata fetched")
	return true, nil
}

func (d *Datasource) get(ctx context.Context, path string) ([]byte, int, error) {
	url := fmt.Sprintf("%s/%s/%s", d.baseURL, apiVersion, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func nonEmptyLines(s string) []string {
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

// Locale is not part of the metadata service surface.
func (d *Datasource) Locale() string { return "" }

func (d *Datasource) Platform() string { return Name }

func (d *Datasource) Subplatform() string {
	return fmt.Sprintf("metadata (%s)", d.baseURL)
}
