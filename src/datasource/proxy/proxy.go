// Package proxy implements the delegating facade over whichever datasource
// detection selects. Boot code talks only to the proxy; the proxy ensures
// detection has run, forwards every capability call to the detected backend,
// filters boothook blocks out of fetched user-data, and supplies defined
// fallbacks when no backend was found.
package proxy

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/filter"
	"cloud-init-strict/src/logging"
	"cloud-init-strict/src/sysconfig"
)

// Name is how the proxy appears in datasource_list. It excludes itself from
// its own candidate sweep.
const Name = "strict-proxy"

// Fallback values used when detection never succeeds.
const (
	FallbackInstanceID = "iid-proxy-unknown"
	FallbackLocale     = "en_US.UTF-8"
	PlatformName       = "proxy"
	SubplatformName    = "filtered-proxy"
)

// Describe returns the proxy's registration entry. The proxy is a candidate
// for every capability stage — its own eligibility is determined internally
// by the detection sweep, not declared statically.
func Describe(reg *datasource.Registry) datasource.Descriptor {
	return datasource.Descriptor{
		Name:     Name,
		Requires: datasource.NewCapabilitySet(),
		New: func(env *sysconfig.Environment) (datasource.Datasource, error) {
			return New(env, reg), nil
		},
	}
}

// Proxy is the detection cache and facade. Detection is monotonic on
// success: once a backend is stored it is never replaced or cleared. A
// failed attempt leaves the proxy unresolved and every later capability call
// may retry from scratch.
//
// The proxy is meant for single-threaded, single-instance-per-process use
// during a boot run; it does not synchronize internally.
type Proxy struct {
	env      *sysconfig.Environment
	detector *datasource.Detector
	log      *logrus.Entry

	backend     datasource.Datasource
	backendDesc datasource.Descriptor
	backendName string
	lastReport  *datasource.Report
}

// New builds a proxy resolving candidates from reg using the environment's
// configured datasource_list.
func New(env *sysconfig.Environment, reg *datasource.Registry) *Proxy {
	log := logging.Component("proxy")
	return &Proxy{
		env:      env,
		detector: datasource.NewDetector(reg, env.SysCfg.ProbeTimeout(), log),
		log:      log,
	}
}

var _ datasource.Datasource = (*Proxy)(nil)

// ensure runs detection if no backend is stored yet and returns the backend,
// nil when detection (still) fails.
func (p *Proxy) ensure(ctx context.Context) datasource.Datasource {
	if p.backend != nil {
		return p.backend
	}
	p.log.Info("attempting to detect functional underlying datasource")
	found, report := p.detector.Detect(ctx, p.env.SysCfg.DatasourceList, Name, p.env)
	p.lastReport = report
	if found == nil {
		p.log.Warn("no functional underlying datasource detected")
		return nil
	}
	p.backend = found.Instance
	p.backendDesc = found.Descriptor
	p.backendName = found.Descriptor.Name
	return p.backend
}

// GetData reports whether an underlying datasource could be detected. The
// detected backend has already loaded its data during its winning probe.
func (p *Proxy) GetData(ctx context.Context) (bool, error) {
	return p.ensure(ctx) != nil, nil
}

// UserDataRaw fetches the backend's raw user-data and strips boothook
// blocks. Backend fetch failures surface as "no content", never as errors:
// the facade stays stable once detection has succeeded.
//
// When the backend caches its raw user-data, the filtered payload is written
// back into that cache so code reading the backend directly also observes
// filtered content.
func (p *Proxy) UserDataRaw(ctx context.Context) ([]byte, error) {
	uds := p.ensure(ctx)
	if uds == nil {
		p.log.Warn("cannot get user-data, no underlying datasource found")
		return nil, nil
	}
	raw, err := uds.UserDataRaw(ctx)
	if err != nil {
		p.log.WithError(err).WithField("datasource", p.backendName).
			Error("underlying user-data fetch failed")
		return nil, nil
	}
	if raw == nil {
		p.log.WithField("datasource", p.backendName).Debug("underlying datasource has no user-data")
		return nil, nil
	}
	filtered := filter.Boothooks(raw)
	if p.backendDesc.CachesUserdata {
		uds.SetUserDataRaw(filtered)
	}
	return filtered, nil
}

// SetUserDataRaw is a no-op: the proxy holds no user-data of its own.
func (p *Proxy) SetUserDataRaw([]byte) {}

// InstanceID forwards to the backend, or the sentinel when none exists.
func (p *Proxy) InstanceID() string {
	if uds := p.ensure(context.Background()); uds != nil {
		return uds.InstanceID()
	}
	return FallbackInstanceID
}

// PublicSSHKeys forwards to the backend, or an empty list.
func (p *Proxy) PublicSSHKeys() []string {
	if uds := p.ensure(context.Background()); uds != nil {
		return uds.PublicSSHKeys()
	}
	return nil
}

// Hostname forwards to the backend, or the distro default.
func (p *Proxy) Hostname(fqdn, metadataOnly bool) string {
	if uds := p.ensure(context.Background()); uds != nil {
		return uds.Hostname(fqdn, metadataOnly)
	}
	return p.env.Distro.FallbackHostname(fqdn)
}

// Locale forwards to the backend, or the fixed default tag.
func (p *Proxy) Locale() string {
	if uds := p.ensure(context.Background()); uds != nil {
		return uds.Locale()
	}
	return FallbackLocale
}

func (p *Proxy) Platform() string {
	if uds := p.ensure(context.Background()); uds != nil {
		return uds.Platform()
	}
	return PlatformName
}

func (p *Proxy) Subplatform() string {
	if uds := p.ensure(context.Background()); uds != nil {
		return uds.Subplatform()
	}
	return SubplatformName
}

// BackendName reports which datasource was detected, empty while unresolved.
func (p *Proxy) BackendName() string { return p.backendName }

// LastReport returns the report of the most recent detection sweep, nil
// before the first attempt.
func (p *Proxy) LastReport() *datasource.Report { return p.lastReport }

// Detect forces a detection attempt now and returns whether one succeeded.
// Used by the CLI; boot paths rely on the lazy ensure instead.
func (p *Proxy) Detect(ctx context.Context) (bool, *datasource.Report) {
	ok := p.ensure(ctx) != nil
	return ok, p.lastReport
}

// DetectTimeout exposes the per-probe budget, mainly for logging.
func (p *Proxy) DetectTimeout() time.Duration { return p.detector.ProbeTimeout }
