package datasource

import (
	"context"
	"errors"

	"cloud-init-strict/src/sysconfig"
)

// ErrNotFound is returned (possibly wrapped) by a backend's readiness check
// to signal that it does not apply to this environment. It is the non-fatal
// "try the next candidate" outcome.
var ErrNotFound = errors.New("datasource not found in this environment")

// Datasource is the capability surface every backend exposes. Conformance is
// checked at compile time by each implementation.
type Datasource interface {
	// GetData probes the backend and, on success, loads its metadata and
	// user-data. It must honor ctx as a hard deadline.
	GetData(ctx context.Context) (bool, error)

	// UserDataRaw returns the raw user-data payload, nil when absent.
	UserDataRaw(ctx context.Context) ([]byte, error)

	// SetUserDataRaw replaces the backend's cached raw user-data. Backends
	// without a cache implement it as a no-op; the descriptor's
	// CachesUserdata flag tells callers which is which.
	SetUserDataRaw(data []byte)

	InstanceID() string
	PublicSSHKeys() []string
	Hostname(fqdn, metadataOnly bool) string
	Locale() string
	Platform() string
	Subplatform() string
}

// Factory constructs one backend instance from the shared boot environment.
// Construction must be cheap; expensive work belongs in GetData where the
// probe deadline bounds it.
type Factory func(env *sysconfig.Environment) (Datasource, error)

// Descriptor is the static registration record for one backend.
type Descriptor struct {
	Name string
	// Requires is the capability set a stage must provide before this
	// backend is probed. Empty means eligible in every stage.
	Requires CapabilitySet
	// CachesUserdata marks backends whose UserDataRaw result is cached on
	// the instance and can be overwritten via SetUserDataRaw.
	CachesUserdata bool
	New            Factory
}
