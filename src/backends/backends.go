// Package backends assembles the built-in datasource registry. Every backend
// registers a descriptor here, and the filtering proxy is registered last with
// a view over the same registry so it can delegate to its siblings.
package backends

import (
	"cloud-init-strict/src/backends/ec2"
	"cloud-init-strict/src/backends/incus"
	"cloud-init-strict/src/backends/nocloud"
	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/datasource/proxy"
)

// DefaultRegistry returns a registry holding all built-in backends.
func DefaultRegistry() *datasource.Registry {
	reg := datasource.NewRegistry()
	reg.MustRegister(nocloud.Describe())
	reg.MustRegister(incus.Describe())
	reg.MustRegister(ec2.Describe())
	reg.MustRegister(proxy.Describe(reg))
	return reg
}
