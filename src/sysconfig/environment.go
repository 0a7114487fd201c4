package sysconfig

import (
	"path/filepath"
	"strings"
)

// Environment bundles what every datasource factory receives: the system
// configuration, the distro descriptor, and the filesystem layout.
type Environment struct {
	SysCfg *Config
	Distro Distro
	Paths  Paths
}

// NewEnvironment builds an Environment with default distro and paths.
func NewEnvironment(cfg *Config) *Environment {
	if cfg == nil {
		cfg = Default()
	}
	return &Environment{SysCfg: cfg, Distro: DefaultDistro(), Paths: DefaultPaths()}
}

// Distro describes the host distribution and its generic defaults, used when
// no datasource can supply a value.
type Distro struct {
	Name            string
	DefaultHostname string
	DefaultLocale   string
}

// DefaultDistro returns a generic distro descriptor.
func DefaultDistro() Distro {
	return Distro{Name: "generic", DefaultHostname: "localhost", DefaultLocale: "en_US.UTF-8"}
}

// FallbackHostname is the hostname used when no datasource supplies one.
func (d Distro) FallbackHostname(fqdn bool) string {
	h := d.DefaultHostname
	if h == "" {
		h = "localhost"
	}
	if fqdn && !strings.Contains(h, ".") {
		return h + ".localdomain"
	}
	return h
}

// Paths is the filesystem layout shared across components.
type Paths struct {
	CloudDir string
	SeedDir  string
	RunDir   string
}

// DefaultPaths returns the standard layout.
func DefaultPaths() Paths {
	return Paths{
		CloudDir: "/var/lib/cloud",
		SeedDir:  "/var/lib/cloud/seed",
		RunDir:   "/run/cloud-init-strict",
	}
}

// BoothookDir is where boothook parts are written before execution.
func (p Paths) BoothookDir() string {
	return filepath.Join(p.CloudDir, "instance", "boothooks")
}

// NoCloudSeedDir is the default seed location for the nocloud backend.
func (p Paths) NoCloudSeedDir() string {
	return filepath.Join(p.SeedDir, "nocloud")
}
