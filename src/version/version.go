package version

// Version is the release version of cloud-init-strict. Overridden at build
// time via -ldflags "-X cloud-init-strict/src/version.Version=...".
var Version = "0.2.0-dev"
