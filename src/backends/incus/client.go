package incus

// Instance models the slice of an Incus instance this backend reads.
type Instance struct {
	Name   string
	Config map[string]string
}

// Client is a narrow interface over the Incus API. Keep it small and focused
// on what the datasource actually needs so it stays fakeable.
type Client interface {
	ServerVersion() (string, error)
	Instance(name string) (Instance, error)
}
