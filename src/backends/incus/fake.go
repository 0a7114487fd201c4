package incus

import "fmt"

// FakeClient is an in-memory Client for unit tests.
type FakeClient struct {
	Version   string
	Instances map[string]Instance
	Err       error
}

var _ Client = (*FakeClient)(nil)

// NewFake returns an empty fake client.
func NewFake() *FakeClient {
	return &FakeClient{Instances: map[string]Instance{}}
}

func (f *FakeClient) ServerVersion() (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.Version, nil
}

func (f *FakeClient) Instance(name string) (Instance, error) {
	if f.Err != nil {
		return Instance{}, f.Err
	}
	inst, ok := f.Instances[name]
	if !ok {
		return Instance{}, fmt.Errorf("instance not found: %s", name)
	}
	return inst, nil
}
