package datasource_test

import (
	"context"
	"time"

	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/sysconfig"
)

// stubSource is a scriptable datasource for detector and probe tests.
type stubSource struct {
	ok        bool
	err       error
	delay     time.Duration
	honorCtx  bool
	panicWith any

	userdata []byte
	id       string

	getDataCalls int
}

func (s *stubSource) GetData(ctx context.Context) (bool, error) {
	s.getDataCalls++
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	if s.delay > 0 {
		if s.honorCtx {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		} else {
			time.Sleep(s.delay)
		}
	}
	return s.ok, s.err
}

func (s *stubSource) UserDataRaw(context.Context) ([]byte, error) { return s.userdata, nil }
func (s *stubSource) SetUserDataRaw(data []byte)                  { s.userdata = data }
func (s *stubSource) InstanceID() string                          { return s.id }
func (s *stubSource) PublicSSHKeys() []string                     { return nil }
func (s *stubSource) Hostname(fqdn, metadataOnly bool) string     { return "stub" }
func (s *stubSource) Locale() string                              { return "C" }
func (s *stubSource) Platform() string                            { return "stub" }
func (s *stubSource) Subplatform() string                         { return "stub" }

var _ datasource.Datasource = (*stubSource)(nil)

func stubDescriptor(name string, requires datasource.CapabilitySet, src *stubSource) datasource.Descriptor {
	return datasource.Descriptor{
		Name:     name,
		Requires: requires,
		New: func(*sysconfig.Environment) (datasource.Datasource, error) {
			return src, nil
		},
	}
}

func testEnv() *sysconfig.Environment {
	return sysconfig.NewEnvironment(sysconfig.Default())
}
