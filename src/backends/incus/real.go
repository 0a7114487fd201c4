package incus

import (
	incuscli "github.com/lxc/incus/client"
)

// RealClient wraps the official Incus Go client.
type RealClient struct {
	c incuscli.InstanceServer
}

var _ Client = (*RealClient)(nil)

// ConnectLocal connects to the local Incus daemon via the UNIX socket.
func ConnectLocal() (*RealClient, error) {
	c, err := incuscli.ConnectIncusUnix("", nil)
	if err != nil {
		return nil, err
	}
	return &RealClient{c: c}, nil
}

func (r *RealClient) ServerVersion() (string, error) {
	s, _, err := r.c.GetServer()
	if err != nil {
		return "", err
	}
	return s.Environment.ServerVersion, nil
}

func (r *RealClient) Instance(name string) (Instance, error) {
	inst, _, err := r.c.GetInstance(name)
	if err != nil {
		return Instance{}, err
	}
	return Instance{Name: inst.Name, Config: inst.Config}, nil
}
