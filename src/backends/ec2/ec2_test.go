package ec2_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud-init-strict/src/backends/ec2"
	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/sysconfig"
)

func metadataServer(t *testing.T, userdata string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/latest/meta-data/instance-id", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("i-0abc123\n"))
	})
	mux.HandleFunc("/latest/meta-data/local-hostname", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ip-10-0-0-1\n"))
	})
	mux.HandleFunc("/latest/meta-data/public-keys", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ssh-ed25519 AAAA\n\nssh-rsa BBBB\n"))
	})
	mux.HandleFunc("/latest/user-data", func(w http.ResponseWriter, r *http.Request) {
		if userdata == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(userdata))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func envWithURL(url string) *sysconfig.Environment {
	cfg := sysconfig.Default()
	cfg.Datasource.Ec2.MetadataURL = url
	return sysconfig.NewEnvironment(cfg)
}

func TestGetData_FetchesMetadata(t *testing.T) {
	srv := metadataServer(t, "#cloud-config\nhostname: x\n")
	ds, err := ec2.New(envWithURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	ok, err := ds.GetData(context.Background())
	if !ok || err != nil {
		t.Fatalf("expected success: ok=%v err=%v", ok, err)
	}
	if ds.InstanceID() != "i-0abc123" {
		t.Fatalf("unexpected instance id: %q", ds.InstanceID())
	}
	if ds.Hostname(false, false) != "ip-10-0-0-1" {
		t.Fatalf("unexpected hostname: %q", ds.Hostname(false, false))
	}
	if keys := ds.PublicSSHKeys(); len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
	ud, _ := ds.UserDataRaw(context.Background())
	if string(ud) != "#cloud-config\nhostname: x\n" {
		t.Fatalf("unexpected user-data: %q", ud)
	}
}

func TestGetData_NoUserData(t *testing.T) {
	srv := metadataServer(t, "")
	ds, _ := ec2.New(envWithURL(srv.URL))
	if ok, err := ds.GetData(context.Background()); !ok || err != nil {
		t.Fatalf("expected success without user-data: %v %v", ok, err)
	}
	if ud, _ := ds.UserDataRaw(context.Background()); ud != nil {
		t.Fatalf("expected nil user-data, got %q", ud)
	}
}

func TestGetData_UnreachableServiceDeclines(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ds, _ := ec2.New(envWithURL(url))
	ok, err := ds.GetData(context.Background())
	if ok {
		t.Fatalf("expected unreachable service to decline")
	}
	if !errors.Is(err, datasource.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetData_Non200InstanceIDDeclines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	ds, _ := ec2.New(envWithURL(srv.URL))
	ok, err := ds.GetData(context.Background())
	if ok || !errors.Is(err, datasource.ErrNotFound) {
		t.Fatalf("expected decline, got ok=%v err=%v", ok, err)
	}
}
