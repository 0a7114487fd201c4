package datasource_test

import (
	"testing"

	"cloud-init-strict/src/datasource"
)

func newTestRegistry(t *testing.T, descs ...datasource.Descriptor) *datasource.Registry {
	t.Helper()
	reg := datasource.NewRegistry()
	for _, d := range descs {
		if err := reg.Register(d); err != nil {
			t.Fatalf("register %s: %v", d.Name, err)
		}
	}
	return reg
}

func names(descs []datasource.Descriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Name)
	}
	return out
}

func TestResolve_OrderPreservedAndExcludeRemoved(t *testing.T) {
	fs := datasource.NewCapabilitySet(datasource.DepFilesystem)
	reg := newTestRegistry(t,
		stubDescriptor("a", fs, &stubSource{}),
		stubDescriptor("b", fs, &stubSource{}),
		stubDescriptor("proxy", nil, &stubSource{}),
	)
	got := datasource.Resolve(reg, []string{"b", "proxy", "a"}, "proxy", fs, nil)
	want := []string{"b", "a"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, names(got))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("expected %v, got %v", want, names(got))
		}
	}
}

func TestResolve_UnknownNamesDropped(t *testing.T) {
	fs := datasource.NewCapabilitySet(datasource.DepFilesystem)
	reg := newTestRegistry(t, stubDescriptor("a", fs, &stubSource{}))
	got := datasource.Resolve(reg, []string{"ghost", "a"}, "", fs, nil)
	if len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("expected only 'a', got %v", names(got))
	}
}

func TestResolve_StageEligibility(t *testing.T) {
	fsOnly := datasource.NewCapabilitySet(datasource.DepFilesystem)
	fsNet := datasource.NewCapabilitySet(datasource.DepFilesystem, datasource.DepNetwork)
	reg := newTestRegistry(t,
		stubDescriptor("local", fsOnly, &stubSource{}),
		stubDescriptor("remote", fsNet, &stubSource{}),
		stubDescriptor("anywhere", nil, &stubSource{}),
	)
	configured := []string{"remote", "local", "anywhere"}

	stage1 := datasource.Resolve(reg, configured, "", fsOnly, nil)
	if got := names(stage1); len(got) != 2 || got[0] != "local" || got[1] != "anywhere" {
		t.Fatalf("stage1 candidates wrong: %v", got)
	}

	// Eligibility is per stage: the filesystem-only backend is re-eligible
	// in the richer stage too.
	stage2 := datasource.Resolve(reg, configured, "", fsNet, nil)
	if got := names(stage2); len(got) != 3 || got[0] != "remote" {
		t.Fatalf("stage2 candidates wrong: %v", got)
	}
}

func TestResolve_EmptyResultIsNotAnError(t *testing.T) {
	reg := newTestRegistry(t)
	got := datasource.Resolve(reg, []string{"x", "y"}, "", datasource.NewCapabilitySet(), nil)
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", names(got))
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	reg := datasource.NewRegistry()
	d := stubDescriptor("a", nil, &stubSource{})
	if err := reg.Register(d); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(d); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
