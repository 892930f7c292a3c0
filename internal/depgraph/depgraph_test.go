// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"slices"
	"testing"

	"modguard/pkg/collision"
)

func pkg(name, version string) collision.PackageIdentity {
	return collision.PackageIdentity{Name: name, Version: version}
}

func names(pkgs []collision.PackageIdentity) []string {
	out := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, p.Name)
	}
	return out
}

func TestAddNode_IdempotentFirstVersionWins(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode(pkg("requests", "2.31.0"))
	g.AddNode(pkg("requests", "1.0.0"))

	if g.Len() != 1 {
		t.Fatalf("expected 1 node, got %d", g.Len())
	}
	stored, ok := g.Package("requests")
	if !ok {
		t.Fatal("requests not found")
	}
	if stored.Version != "2.31.0" {
		t.Errorf("expected first inserted version kept, got %s", stored.Version)
	}
}

func TestAddDependency_InsertsBothAndDedups(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddDependency(pkg("app", "0.0.0"), pkg("requests", "2.31.0"))
	g.AddDependency(pkg("app", "0.0.0"), pkg("requests", "2.31.0"))
	g.AddDependency(pkg("app", "0.0.0"), pkg("urllib3", "2.0.0"))

	if g.Len() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Len())
	}
	got := names(g.DirectDependencies("app"))
	if !slices.Equal(got, []string{"requests", "urllib3"}) {
		t.Errorf("expected [requests urllib3], got %v", got)
	}
}

func TestDirectDependencies_UnknownNameIsEmpty(t *testing.T) {
	t.Parallel()
	g := New()
	if got := g.DirectDependencies("nope"); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
	if got := g.AllDependencies("nope"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestAllDependencies_Transitive(t *testing.T) {
	t.Parallel()
	g := New()
	// app -> requests -> urllib3 -> idna, app -> toml
	g.AddDependency(pkg("app", "0.0.0"), pkg("requests", "2.31.0"))
	g.AddDependency(pkg("app", "0.0.0"), pkg("toml", "0.10.2"))
	g.AddDependency(pkg("requests", "2.31.0"), pkg("urllib3", "2.0.0"))
	g.AddDependency(pkg("urllib3", "2.0.0"), pkg("idna", "3.4"))

	got := names(g.AllDependencies("app"))
	if !slices.Equal(got, []string{"requests", "toml", "urllib3", "idna"}) {
		t.Errorf("unexpected transitive closure: %v", got)
	}
}

func TestAllDependencies_ExcludesSelf(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddDependency(pkg("a", "1"), pkg("b", "1"))
	g.AddDependency(pkg("b", "1"), pkg("a", "1"))

	got := names(g.AllDependencies("a"))
	if slices.Contains(got, "a") {
		t.Errorf("closure of a must not include a: %v", got)
	}
	if !slices.Equal(got, []string{"b"}) {
		t.Errorf("expected [b], got %v", got)
	}
}

func TestAllDependencies_TerminatesOnCycle(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddDependency(pkg("a", "1"), pkg("b", "1"))
	g.AddDependency(pkg("b", "1"), pkg("c", "1"))
	g.AddDependency(pkg("c", "1"), pkg("a", "1"))

	got := names(g.AllDependencies("a"))
	if !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("expected [b c], got %v", got)
	}
}

func TestPackages_InsertionOrder(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddDependency(pkg("zeta", "1"), pkg("alpha", "1"))
	g.AddNode(pkg("mid", "1"))

	got := names(g.Packages())
	if !slices.Equal(got, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("expected insertion order, got %v", got)
	}
}
