//go:build governance

package core_test

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestGovernance_CoreCohesion verifies that exported types in pkg/core are
// genuinely shared. A type used by a single package belongs in that package.
func TestGovernance_CoreCohesion(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	var corePkg *packages.Package
	for _, p := range pkgs {
		if p.PkgPath == modulePath+"/pkg/core" {
			corePkg = p
			break
		}
	}
	if corePkg == nil {
		t.Fatal("Could not find pkg/core")
	}

	usage := make(map[string]map[string]bool)
	scope := corePkg.Types.Scope()
	for _, name := range scope.Names() {
		if scope.Lookup(name).Exported() {
			usage[name] = make(map[string]bool)
		}
	}

	base := modulePath + "/"
	for _, p := range pkgs {
		if p.PkgPath == corePkg.PkgPath || p.TypesInfo == nil {
			continue
		}
		for _, obj := range p.TypesInfo.Uses {
			if obj.Pkg() == nil || obj.Pkg().Path() != corePkg.PkgPath {
				continue
			}
			if users, ok := usage[obj.Name()]; ok {
				users[strings.TrimPrefix(p.PkgPath, base)] = true
			}
		}
	}

	for name, users := range usage {
		switch len(users) {
		case 0:
			t.Logf("WARNING: Unused core identifier: %s (consider deleting)", name)
		case 1:
			for user := range users {
				t.Errorf("COHESION VIOLATION: 'core.%s' is used ONLY by '%s'.\n"+
					"   Fix: Move it from pkg/core to %s.", name, user, user)
			}
		}
	}
}

// TestGovernance_StoresRegister verifies every backend package under
// pkg/stores depends on the registry in pkg/store.
func TestGovernance_StoresRegister(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, modulePath+"/pkg/stores/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}
	if len(pkgs) == 0 {
		t.Fatal("no store backends found")
	}

	for _, p := range pkgs {
		if _, ok := p.Imports[modulePath+"/pkg/store"]; !ok {
			t.Errorf("%s does not import pkg/store and cannot register itself", p.PkgPath)
		}
	}
}
