package reconcile

import (
	"slices"
	"sort"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// Diff computes one backend's convergence sets:
//
//	install = desired - installed
//	remove  = explicit installed - desired
//
// Dependency packages are never removal candidates. Both results are sorted
// and disjoint.
func Diff(desired []string, installed []backend.InstalledPackage) (install, remove []string) {
	want := make(map[string]struct{}, len(desired))
	for _, pkg := range desired {
		want[pkg] = struct{}{}
	}

	have := make(map[string]struct{}, len(installed))
	for _, p := range installed {
		have[p.ID] = struct{}{}
		if p.Origin != backend.Explicit {
			continue
		}
		if _, ok := want[p.ID]; !ok {
			remove = append(remove, p.ID)
		}
	}

	for pkg := range want {
		if _, ok := have[pkg]; !ok {
			install = append(install, pkg)
		}
	}

	sort.Strings(install)
	sort.Strings(remove)
	remove = slices.Compact(remove)
	return install, remove
}
