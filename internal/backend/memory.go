package backend

import (
	"context"
	"sort"
	"sync"
)

// Call records one mutating call made against a Memory backend.
type Call struct {
	Op       string
	Packages []string
}

// Memory is an in-memory Backend. Batches are transactional: if any package
// in a batch is marked as failing, nothing in the batch is applied.
type Memory struct {
	mu          sync.Mutex
	id          ID
	packages    map[string]InstalledPackage
	queryErr    error
	failInstall map[string]string
	failRemove  map[string]string
	calls       []Call
}

// NewMemory creates a Memory backend with the given installed packages.
func NewMemory(id ID, installed ...InstalledPackage) *Memory {
	m := &Memory{
		id:          id,
		packages:    make(map[string]InstalledPackage, len(installed)),
		failInstall: make(map[string]string),
		failRemove:  make(map[string]string),
	}
	for _, p := range installed {
		m.packages[p.ID] = p
	}
	return m
}

// ID returns the backend tag.
func (m *Memory) ID() ID {
	return m.id
}

// Installed returns the installed packages sorted by ID.
func (m *Memory) Installed(ctx context.Context) ([]InstalledPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queryErr != nil {
		return nil, m.queryErr
	}

	pkgs := make([]InstalledPackage, 0, len(m.packages))
	for _, p := range m.packages {
		pkgs = append(pkgs, p)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })
	return pkgs, nil
}

// Install marks packages as explicitly installed. Packages that are already
// present keep their origin.
func (m *Memory) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(OpInstall, packages)
	if err := m.failures(OpInstall, packages, m.failInstall); err != nil {
		return err
	}

	for _, name := range packages {
		if _, ok := m.packages[name]; ok {
			continue
		}
		m.packages[name] = InstalledPackage{ID: name, Origin: Explicit, Repo: Native}
	}
	return nil
}

// Remove deletes packages. Absent packages are ignored.
func (m *Memory) Remove(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(OpRemove, packages)
	if err := m.failures(OpRemove, packages, m.failRemove); err != nil {
		return err
	}

	for _, name := range packages {
		delete(m.packages, name)
	}
	return nil
}

// FailQuery makes Installed return err. A nil err clears the failure.
func (m *Memory) FailQuery(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErr = err
}

// FailPackage makes any batch of op that contains pkg fail with reason.
func (m *Memory) FailPackage(op, pkg, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch op {
	case OpInstall:
		m.failInstall[pkg] = reason
	case OpRemove:
		m.failRemove[pkg] = reason
	}
}

// Calls returns a copy of the mutating calls made so far.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *Memory) record(op string, packages []string) {
	pkgs := make([]string, len(packages))
	copy(pkgs, packages)
	m.calls = append(m.calls, Call{Op: op, Packages: pkgs})
}

func (m *Memory) failures(op string, packages []string, failing map[string]string) error {
	var failed []PackageFailure
	for _, name := range packages {
		if reason, ok := failing[name]; ok {
			failed = append(failed, PackageFailure{Package: name, Reason: reason})
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &MutationError{Backend: m.id, Op: op, Packages: failed}
}
