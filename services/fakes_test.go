package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"nudeploy/internal/models"
	"nudeploy/internal/registry"
	"nudeploy/internal/repository"
	"nudeploy/internal/result"
	"nudeploy/internal/utils"
)

const (
	testInstallScript   = "Deploy.sh"
	testUninstallScript = "Remove.sh"
)

type memStore struct {
	packages []registry.PackageInfo
	saveErr  error
}

func (m *memStore) Load() ([]registry.PackageInfo, error) {
	return append([]registry.PackageInfo(nil), m.packages...), nil
}

func (m *memStore) Save(packages []registry.PackageInfo) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.packages = append([]registry.PackageInfo(nil), packages...)
	return nil
}

type fakeRepo struct {
	sources  []models.PackageSource
	packages map[string]*repository.Package
	findErr  error
}

func (f *fakeRepo) Sources() ([]models.PackageSource, error) {
	return f.sources, nil
}

func (f *fakeRepo) FindPackage(ctx context.Context, packageId string) (*repository.Package, bool, error) {
	if f.findErr != nil {
		return nil, false, f.findErr
	}
	p, ok := f.packages[packageId]
	return p, ok, nil
}

type fakeExtractor struct {
	calls         []string
	err           error
	withoutScript bool
}

func (f *fakeExtractor) Extract(ctx context.Context, pkg *repository.Package, packagesRoot string) (string, error) {
	f.calls = append(f.calls, pkg.String())
	if f.err != nil {
		return "", f.err
	}
	folder := filepath.Join(packagesRoot, pkg.String())
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", err
	}
	if !f.withoutScript {
		if err := os.WriteFile(filepath.Join(folder, testInstallScript), []byte("true\n"), 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(filepath.Join(folder, testUninstallScript), []byte("true\n"), 0o755); err != nil {
		return "", err
	}
	return folder, nil
}

type fakeTransformer struct {
	settingsResult *result.Result
	configResult   *result.Result
	profiles       []string
	configurations []string
}

func (f *fakeTransformer) TransformSystemSettings(folder string, profiles []string) *result.Result {
	f.profiles = profiles
	if f.settingsResult != nil {
		return f.settingsResult
	}
	return result.NewSuccess("ok")
}

func (f *fakeTransformer) TransformConfigurationFiles(folder string, buildConfigurations []string) *result.Result {
	f.configurations = buildConfigurations
	if f.configResult != nil {
		return f.configResult
	}
	return result.NewSuccess("ok")
}

type scriptCall struct {
	path   string
	params map[string]string
}

type fakeScripts struct {
	mu      sync.Mutex
	calls   []scriptCall
	results map[string]*result.Result
	output  io.Writer
}

func (f *fakeScripts) SetOutput(w io.Writer) {
	f.output = w
}

func (f *fakeScripts) Execute(ctx context.Context, scriptPath string, params map[string]string) *result.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, scriptCall{path: scriptPath, params: params})
	if res, ok := f.results[filepath.Base(scriptPath)]; ok {
		return res
	}
	return result.NewSuccess("script '%s' completed", filepath.Base(scriptPath))
}

func (f *fakeScripts) names() []string {
	var names []string
	for _, c := range f.calls {
		names = append(names, filepath.Base(filepath.Dir(c.path))+"/"+filepath.Base(c.path))
	}
	return names
}

// brokenRemoveSystem fails every RemoveAll
type brokenRemoveSystem struct {
	RealSystem
}

func (brokenRemoveSystem) RemoveAll(path string) error {
	return errors.New("device busy")
}

type testEnv struct {
	root        string
	store       *memStore
	reg         *registry.Registry
	repo        *fakeRepo
	extractor   *fakeExtractor
	transformer *fakeTransformer
	scripts     *fakeScripts
	sys         System
	status      *StatusProvider
	decision    *DecisionEngine
	uninstaller *Uninstaller
	installer   *Installer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		root:        filepath.Join(t.TempDir(), "packages"),
		store:       &memStore{},
		repo:        &fakeRepo{sources: []models.PackageSource{{Name: "local", Url: "/srv/feed"}}, packages: map[string]*repository.Package{}},
		extractor:   &fakeExtractor{},
		transformer: &fakeTransformer{},
		scripts:     &fakeScripts{results: map[string]*result.Result{}},
		sys:         RealSystem{},
	}
	require.NoError(t, os.MkdirAll(e.root, 0o755))
	e.reg = registry.NewRegistry(e.store)
	e.wire()
	return e
}

func (e *testEnv) wire() {
	e.status = NewStatusProvider(e.reg, e.root, e.sys)
	e.decision = NewDecisionEngine(e.status)
	e.uninstaller = NewUninstaller(e.status, e.reg, e.scripts, e.sys, testUninstallScript)
	e.installer = NewInstaller(InstallerDeps{
		Repository:   e.repo,
		Extractor:    e.extractor,
		Transformer:  e.transformer,
		Scripts:      e.scripts,
		Registry:     e.reg,
		Decision:     e.decision,
		Uninstaller:  e.uninstaller,
		System:       e.sys,
		PackagesRoot: e.root,
		ScriptName:   testInstallScript,
	})
}

// installed creates the folder of id/ver with both scripts and, when active,
// registers it.
func (e *testEnv) installed(t *testing.T, id, ver string, active bool) string {
	t.Helper()
	folder := filepath.Join(e.root, id+"."+ver)
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, testInstallScript), []byte("true\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, testUninstallScript), []byte("true\n"), 0o755))
	if active {
		ok, err := e.reg.AddOrUpdate(registry.PackageInfo{Id: id, Version: ver})
		require.NoError(t, err)
		require.True(t, ok)
	}
	return folder
}

func (e *testEnv) offer(id, ver string) {
	e.repo.packages[id] = &repository.Package{Id: id, Version: utils.MustParseVersion(ver), Location: "/srv/feed/" + id + "." + ver + ".zip", Source: "local"}
}

func (e *testEnv) registryContent(t *testing.T) []registry.PackageInfo {
	t.Helper()
	packages, err := e.reg.GetInstalledPackages()
	require.NoError(t, err)
	return packages
}
