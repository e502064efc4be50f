package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nudeploy/internal/models"
	"nudeploy/internal/registry"
	"nudeploy/internal/result"
)

func fullInstall(id string) InstallRequest {
	return InstallRequest{PackageId: id, Mode: models.Full}
}

func TestInstall_ScenarioA_FreshInstall(t *testing.T) {
	e := newTestEnv(t)
	e.offer("Package.A", "1.0.0")

	res, err := e.installer.Install(context.Background(), fullInstall("Package.A"))
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.String())
	assert.Equal(t, "Package.A.1.0.0", res.Artefact())
	assert.Equal(t, []registry.PackageInfo{{Id: "Package.A", Version: "1.0.0"}}, e.registryContent(t))

	require.Len(t, e.scripts.calls, 1)
	call := e.scripts.calls[0]
	assert.Equal(t, filepath.Join(e.root, "Package.A.1.0.0", testInstallScript), call.path)
	assert.Equal(t, map[string]string{"DeploymentType": "Full"}, call.params)
}

func TestInstall_ScenarioB_SameVersionNotRequired(t *testing.T) {
	e := newTestEnv(t)
	e.installed(t, "Package.A", "1.0.0", true)
	e.offer("Package.A", "1.0.0")

	res, err := e.installer.Install(context.Background(), fullInstall("Package.A"))
	require.NoError(t, err)
	assert.True(t, res.IsFailure())
	assert.Contains(t, res.Message(), "not required")
	assert.True(t, IsNotRequired(res))
	assert.False(t, IsNotRequired(result.NewFailure("%s", res.Message())))
	assert.Empty(t, e.extractor.calls)
	assert.Empty(t, e.scripts.calls)
	assert.Equal(t, []registry.PackageInfo{{Id: "Package.A", Version: "1.0.0"}}, e.registryContent(t))
}

func TestInstall_ScenarioC_FullModeReplacesOlderVersion(t *testing.T) {
	e := newTestEnv(t)
	oldFolder := e.installed(t, "Package.A", "1.0.0", true)
	e.offer("Package.A", "2.0.0")

	res, err := e.installer.Install(context.Background(), fullInstall("Package.A"))
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.String())

	assert.Equal(t, []string{"Package.A.1.0.0/Remove.sh", "Package.A.2.0.0/Deploy.sh"}, e.scripts.names())
	assert.NoDirExists(t, oldFolder)
	assert.DirExists(t, filepath.Join(e.root, "Package.A.2.0.0"))
	assert.Equal(t, []registry.PackageInfo{{Id: "Package.A", Version: "2.0.0"}}, e.registryContent(t))
}

func TestInstall_ScenarioD_NoDowngrade(t *testing.T) {
	e := newTestEnv(t)
	e.installed(t, "Package.A", "1.0.5", true)
	e.offer("Package.A", "1.0.3")

	res, err := e.installer.Install(context.Background(), fullInstall("Package.A"))
	require.NoError(t, err)
	assert.True(t, res.IsFailure())
	assert.Contains(t, res.Message(), "not required")
	assert.Equal(t, []registry.PackageInfo{{Id: "Package.A", Version: "1.0.5"}}, e.registryContent(t))
}

func TestInstall_IdEndingInNumber(t *testing.T) {
	e := newTestEnv(t)
	oldFolder := e.installed(t, "Lib.2", "1.0.0", true)

	for _, ver := range []string{"1.0.0", "0.9.0"} {
		e.offer("Lib.2", ver)
		res, err := e.installer.Install(context.Background(), fullInstall("Lib.2"))
		require.NoError(t, err)
		assert.True(t, IsNotRequired(res), ver+": "+res.String())
	}
	assert.Empty(t, e.scripts.calls)

	e.offer("Lib.2", "2.0.0")
	res, err := e.installer.Install(context.Background(), fullInstall("Lib.2"))
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.String())
	assert.Equal(t, "Lib.2.2.0.0", res.Artefact())
	assert.Equal(t, []string{"Lib.2.1.0.0/Remove.sh", "Lib.2.2.0.0/Deploy.sh"}, e.scripts.names())
	assert.NoDirExists(t, oldFolder)
	assert.Equal(t, []registry.PackageInfo{{Id: "Lib.2", Version: "2.0.0"}}, e.registryContent(t))
}

func TestInstall_UpdateModeKeepsOldFolder(t *testing.T) {
	e := newTestEnv(t)
	oldFolder := e.installed(t, "Package.A", "1.0.0", true)
	e.offer("Package.A", "1.1.0")

	res, err := e.installer.Install(context.Background(), InstallRequest{PackageId: "Package.A", Mode: models.Update})
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.String())
	assert.DirExists(t, oldFolder)
	assert.Equal(t, []string{"Package.A.1.1.0/Deploy.sh"}, e.scripts.names())
	assert.Equal(t, "Update", e.scripts.calls[0].params[DeploymentTypeParam])
	assert.Equal(t, []registry.PackageInfo{{Id: "Package.A", Version: "1.1.0"}}, e.registryContent(t))
}

func TestInstall_ForceReinstallsSameVersion(t *testing.T) {
	e := newTestEnv(t)
	e.installed(t, "Package.A", "1.0.0", true)
	e.offer("Package.A", "1.0.0")

	req := fullInstall("Package.A")
	req.Force = true
	res, err := e.installer.Install(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.String())
	assert.Equal(t, []string{"Package.A.1.0.0/Remove.sh", "Package.A.1.0.0/Deploy.sh"}, e.scripts.names())
	assert.Equal(t, []registry.PackageInfo{{Id: "Package.A", Version: "1.0.0"}}, e.registryContent(t))
}

func TestInstall_UninstallFailureAborts(t *testing.T) {
	e := newTestEnv(t)
	e.installed(t, "Package.A", "1.0.0", true)
	e.offer("Package.A", "2.0.0")
	scriptFailure := result.NewFailure("script 'Remove.sh' exited with code 3")
	e.scripts.results[testUninstallScript] = scriptFailure

	res, err := e.installer.Install(context.Background(), fullInstall("Package.A"))
	require.NoError(t, err)
	require.True(t, res.IsFailure())
	require.NotNil(t, res.Cause())
	assert.True(t, res.Cause().IsFailure())
	assert.Same(t, scriptFailure, res.Root())
	assert.Empty(t, e.extractor.calls)
	assert.Equal(t, []registry.PackageInfo{{Id: "Package.A", Version: "1.0.0"}}, e.registryContent(t))
}

func TestInstall_UninstallFailureIgnoredWhenForced(t *testing.T) {
	e := newTestEnv(t)
	e.installed(t, "Package.A", "1.0.0", true)
	e.offer("Package.A", "2.0.0")
	e.scripts.results[testUninstallScript] = result.NewFailure("exit code 3")

	req := fullInstall("Package.A")
	req.Force = true
	res, err := e.installer.Install(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.String())
	assert.Equal(t, []registry.PackageInfo{{Id: "Package.A", Version: "2.0.0"}}, e.registryContent(t))
}

func TestInstall_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(e *testEnv)
		message string
	}{
		{
			name:    "no repository",
			setup:   func(e *testEnv) { e.repo.sources = nil },
			message: "no repository configured",
		},
		{
			name:    "package not found lists sources",
			setup:   func(e *testEnv) { delete(e.repo.packages, "Package.A") },
			message: "not found in /srv/feed",
		},
		{
			name:    "repository error",
			setup:   func(e *testEnv) { e.repo.findErr = errors.New("offline") },
			message: "offline",
		},
		{
			name:    "extraction",
			setup:   func(e *testEnv) { e.extractor.err = errors.New("corrupt archive") },
			message: "extraction of 'Package.A.1.0.0' failed",
		},
		{
			name:    "system settings",
			setup:   func(e *testEnv) { e.transformer.settingsResult = result.NewFailure("profile 'prod' not found") },
			message: "system settings transformation",
		},
		{
			name:    "configuration files",
			setup:   func(e *testEnv) { e.transformer.configResult = result.NewFailure("broken yaml") },
			message: "configuration file transformation",
		},
		{
			name:    "missing install script",
			setup:   func(e *testEnv) { e.extractor.withoutScript = true },
			message: "install script 'Deploy.sh' not found",
		},
		{
			name:    "install script fails",
			setup:   func(e *testEnv) { e.scripts.results[testInstallScript] = result.NewFailure("exit code 1") },
			message: "install script of 'Package.A.1.0.0' failed",
		},
		{
			name:    "registry save fails",
			setup:   func(e *testEnv) { e.store.saveErr = errors.New("read-only") },
			message: "could not add 'Package.A.1.0.0' to the registry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.offer("Package.A", "1.0.0")
			tt.setup(e)

			res, err := e.installer.Install(context.Background(), fullInstall("Package.A"))
			require.NoError(t, err)
			require.True(t, res.IsFailure())
			assert.Contains(t, res.String(), tt.message)
		})
	}
}

func TestInstall_WrapsTransformerResult(t *testing.T) {
	e := newTestEnv(t)
	e.offer("Package.A", "1.0.0")
	inner := result.NewFailure("profile 'prod' not found")
	e.transformer.settingsResult = inner

	req := fullInstall("Package.A")
	req.SystemSettingProfiles = []string{"prod"}
	req.BuildConfigurationProfiles = []string{"release"}
	res, err := e.installer.Install(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, inner, res.Cause())
	assert.Equal(t, []string{"prod"}, e.transformer.profiles)
	assert.Empty(t, e.registryContent(t))
}

func TestInstall_Preconditions(t *testing.T) {
	e := newTestEnv(t)
	e.offer("Package.A", "1.0.0")

	_, err := e.installer.Install(context.Background(), InstallRequest{PackageId: "", Mode: models.Full})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.installer.Install(context.Background(), InstallRequest{PackageId: "Package.A", Mode: models.NotRecognized})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, e.extractor.calls)
}

func TestInstall_ExtractedFolderKeptOnLaterFailure(t *testing.T) {
	e := newTestEnv(t)
	e.offer("Package.A", "1.0.0")
	e.scripts.results[testInstallScript] = result.NewFailure("exit code 1")

	res, err := e.installer.Install(context.Background(), fullInstall("Package.A"))
	require.NoError(t, err)
	require.True(t, res.IsFailure())
	_, statErr := os.Stat(filepath.Join(e.root, "Package.A.1.0.0"))
	assert.NoError(t, statErr)
}
