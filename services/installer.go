package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"nudeploy/internal/logger"
	"nudeploy/internal/models"
	"nudeploy/internal/registry"
	"nudeploy/internal/result"
	"nudeploy/internal/utils"
)

// DeploymentTypeParam names the deployment mode parameter of install scripts
const DeploymentTypeParam = "DeploymentType"

// IsNotRequired reports whether res is the outcome of an install that was
// skipped because the offered version is not newer than the installed one.
func IsNotRequired(res *result.Result) bool {
	return res.IsFailure() && res.IsSkipped()
}

/**
 * Install request
 * @property {string} PackageId - Package to install
 * @property {models.DeploymentMode} Mode - Full or Update
 * @property {bool} Force - Bypass the version gate and tolerate uninstall failures
 * @property {[]string} SystemSettingProfiles - System setting profiles, in order
 * @property {[]string} BuildConfigurationProfiles - Build configurations, in order
 */
type InstallRequest struct {
	PackageId                  string
	Mode                       models.DeploymentMode
	Force                      bool
	SystemSettingProfiles      []string
	BuildConfigurationProfiles []string
}

// InstallerDeps are the collaborators of an Installer
type InstallerDeps struct {
	Repository   RepositoryBrowser
	Extractor    PackageExtractor
	Transformer  SettingsTransformer
	Scripts      ScriptRuntime
	Registry     PackageRegistry
	Decision     *DecisionEngine
	Uninstaller  *Uninstaller
	System       System
	PackagesRoot string
	ScriptName   string
}

type Installer struct {
	InstallerDeps
}

func NewInstaller(deps InstallerDeps) *Installer {
	return &Installer{InstallerDeps: deps}
}

/**
 * Install the latest version of a package
 * @param {context.Context} ctx - Context for fetch and script execution
 * @param {InstallRequest} req - What to install and how
 * @returns {*result.Result} Success with artefact "<Id>.<Version>", or the Failure of the first failing step
 * @description
 * - Steps: repository check, find package, install decision, uninstall of the
 *   superseded version, extract, system settings, configuration files,
 *   locate script, run script, registry update
 * - Operational problems are Failure results, never errors
 * @throws
 * - ErrInvalidArgument for a blank package id or an unrecognized mode
 */
func (i *Installer) Install(ctx context.Context, req InstallRequest) (*result.Result, error) {
	if strings.TrimSpace(req.PackageId) == "" {
		return nil, fmt.Errorf("%w: package id is required", ErrInvalidArgument)
	}
	if req.Mode == models.NotRecognized {
		return nil, fmt.Errorf("%w: deployment mode is not recognized", ErrInvalidArgument)
	}
	id := req.PackageId

	sources, err := i.Repository.Sources()
	if err != nil {
		return result.NewFailure("could not read repository configuration: %v", err), nil
	}
	if len(sources) == 0 {
		return result.NewFailure("no repository configured"), nil
	}

	pkg, found, err := i.Repository.FindPackage(ctx, id)
	if err != nil {
		return result.NewFailure("could not search the repositories for '%s': %v", id, err), nil
	}
	if !found || pkg == nil {
		urls := make([]string, 0, len(sources))
		for _, s := range sources {
			urls = append(urls, s.Url)
		}
		return result.NewFailure("package '%s' not found in %s", id, strings.Join(urls, ", ")), nil
	}
	name := pkg.String()
	logger.Infof("Install: found '%s' in source '%s'", name, pkg.Source)

	required, err := i.Decision.IsInstallRequired(pkg.Id, pkg.Version, req.Force)
	if err != nil {
		return result.NewFailure("could not decide whether '%s' must be installed: %v", name, err), nil
	}
	if !required {
		return result.NewSkipped("installation of '%s' not required", name), nil
	}

	uninstall, err := i.Decision.IsUninstallRequired(pkg.Id, pkg.Version, req.Mode, req.Force)
	if err != nil {
		return result.NewFailure("could not decide whether '%s' must be uninstalled first: %v", id, err), nil
	}
	if uninstall {
		logger.Infof("Install: removing the active version of '%s' first", id)
		uninstallResult, err := i.Uninstaller.Uninstall(ctx, pkg.Id, nil)
		if err != nil {
			uninstallResult = result.NewFailure("%v", err)
		}
		if !uninstallResult.IsSuccess() {
			if !req.Force {
				return result.NewFailure("uninstall of the active version of '%s' failed", id).WithCause(uninstallResult), nil
			}
			logger.Warnf("Install: uninstall of '%s' failed, continuing because of force: %s", id, uninstallResult)
		}
	}

	folder, err := i.Extractor.Extract(ctx, pkg, i.PackagesRoot)
	if err != nil || folder == "" {
		failure := result.NewFailure("extraction of '%s' failed", name)
		if err != nil {
			failure = failure.WithCause(result.NewFailure("%v", err))
		}
		return failure, nil
	}

	if res := i.Transformer.TransformSystemSettings(folder, req.SystemSettingProfiles); !res.IsSuccess() {
		return result.NewFailure("system settings transformation of '%s' failed", name).WithCause(res), nil
	}
	if res := i.Transformer.TransformConfigurationFiles(folder, req.BuildConfigurationProfiles); !res.IsSuccess() {
		return result.NewFailure("configuration file transformation of '%s' failed", name).WithCause(res), nil
	}

	scriptPath := filepath.Join(folder, i.ScriptName)
	if info, err := i.System.Stat(scriptPath); err != nil || info.IsDir() {
		return result.NewFailure("install script '%s' not found in '%s'", i.ScriptName, folder), nil
	}

	params := map[string]string{DeploymentTypeParam: req.Mode.String()}
	if res := i.Scripts.Execute(ctx, scriptPath, params); !res.IsSuccess() {
		return result.NewFailure("install script of '%s' failed", name).WithCause(res), nil
	}

	entry := registry.PackageInfo{Id: pkg.Id, Version: utils.PrintVersion(pkg.Version)}
	if saved, err := i.Registry.AddOrUpdate(entry); err != nil || !saved {
		return result.NewFailure("could not add '%s' to the registry", name), nil
	}

	logger.Infof("Install: '%s' installed (%s)", name, req.Mode)
	return result.NewSuccess("package '%s' installed", name).WithArtefact(name), nil
}
