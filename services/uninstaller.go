package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"

	"nudeploy/internal/logger"
	"nudeploy/internal/models"
	"nudeploy/internal/result"
	"nudeploy/internal/utils"
)

/**
 * Uninstaller removes an installed package version: it runs the package's
 * uninstall script, drops the registry entry and deletes the package folder
 */
type Uninstaller struct {
	status     PackageStatusProvider
	registry   PackageRegistry
	scripts    ScriptRuntime
	sys        System
	scriptName string
}

func NewUninstaller(status PackageStatusProvider, reg PackageRegistry, scripts ScriptRuntime, sys System, scriptName string) *Uninstaller {
	return &Uninstaller{
		status:     status,
		registry:   reg,
		scripts:    scripts,
		sys:        sys,
		scriptName: scriptName,
	}
}

/**
 * Uninstall a package
 * @param {context.Context} ctx - Context passed to the script runtime
 * @param {string} packageId - Package id
 * @param {*version.Version} ver - Exact version to remove, nil for the active one
 * @returns {*result.Result} Success with artefact "<Id>.<Version>", or Failure
 * @description
 * - Steps: resolve target, locate script, run script, remove registry entry, delete folder
 * - The first failing step stops the pipeline; earlier steps are not undone
 * @throws
 * - ErrInvalidArgument if packageId is blank
 */
func (u *Uninstaller) Uninstall(ctx context.Context, packageId string, ver *version.Version) (*result.Result, error) {
	if strings.TrimSpace(packageId) == "" {
		return nil, fmt.Errorf("%w: package id is required", ErrInvalidArgument)
	}

	target, res := u.resolve(packageId, ver)
	if res != nil {
		return res, nil
	}
	name := utils.PackageFolderName(target.Id, target.Version)
	logger.Infof("Uninstall: removing '%s' from '%s'", name, target.Folder)

	scriptPath := filepath.Join(target.Folder, u.scriptName)
	if info, err := u.sys.Stat(scriptPath); err != nil || info.IsDir() {
		return result.NewFailure("uninstall script '%s' not found for '%s'", u.scriptName, name), nil
	}

	scriptResult := u.scripts.Execute(ctx, scriptPath, nil)
	if !scriptResult.IsSuccess() {
		logger.Errorf("Uninstall: script of '%s' failed: %s", name, scriptResult)
		return result.NewFailure("uninstall script of '%s' failed", name).WithCause(scriptResult), nil
	}

	removed, err := u.registry.Remove(target.Id)
	if err != nil || !removed {
		logger.Errorf("Uninstall: registry entry of '%s' could not be removed (err=%v)", name, err)
		return result.NewFailure("could not remove '%s' from the registry", name), nil
	}

	if err := u.sys.RemoveAll(target.Folder); err != nil {
		logger.Errorf("Uninstall: delete '%s' failed: %v", target.Folder, err)
		return result.NewFailure("could not delete package folder '%s': %v", target.Folder, err), nil
	}

	logger.Infof("Uninstall: '%s' removed", name)
	return result.NewSuccess("package '%s' uninstalled", name).WithArtefact(name), nil
}

func (u *Uninstaller) resolve(packageId string, ver *version.Version) (models.InstalledPackage, *result.Result) {
	records, err := u.status.GetPackageInfo(packageId)
	if err != nil {
		return models.InstalledPackage{}, result.NewFailure("could not read installation status of '%s': %v", packageId, err)
	}
	if ver == nil {
		if active, ok := ActiveRecord(records); ok {
			return active, nil
		}
		return models.InstalledPackage{}, result.NewFailure("package '%s' is not installed", packageId)
	}
	for _, r := range records {
		if r.Version.Equal(ver) {
			return r, nil
		}
	}
	return models.InstalledPackage{}, result.NewFailure("package '%s' version %s is not installed", packageId, ver.Original())
}
