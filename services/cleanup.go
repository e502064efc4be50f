package services

import (
	"fmt"
	"strings"

	"nudeploy/internal/logger"
	"nudeploy/internal/models"
	"nudeploy/internal/result"
	"nudeploy/internal/utils"
)

/**
 * Cleaner deletes installed version folders that are not the active version
 * of their package
 */
type Cleaner struct {
	status PackageStatusProvider
	sys    System
}

func NewCleaner(status PackageStatusProvider, sys System) *Cleaner {
	return &Cleaner{status: status, sys: sys}
}

/**
 * Remove inactive package folders
 * @param {string} packageId - Restrict to one package, empty for all packages
 * @returns {*result.Result} NoResult if nothing to remove, Success listing the
 *   removed folders, or Failure if any folder could not be deleted
 */
func (c *Cleaner) Cleanup(packageId string) (*result.Result, error) {
	var records []models.InstalledPackage
	var err error
	if strings.TrimSpace(packageId) == "" {
		records, err = c.status.GetAllPackages()
	} else {
		records, err = c.status.GetPackageInfo(packageId)
	}
	if err != nil {
		return result.NewFailure("could not read installation status: %v", err), nil
	}

	var removed, failed []string
	for _, r := range records {
		if r.IsActive {
			continue
		}
		name := utils.PackageFolderName(r.Id, r.Version)
		if err := c.sys.RemoveAll(r.Folder); err != nil {
			logger.Errorf("Cleanup: delete '%s' failed: %v", r.Folder, err)
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		logger.Infof("Cleanup: deleted '%s'", r.Folder)
		removed = append(removed, name)
	}

	if len(failed) > 0 {
		return result.NewFailure("could not delete %d folder(s)", len(failed)).
			WithCause(result.NewFailure("%s", strings.Join(failed, "; "))), nil
	}
	if len(removed) == 0 {
		return result.NewNoResult("nothing to clean up"), nil
	}
	return result.NewSuccess("removed %s", strings.Join(removed, ", ")).
		WithArtefact(strings.Join(removed, ",")), nil
}
