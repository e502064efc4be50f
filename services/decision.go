package services

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"

	"nudeploy/internal/logger"
	"nudeploy/internal/models"
)

/**
 * Decision engine answers whether an install or uninstall is needed, based on
 * the currently active version of a package
 */
type DecisionEngine struct {
	status PackageStatusProvider
}

func NewDecisionEngine(status PackageStatusProvider) *DecisionEngine {
	return &DecisionEngine{status: status}
}

func checkArguments(packageId string, candidate *version.Version) error {
	if strings.TrimSpace(packageId) == "" {
		return fmt.Errorf("%w: package id is required", ErrInvalidArgument)
	}
	if candidate == nil {
		return fmt.Errorf("%w: candidate version is required", ErrInvalidArgument)
	}
	return nil
}

/**
 * Decide whether candidate must be installed
 * @param {string} packageId - Package id
 * @param {*version.Version} candidate - Version offered by the repository
 * @param {bool} force - Install even if the same or a newer version is active
 * @returns {bool} true if installation is required
 * @description
 * - Never downgrades unless forced
 * @throws
 * - ErrInvalidArgument for a blank id or a nil candidate
 */
func (d *DecisionEngine) IsInstallRequired(packageId string, candidate *version.Version, force bool) (bool, error) {
	if err := checkArguments(packageId, candidate); err != nil {
		return false, err
	}
	if force {
		return true, nil
	}
	records, err := d.status.GetPackageInfo(packageId)
	if err != nil {
		return false, err
	}
	active, ok := ActiveRecord(records)
	if !ok {
		return true, nil
	}
	if active.Version.GreaterThanOrEqual(candidate) {
		logger.Infof("Decision: '%s' %s is active, %s is not newer", packageId, active.Version.Original(), candidate.Original())
		return false, nil
	}
	return true, nil
}

/**
 * Decide whether the active version must be uninstalled before installing candidate
 * @param {models.DeploymentMode} mode - Update mode installs over the active version
 * @returns {bool} true if the active version must be removed first
 * @throws
 * - ErrInvalidArgument for a blank id or a nil candidate
 */
func (d *DecisionEngine) IsUninstallRequired(packageId string, candidate *version.Version, mode models.DeploymentMode, force bool) (bool, error) {
	if err := checkArguments(packageId, candidate); err != nil {
		return false, err
	}
	if mode == models.Update {
		return false, nil
	}
	records, err := d.status.GetPackageInfo(packageId)
	if err != nil {
		return false, err
	}
	active, ok := ActiveRecord(records)
	if !ok {
		return false, nil
	}
	if force {
		return true, nil
	}
	return active.Version.LessThan(candidate), nil
}
