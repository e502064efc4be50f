package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nudeploy/internal/logger"
	"nudeploy/internal/models"
	"nudeploy/internal/registry"
	"nudeploy/internal/utils"
)

type installedLister interface {
	GetInstalledPackages() ([]registry.PackageInfo, error)
}

/**
 * Status provider derives installed package records from the packages folder
 * and the registry
 */
type StatusProvider struct {
	registry     installedLister
	packagesRoot string
	sys          System
}

func NewStatusProvider(reg installedLister, packagesRoot string, sys System) *StatusProvider {
	return &StatusProvider{registry: reg, packagesRoot: packagesRoot, sys: sys}
}

func (s *StatusProvider) PackagesRoot() string {
	return s.packagesRoot
}

/**
 * Get installed versions of one package
 * @param {string} packageId - Package id, compared case-insensitively
 * @returns {[]models.InstalledPackage} One record per version folder, lowest version first
 * @description
 * - Folders are matched as "<packageId>.<Version>", so ids ending in a
 *   numeric segment ("Lib.2") are not mistaken for versions
 * @throws
 * - ErrInvalidArgument if packageId is blank
 */
func (s *StatusProvider) GetPackageInfo(packageId string) ([]models.InstalledPackage, error) {
	if strings.TrimSpace(packageId) == "" {
		return nil, fmt.Errorf("%w: package id is required", ErrInvalidArgument)
	}
	all, err := s.list(packageId)
	if err != nil {
		return nil, err
	}
	var records []models.InstalledPackage
	for _, p := range all {
		if strings.EqualFold(p.Id, packageId) {
			records = append(records, p)
		}
	}
	return records, nil
}

/**
 * Get installed versions of all packages
 * @returns {[]models.InstalledPackage} Records sorted by id, then version
 * @description
 * - Every "<Id>.<Version>" folder below the packages root is a record
 * - Folder names are resolved against the registered ids first, the
 *   longest matching id wins
 * - A record is active when the registry holds the same id and version;
 *   at most one record per id is active
 * - A missing packages root means nothing is installed
 */
func (s *StatusProvider) GetAllPackages() ([]models.InstalledPackage, error) {
	return s.list()
}

func (s *StatusProvider) list(extraIds ...string) ([]models.InstalledPackage, error) {
	entries, err := s.sys.ReadDir(s.packagesRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.InstalledPackage{}, nil
		}
		return nil, fmt.Errorf("read packages folder '%s': %w", s.packagesRoot, err)
	}
	registered, err := s.registry.GetInstalledPackages()
	if err != nil {
		return nil, err
	}
	byId := make(map[string]registry.PackageInfo, len(registered))
	knownIds := append([]string{}, extraIds...)
	for _, p := range registered {
		byId[strings.ToLower(p.Id)] = p
		knownIds = append(knownIds, p.Id)
	}

	records := make([]models.InstalledPackage, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		id, ver, ok := utils.ResolvePackageFolderName(e.Name(), knownIds...)
		if !ok {
			logger.Debugf("Status: ignoring folder '%s'", e.Name())
			continue
		}
		records = append(records, models.InstalledPackage{
			Id:      id,
			Version: ver,
			Folder:  filepath.Join(s.packagesRoot, e.Name()),
		})
	}
	markActive(records, byId)

	sort.SliceStable(records, func(i, j int) bool {
		a, b := strings.ToLower(records[i].Id), strings.ToLower(records[j].Id)
		if a != b {
			return a < b
		}
		return records[i].Version.LessThan(records[j].Version)
	})
	return records, nil
}

// markActive flags the record matching the registry entry of its id. An
// exact text match beats a numerically equal version ("1.0" vs "1.0.0").
func markActive(records []models.InstalledPackage, byId map[string]registry.PackageInfo) {
	best := make(map[string]int)
	exact := make(map[string]bool)
	for i, r := range records {
		key := strings.ToLower(r.Id)
		entry, ok := byId[key]
		if !ok {
			continue
		}
		regVer, err := utils.ParseVersion(entry.Version)
		if err != nil || !regVer.Equal(r.Version) {
			continue
		}
		isExact := strings.EqualFold(r.Version.Original(), entry.Version)
		if _, seen := best[key]; !seen || (isExact && !exact[key]) {
			best[key] = i
			exact[key] = isExact
		}
	}
	for _, i := range best {
		records[i].IsActive = true
	}
}

// ActiveRecord returns the active record among records.
func ActiveRecord(records []models.InstalledPackage) (models.InstalledPackage, bool) {
	for _, r := range records {
		if r.IsActive {
			return r, true
		}
	}
	return models.InstalledPackage{}, false
}
