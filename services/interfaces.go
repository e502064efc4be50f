package services

import (
	"context"

	"nudeploy/internal/models"
	"nudeploy/internal/registry"
	"nudeploy/internal/repository"
	"nudeploy/internal/result"
)

// ErrInvalidArgument reports a precondition violation by the caller.
var ErrInvalidArgument = registry.ErrInvalidArgument

// RepositoryBrowser locates packages in the configured sources.
type RepositoryBrowser interface {
	Sources() ([]models.PackageSource, error)
	FindPackage(ctx context.Context, packageId string) (*repository.Package, bool, error)
}

// PackageExtractor unpacks a package into "<packagesRoot>/<Id>.<Version>"
// and returns that folder.
type PackageExtractor interface {
	Extract(ctx context.Context, pkg *repository.Package, packagesRoot string) (string, error)
}

// ScriptRuntime runs a package script with named parameters.
type ScriptRuntime interface {
	Execute(ctx context.Context, scriptPath string, params map[string]string) *result.Result
}

// SettingsTransformer applies system setting profiles and build
// configuration overlays to an extracted package.
type SettingsTransformer interface {
	TransformSystemSettings(folder string, profiles []string) *result.Result
	TransformConfigurationFiles(folder string, buildConfigurations []string) *result.Result
}

// PackageRegistry is the persisted set of installed packages.
type PackageRegistry interface {
	GetInstalledPackages() ([]registry.PackageInfo, error)
	AddOrUpdate(pkg registry.PackageInfo) (bool, error)
	Remove(packageId string) (bool, error)
}

// PackageStatusProvider reports the installed versions of packages.
type PackageStatusProvider interface {
	GetPackageInfo(packageId string) ([]models.InstalledPackage, error)
	GetAllPackages() ([]models.InstalledPackage, error)
}
