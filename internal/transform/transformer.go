// Package transform applies profile and build-configuration overlays to the
// YAML files of an extracted package.
package transform

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"nudeploy/internal/logger"
	"nudeploy/internal/result"
)

const SystemSettingsName = "systemsettings"

var yamlExts = []string{".yaml", ".yml"}

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

func findYAML(dir, name string) (string, bool) {
	for _, ext := range yamlExts {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

/**
 * Apply system setting profiles
 * @param {string} folder - Package folder
 * @param {[]string} profiles - Profile names, applied in order
 * @returns {*result.Result} Success, or Failure naming the missing or broken file
 * @description
 * - Each profile overlays "systemsettings.<profile>.yaml" onto "systemsettings.yaml"
 * - With no profiles nothing is touched
 */
func (t *Transformer) TransformSystemSettings(folder string, profiles []string) *result.Result {
	if len(profiles) == 0 {
		return result.NewSuccess("no system setting profiles to apply")
	}
	base, ok := findYAML(folder, SystemSettingsName)
	if !ok {
		return result.NewFailure("system settings file '%s.yaml' not found in '%s'", SystemSettingsName, folder)
	}
	for _, profile := range profiles {
		profile = strings.TrimSpace(profile)
		if profile == "" {
			continue
		}
		overlay, ok := findYAML(folder, SystemSettingsName+"."+profile)
		if !ok {
			return result.NewFailure("system settings profile '%s' not found in '%s'", profile, folder)
		}
		if err := MergeFiles(base, overlay); err != nil {
			return result.NewFailure("apply system settings profile '%s': %v", profile, err)
		}
		logger.Infof("Transform: applied system settings profile '%s'", profile)
	}
	return result.NewSuccess("applied %d system setting profile(s)", len(profiles))
}

/**
 * Apply build configuration overlays to every YAML file of the package
 * @param {string} folder - Package folder
 * @param {[]string} buildConfigurations - Build configuration names, applied in order
 * @returns {*result.Result} Success with the number of merged files, or Failure
 * @description
 * - "<name>.<config>.yaml" is merged into "<name>.yaml" in the same directory
 * - Overlays without a base file are skipped
 * - System setting files are left to TransformSystemSettings
 */
func (t *Transformer) TransformConfigurationFiles(folder string, buildConfigurations []string) *result.Result {
	if len(buildConfigurations) == 0 {
		return result.NewSuccess("no build configurations to apply")
	}
	merged := 0
	for _, bc := range buildConfigurations {
		bc = strings.TrimSpace(bc)
		if bc == "" {
			continue
		}
		var failure *result.Result
		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := filepath.Ext(d.Name())
			if !isYAMLExt(ext) {
				return nil
			}
			stem := strings.TrimSuffix(d.Name(), ext)
			suffix := "." + bc
			if !strings.HasSuffix(strings.ToLower(stem), strings.ToLower(suffix)) {
				return nil
			}
			name := stem[:len(stem)-len(suffix)]
			if name == "" || strings.EqualFold(name, SystemSettingsName) {
				return nil
			}
			base, ok := findYAML(filepath.Dir(path), name)
			if !ok {
				logger.Warnf("Transform: no base file for overlay '%s', skipped", path)
				return nil
			}
			if err := MergeFiles(base, path); err != nil {
				failure = result.NewFailure("apply build configuration '%s' to '%s': %v", bc, base, err)
				return fs.SkipAll
			}
			logger.Debugf("Transform: merged '%s' into '%s'", path, base)
			merged++
			return nil
		})
		if failure != nil {
			return failure
		}
		if err != nil {
			return result.NewFailure("apply build configuration '%s': %v", bc, err)
		}
	}
	return result.NewSuccess("merged %d configuration file(s)", merged)
}

func isYAMLExt(ext string) bool {
	for _, e := range yamlExts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
