package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
)

// MaxVersionSegments is the number of numeric parts of a package version
// (major.minor.build.revision).
const MaxVersionSegments = 4

/**
 * Parse version string into a comparable version
 * @param {string} verstr - Version string such as "1.2", "1.2.3" or "1.2.3.4"
 * @returns {*version.Version} Parsed version, missing segments compare as zero
 * @description
 * - Accepts one to four numeric segments and an optional pre-release suffix
 * - Keeps the original text, which is used for folder names and the registry
 * @throws
 * - Empty or malformed version strings
 * - Versions with more than four numeric segments
 */
func ParseVersion(verstr string) (*version.Version, error) {
	verstr = strings.TrimSpace(verstr)
	if verstr == "" {
		return nil, fmt.Errorf("invalid version: empty string")
	}
	ver, err := version.NewVersion(verstr)
	if err != nil {
		return nil, fmt.Errorf("invalid version '%s': %v", verstr, err)
	}
	if countSegments(verstr) > MaxVersionSegments {
		return nil, fmt.Errorf("invalid version '%s': more than %d segments", verstr, MaxVersionSegments)
	}
	return ver, nil
}

// MustParseVersion is ParseVersion for constants and tests.
func MustParseVersion(verstr string) *version.Version {
	ver, err := ParseVersion(verstr)
	if err != nil {
		panic(err)
	}
	return ver
}

// PrintVersion returns the version text as it was written by the package author.
func PrintVersion(ver *version.Version) string {
	if ver == nil {
		return ""
	}
	return ver.Original()
}

func countSegments(verstr string) int {
	core := strings.TrimPrefix(verstr, "v")
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	return len(strings.Split(core, "."))
}

/**
 * Split an installed package folder name into package id and version
 * @param {string} name - Folder name following the "<Id>.<Version>" convention
 * @returns {string} Package id
 * @returns {*version.Version} Package version
 * @returns {bool} false if the name does not follow the convention
 * @description
 * - Tries every dot from left to right; the first suffix that parses as a
 *   version wins, so "Package.A.1.0.0" yields ("Package.A", 1.0.0)
 */
func ParsePackageFolderName(name string) (string, *version.Version, bool) {
	for i := 0; i < len(name); i++ {
		if name[i] != '.' || i == 0 || i == len(name)-1 {
			continue
		}
		id, verstr := name[:i], name[i+1:]
		ver, err := ParseVersion(verstr)
		if err != nil {
			continue
		}
		return id, ver, true
	}
	return "", nil, false
}

/**
 * Split a package folder name whose package id may be known
 * @param {string} name - Folder or archive base name "<Id>.<Version>"
 * @param {[]string} knownIds - Candidate ids, compared case-insensitively
 * @returns {string} Package id, with the casing used in name
 * @returns {*version.Version} Package version
 * @returns {bool} false if the name does not follow the convention
 * @description
 * - The longest known id that prefixes name and leaves a valid version wins,
 *   so "Lib.2.1.0.0" yields ("Lib.2", 1.0.0) when "Lib.2" is known
 * - Falls back to ParsePackageFolderName when no known id matches
 */
func ResolvePackageFolderName(name string, knownIds ...string) (string, *version.Version, bool) {
	ids := make([]string, 0, len(knownIds))
	for _, id := range knownIds {
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool { return len(ids[i]) > len(ids[j]) })
	for _, id := range ids {
		if ver, ok := ParsePackageVersion(name, id); ok {
			return name[:len(id)], ver, true
		}
	}
	return ParsePackageFolderName(name)
}

// ParsePackageVersion returns the version of name if it is "<packageId>.<Version>"
func ParsePackageVersion(name, packageId string) (*version.Version, bool) {
	n := len(packageId)
	if n == 0 || len(name) <= n+1 || name[n] != '.' || !strings.EqualFold(name[:n], packageId) {
		return nil, false
	}
	ver, err := ParseVersion(name[n+1:])
	if err != nil {
		return nil, false
	}
	return ver, true
}

// PackageFolderName builds the "<Id>.<Version>" directory name.
func PackageFolderName(id string, ver *version.Version) string {
	return fmt.Sprintf("%s.%s", id, PrintVersion(ver))
}
