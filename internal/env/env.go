package env

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the nudeploy home directory
const HomeEnv = "NUDEPLOY_HOME"

// (default: %USERPROFILE%/.nudeploy on Windows, $HOME/.nudeploy on Linux)
var NuDeployDir string = GetNuDeployDir()

/**
 * Get nudeploy home directory path
 * @returns {string} Returns $NUDEPLOY_HOME when set, else <user home>/.nudeploy
 */
func GetNuDeployDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".nudeploy"
	}
	return filepath.Join(homeDir, ".nudeploy")
}

// Version of the running binary, reported by /healthz
var Version = "dev"
