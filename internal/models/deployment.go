package models

import "strings"

// DeploymentMode selects how an installation treats an already installed version
type DeploymentMode int

const (
	NotRecognized DeploymentMode = iota
	Full
	Update
)

func (m DeploymentMode) String() string {
	switch m {
	case Full:
		return "Full"
	case Update:
		return "Update"
	default:
		return "NotRecognized"
	}
}

// ParseDeploymentMode is case-insensitive; unknown names yield NotRecognized
func ParseDeploymentMode(s string) DeploymentMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return Full
	case "update":
		return Update
	default:
		return NotRecognized
	}
}
