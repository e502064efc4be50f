package models

// InstallRequest is the body of POST /packages/:id/install
type InstallRequest struct {
	Mode                string   `json:"mode" example:"full"`
	Force               bool     `json:"force"`
	Profiles            []string `json:"profiles"`
	BuildConfigurations []string `json:"buildConfigurations"`
}

// UninstallRequest carries the optional version of DELETE /packages/:id
type UninstallRequest struct {
	Version string `form:"version" json:"version"`
}

// CleanupRequest is the body of POST /cleanup
type CleanupRequest struct {
	PackageId string `json:"packageId"`
}

/**
 * Pipeline outcome (serialized to JSON format)
 * @property {string} status - Success, Failure or NoResult
 * @property {string} message - Outcome message
 * @property {string} artefact - <Id>.<Version> on success
 * @property {[]string} causes - Messages of the cause chain, outermost first
 * @property {bool} skipped - Install not required, the installed version is current
 */
type ResultResponse struct {
	RunId    string   `json:"runId,omitempty"`
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	Artefact string   `json:"artefact,omitempty"`
	Causes   []string `json:"causes,omitempty"`
	Skipped  bool     `json:"skipped,omitempty"`
	Duration string   `json:"duration,omitempty"`
}

// HistoryEntry is one recorded pipeline run
type HistoryEntry struct {
	Id        string `json:"id"`
	Operation string `json:"operation"`
	PackageId string `json:"packageId"`
	Version   string `json:"version,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	StartedAt string `json:"startedAt"`
	Duration  string `json:"duration"`
}
