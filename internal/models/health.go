package models

// HealthResponse 健康检查响应结构
// @Description 健康检查API响应数据结构
type HealthResponse struct {
	Version   string  `json:"version" example:"1.0.0"`
	StartTime string  `json:"startTime" example:"2024-01-01T10:00:00Z"`
	Status    string  `json:"status" example:"UP"`
	Uptime    string  `json:"uptime" example:"1h30m45s"`
	Metrics   Metrics `json:"metrics"`
}

// Metrics 关键指标结构
type Metrics struct {
	TotalRequests     int64 `json:"totalRequests" example:"1000"`
	ErrorRequests     int64 `json:"errorRequests" example:"5"`
	InstalledPackages int   `json:"installedPackages" example:"3"`
	Sources           int   `json:"sources" example:"1"`
}
