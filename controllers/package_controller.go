package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nudeploy/internal/models"
	"nudeploy/services"
)

type PackageController struct {
	deployer *services.Deployer
}

/**
 * Create new package controller instance
 * @param {*services.Deployer} deployer - Deployer running install, uninstall and cleanup
 * @returns {*PackageController} New package controller instance
 */
func NewPackageController(deployer *services.Deployer) *PackageController {
	return &PackageController{
		deployer: deployer,
	}
}

/**
 * Register package routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers routes for:
 *   - Package status (list/get)
 *   - Pipelines (install/uninstall/cleanup)
 *   - Run history
 */
func (p *PackageController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/nudeploy/api/v1")
	api.GET("/packages", p.ListPackages)
	api.GET("/packages/:id", p.GetPackage)
	api.POST("/packages/:id/install", p.InstallPackage)
	api.DELETE("/packages/:id", p.UninstallPackage)
	api.POST("/cleanup", p.Cleanup)
	api.GET("/history", p.ListHistory)
}

// @Summary List installed packages
// @Description Lists every <Id>.<Version> folder under the packages root with its active flag
// @Tags Packages
// @Produce json
// @Success 200 {array} models.PackageDetail
// @Failure 500 {object} models.ErrorResponse
// @Router /nudeploy/api/v1/packages [get]
func (p *PackageController) ListPackages(c *gin.Context) {
	p.renderPackages(c, "")
}

// @Summary Get installed versions of a package
// @Tags Packages
// @Param id path string true "Package id"
// @Produce json
// @Success 200 {array} models.PackageDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /nudeploy/api/v1/packages/{id} [get]
func (p *PackageController) GetPackage(c *gin.Context) {
	p.renderPackages(c, c.Param("id"))
}

func (p *PackageController) renderPackages(c *gin.Context, id string) {
	records, err := p.deployer.Status(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if id != "" && len(records) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:  "package.not_found",
			Error: "package '" + id + "' is not installed",
		})
		return
	}
	details := make([]models.PackageDetail, 0, len(records))
	for _, rec := range records {
		details = append(details, rec.Detail())
	}
	c.JSON(http.StatusOK, details)
}

// @Summary Install the latest version of a package
// @Description Runs the install pipeline. A skipped install is a Failure outcome with status 200
// @Tags Packages
// @Accept json
// @Produce json
// @Param id path string true "Package id"
// @Param request body models.InstallRequest false "Deployment options"
// @Success 200 {object} models.ResultResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ResultResponse
// @Router /nudeploy/api/v1/packages/{id}/install [post]
func (p *PackageController) InstallPackage(c *gin.Context) {
	var body models.InstallRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Code:  "request.invalid",
				Error: err.Error(),
			})
			return
		}
	}
	mode := models.Full
	if body.Mode != "" {
		mode = models.ParseDeploymentMode(body.Mode)
	}
	outcome, err := p.deployer.Install(detached(c), services.InstallRequest{
		PackageId:                  c.Param("id"),
		Mode:                       mode,
		Force:                      body.Force,
		SystemSettingProfiles:      body.Profiles,
		BuildConfigurationProfiles: body.BuildConfigurations,
	})
	p.renderOutcome(c, outcome, err)
}

// @Summary Uninstall a package
// @Description Uninstalls the given version, or the active version when none is given
// @Tags Packages
// @Param id path string true "Package id"
// @Param version query string false "Version to remove"
// @Produce json
// @Success 200 {object} models.ResultResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ResultResponse
// @Router /nudeploy/api/v1/packages/{id} [delete]
func (p *PackageController) UninstallPackage(c *gin.Context) {
	var req models.UninstallRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	outcome, err := p.deployer.Uninstall(detached(c), c.Param("id"), req.Version)
	p.renderOutcome(c, outcome, err)
}

// @Summary Remove inactive package folders
// @Tags Packages
// @Accept json
// @Produce json
// @Param request body models.CleanupRequest false "Restrict to one package"
// @Success 200 {object} models.ResultResponse
// @Failure 422 {object} models.ResultResponse
// @Router /nudeploy/api/v1/cleanup [post]
func (p *PackageController) Cleanup(c *gin.Context) {
	var req models.CleanupRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
			return
		}
	}
	outcome, err := p.deployer.Cleanup(detached(c), req.PackageId)
	p.renderOutcome(c, outcome, err)
}

// @Summary List recorded pipeline runs
// @Tags History
// @Param packageId query string false "Filter by package id"
// @Param limit query int false "Maximum number of runs" default(50)
// @Produce json
// @Success 200 {array} models.HistoryEntry
// @Router /nudeploy/api/v1/history [get]
func (p *PackageController) ListHistory(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "request.invalid", Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	runs, err := p.deployer.History(c.Request.Context(), c.Query("packageId"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	entries := make([]models.HistoryEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, models.HistoryEntry{
			Id:        run.ID,
			Operation: run.Operation,
			PackageId: run.PackageID,
			Version:   run.Version,
			Status:    run.Status,
			Message:   run.Message,
			StartedAt: run.StartedAt.Format(time.RFC3339),
			Duration:  run.Duration.String(),
		})
	}
	c.JSON(http.StatusOK, entries)
}

/**
 * Write a pipeline outcome
 * @description
 * - Precondition errors are 400, other errors 500
 * - Success, NoResult and a skipped install are 200
 * - Any other Failure is 422 with the cause chain in the body
 */
func (p *PackageController) renderOutcome(c *gin.Context, outcome *services.RunOutcome, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp := outcome.Response()
	code := http.StatusOK
	if outcome.Result.IsFailure() && !resp.Skipped {
		code = http.StatusUnprocessableEntity
	}
	c.JSON(code, resp)
}

func abortWithError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidArgument) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:  "request.invalid_argument",
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Code:  "server.internal",
		Error: err.Error(),
	})
}

// detached keeps the request values but not its cancellation: a pipeline
// runs to completion once started, even if the client goes away.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
