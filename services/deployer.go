package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-version"

	"nudeploy/internal/archive"
	"nudeploy/internal/config"
	"nudeploy/internal/history"
	"nudeploy/internal/logger"
	"nudeploy/internal/models"
	"nudeploy/internal/registry"
	"nudeploy/internal/repository"
	"nudeploy/internal/result"
	"nudeploy/internal/script"
	"nudeploy/internal/transform"
	"nudeploy/internal/utils"
)

const (
	OperationInstall   = "install"
	OperationUninstall = "uninstall"
	OperationCleanup   = "cleanup"
)

// RunJournal stores the outcome of pipeline runs
type RunJournal interface {
	Record(ctx context.Context, run *history.Run) error
	List(ctx context.Context, packageId string, limit int) ([]*history.Run, error)
	Close() error
}

// RunOutcome is the result of one pipeline run through the Deployer
type RunOutcome struct {
	RunId    string
	Result   *result.Result
	Duration time.Duration
}

// Response flattens the outcome for the API and the CLI
func (o *RunOutcome) Response() models.ResultResponse {
	res := o.Result
	resp := models.ResultResponse{
		RunId:    o.RunId,
		Status:   res.Status().String(),
		Message:  res.Message(),
		Artefact: res.Artefact(),
		Skipped:  IsNotRequired(res),
		Duration: o.Duration.Truncate(time.Millisecond).String(),
	}
	for _, cause := range res.Chain()[1:] {
		resp.Causes = append(resp.Causes, cause.Message())
	}
	return resp
}

/**
 * Deployer is the entry point used by the CLI and the HTTP API. It owns the
 * wired pipelines and runs at most one of them at a time.
 */
type Deployer struct {
	mu          sync.Mutex
	installer   *Installer
	uninstaller *Uninstaller
	cleaner     *Cleaner
	status      *StatusProvider
	registry    *registry.Registry
	sources     *repository.SourceStore
	journal     RunJournal
	scripts     ScriptRuntime
}

var (
	deployer     *Deployer
	deployerLock sync.Mutex
)

/**
 * Get the process-wide deployer built from config.App()
 * @returns {*Deployer} Shared deployer instance
 */
func GetDeployer() (*Deployer, error) {
	deployerLock.Lock()
	defer deployerLock.Unlock()
	if deployer != nil {
		return deployer, nil
	}
	d, err := NewDeployer(config.App())
	if err != nil {
		return nil, err
	}
	deployer = d
	return deployer, nil
}

/**
 * Create a deployer wired with the file based registry, the configured
 * sources, the zip extractor, the YAML transformer and the script runner
 * @param {*config.AppConfig} cfg - Application configuration
 * @description
 * - A history journal that cannot be opened is logged and disabled
 */
func NewDeployer(cfg *config.AppConfig) (*Deployer, error) {
	var journal RunJournal
	if cfg.History.Enabled {
		j, err := history.Open(cfg.History.DSN)
		if err != nil {
			logger.Warnf("Deployer: history disabled: %v", err)
		} else {
			journal = j
		}
	}
	sys := RealSystem{}
	reg := registry.NewRegistry(registry.NewJSONFileStore(cfg.Registry.File, cfg.Registry.Lock))
	sources := repository.NewSourceStore(cfg.Sources.File)
	browser := repository.NewBrowser(sources, cfg.Directory.Cache)
	runner := script.NewRunner(cfg.Script)

	return NewDeployerWith(DeployerDeps{
		Registry:        reg,
		Sources:         sources,
		Repository:      browser,
		Extractor:       archive.NewExtractor(browser),
		Transformer:     transform.NewTransformer(),
		Scripts:         runner,
		System:          sys,
		Journal:         journal,
		PackagesRoot:    cfg.Directory.Packages,
		InstallScript:   cfg.Script.Install,
		UninstallScript: cfg.Script.Uninstall,
	}), nil
}

// DeployerDeps are the collaborators of a Deployer
type DeployerDeps struct {
	Registry        *registry.Registry
	Sources         *repository.SourceStore
	Repository      RepositoryBrowser
	Extractor       PackageExtractor
	Transformer     SettingsTransformer
	Scripts         ScriptRuntime
	System          System
	Journal         RunJournal
	PackagesRoot    string
	InstallScript   string
	UninstallScript string
}

func NewDeployerWith(deps DeployerDeps) *Deployer {
	status := NewStatusProvider(deps.Registry, deps.PackagesRoot, deps.System)
	uninstaller := NewUninstaller(status, deps.Registry, deps.Scripts, deps.System, deps.UninstallScript)
	installer := NewInstaller(InstallerDeps{
		Repository:   deps.Repository,
		Extractor:    deps.Extractor,
		Transformer:  deps.Transformer,
		Scripts:      deps.Scripts,
		Registry:     deps.Registry,
		Decision:     NewDecisionEngine(status),
		Uninstaller:  uninstaller,
		System:       deps.System,
		PackagesRoot: deps.PackagesRoot,
		ScriptName:   deps.InstallScript,
	})
	return &Deployer{
		installer:   installer,
		uninstaller: uninstaller,
		cleaner:     NewCleaner(status, deps.System),
		status:      status,
		registry:    deps.Registry,
		sources:     deps.Sources,
		journal:     deps.Journal,
		scripts:     deps.Scripts,
	}
}

// SetScriptOutput mirrors package script output to w when the script
// runtime supports it.
func (d *Deployer) SetScriptOutput(w io.Writer) {
	if o, ok := d.scripts.(interface{ SetOutput(io.Writer) }); ok {
		o.SetOutput(w)
	}
}

func (d *Deployer) Install(ctx context.Context, req InstallRequest) (*RunOutcome, error) {
	return d.run(ctx, OperationInstall, req.PackageId, "", func() (*result.Result, error) {
		return d.installer.Install(ctx, req)
	})
}

// Uninstall removes ver of packageId, or the active version when ver is empty.
func (d *Deployer) Uninstall(ctx context.Context, packageId, ver string) (*RunOutcome, error) {
	var v *version.Version
	if ver != "" {
		parsed, err := utils.ParseVersion(ver)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		v = parsed
	}
	return d.run(ctx, OperationUninstall, packageId, ver, func() (*result.Result, error) {
		return d.uninstaller.Uninstall(ctx, packageId, v)
	})
}

func (d *Deployer) Cleanup(ctx context.Context, packageId string) (*RunOutcome, error) {
	return d.run(ctx, OperationCleanup, packageId, "", func() (*result.Result, error) {
		return d.cleaner.Cleanup(packageId)
	})
}

/**
 * Run one pipeline under the deployer lock
 * @description
 * - Precondition errors are returned as is and are not recorded
 * - Every other run is counted in metrics and written to the journal
 */
func (d *Deployer) run(ctx context.Context, operation, packageId, ver string, fn func() (*result.Result, error)) (*RunOutcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	runId := uuid.NewString()
	started := time.Now()
	logger.Infof("Deployer: %s '%s' started (run %s)", operation, packageId, runId)
	res, err := fn()
	if err != nil {
		logger.Warnf("Deployer: %s '%s' rejected: %v", operation, packageId, err)
		return nil, err
	}
	elapsed := time.Since(started)
	ObserveOperation(operation, res.Status().String(), elapsed)
	d.refreshGauge()

	if d.journal != nil {
		run := &history.Run{
			ID:        runId,
			Operation: operation,
			PackageID: packageId,
			Version:   ver,
			Status:    res.Status().String(),
			Message:   res.Message(),
			StartedAt: started,
			Duration:  elapsed,
		}
		if res.IsSuccess() && operation != OperationCleanup {
			if v, ok := utils.ParsePackageVersion(res.Artefact(), packageId); ok {
				run.Version = v.Original()
			}
		}
		for _, c := range res.Chain()[1:] {
			run.Causes = append(run.Causes, c.Message())
		}
		if err := d.journal.Record(ctx, run); err != nil {
			logger.Warnf("Deployer: record run %s failed: %v", runId, err)
		}
	}
	logger.Infof("Deployer: %s '%s' finished in %s: %s", operation, packageId, elapsed, res)
	return &RunOutcome{RunId: runId, Result: res, Duration: elapsed}, nil
}

func (d *Deployer) refreshGauge() {
	if packages, err := d.registry.GetInstalledPackages(); err == nil {
		SetInstalledPackages(len(packages))
	}
}

// Status lists installed package records; an empty id lists every package.
func (d *Deployer) Status(packageId string) ([]models.InstalledPackage, error) {
	if packageId == "" {
		return d.status.GetAllPackages()
	}
	return d.status.GetPackageInfo(packageId)
}

func (d *Deployer) InstalledPackages() ([]registry.PackageInfo, error) {
	return d.registry.GetInstalledPackages()
}

func (d *Deployer) Sources() *repository.SourceStore {
	return d.sources
}

// History lists recorded runs, newest first.
func (d *Deployer) History(ctx context.Context, packageId string, limit int) ([]*history.Run, error) {
	if d.journal == nil {
		return []*history.Run{}, nil
	}
	return d.journal.List(ctx, packageId, limit)
}

func (d *Deployer) Close() error {
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}
