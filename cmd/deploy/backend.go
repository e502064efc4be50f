package deploy

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"

	"nudeploy/internal/config"
	"nudeploy/internal/models"
	"nudeploy/internal/rpc"
	"nudeploy/services"
)

const apiPrefix = "/nudeploy/api/v1"

// remote routes pipelines through a running `nudeploy server`
var remote bool

// backend runs a pipeline in this process or on the server
type backend interface {
	Install(ctx context.Context, req services.InstallRequest) (models.ResultResponse, error)
	Uninstall(ctx context.Context, id, ver string) (models.ResultResponse, error)
	Cleanup(ctx context.Context, id string) (models.ResultResponse, error)
	Close()
}

func openBackend() (backend, error) {
	if remote {
		return &remoteBackend{client: rpc.NewHTTPClient(rpc.ConfigFromServer(config.App().Server))}, nil
	}
	deployer, err := services.GetDeployer()
	if err != nil {
		return nil, err
	}
	deployer.SetScriptOutput(os.Stdout)
	return &localBackend{deployer: deployer}, nil
}

type localBackend struct {
	deployer *services.Deployer
}

func (b *localBackend) Install(ctx context.Context, req services.InstallRequest) (models.ResultResponse, error) {
	return respond(b.deployer.Install(ctx, req))
}

func (b *localBackend) Uninstall(ctx context.Context, id, ver string) (models.ResultResponse, error) {
	return respond(b.deployer.Uninstall(ctx, id, ver))
}

func (b *localBackend) Cleanup(ctx context.Context, id string) (models.ResultResponse, error) {
	return respond(b.deployer.Cleanup(ctx, id))
}

func (b *localBackend) Close() {
	b.deployer.Close()
	pushMetrics()
}

func respond(outcome *services.RunOutcome, err error) (models.ResultResponse, error) {
	if err != nil {
		return models.ResultResponse{}, err
	}
	return outcome.Response(), nil
}

type remoteBackend struct {
	client rpc.HTTPClient
}

func (b *remoteBackend) Install(ctx context.Context, req services.InstallRequest) (models.ResultResponse, error) {
	body := models.InstallRequest{
		Mode:                req.Mode.String(),
		Force:               req.Force,
		Profiles:            req.SystemSettingProfiles,
		BuildConfigurations: req.BuildConfigurationProfiles,
	}
	return decodeOutcome(b.client.Post(apiPrefix+"/packages/"+url.PathEscape(req.PackageId)+"/install", body))
}

func (b *remoteBackend) Uninstall(ctx context.Context, id, ver string) (models.ResultResponse, error) {
	var params map[string]interface{}
	if ver != "" {
		params = map[string]interface{}{"version": ver}
	}
	return decodeOutcome(b.client.Delete(apiPrefix+"/packages/"+url.PathEscape(id), params))
}

func (b *remoteBackend) Cleanup(ctx context.Context, id string) (models.ResultResponse, error) {
	return decodeOutcome(b.client.Post(apiPrefix+"/cleanup", models.CleanupRequest{PackageId: id}))
}

func (b *remoteBackend) Close() {
	b.client.Close()
}

// decodeOutcome accepts the statuses that carry a pipeline outcome
func decodeOutcome(resp *rpc.HTTPResponse, err error) (models.ResultResponse, error) {
	var out models.ResultResponse
	if err != nil {
		return out, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		return out, errors.New(resp.Error)
	}
	err = resp.Decode(&out)
	return out, err
}
