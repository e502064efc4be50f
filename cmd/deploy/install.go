package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nudeploy/cmd/root"
	"nudeploy/internal/models"
	"nudeploy/services"
)

type installOptions struct {
	mode                string
	force               bool
	profiles            []string
	buildConfigurations []string
}

var installOpts installOptions

var installCmd = &cobra.Command{
	Use:   "install <package id>",
	Short: "Install the latest version of a package",
	Long: `Find the highest version of the package across the configured sources,
decide whether it must be installed, extract it, apply the system settings and
build configuration profiles and run its install script`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(cmd.Context(), args[0], installOpts)
	},
}

/**
 * Run the install pipeline for one package
 * @param {context.Context} ctx - Cancellation of downloads and scripts
 * @param {string} id - Package id
 * @param {installOptions} opts - Command line options
 * @returns {error} Precondition errors, or a summary when the outcome is a Failure
 */
func runInstall(ctx context.Context, id string, opts installOptions) error {
	mode := models.ParseDeploymentMode(opts.mode)
	if mode == models.NotRecognized {
		return fmt.Errorf("unknown deployment mode '%s', expected full or update", opts.mode)
	}
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	resp, err := b.Install(ctx, services.InstallRequest{
		PackageId:                  id,
		Mode:                       mode,
		Force:                      opts.force,
		SystemSettingProfiles:      opts.profiles,
		BuildConfigurationProfiles: opts.buildConfigurations,
	})
	if err != nil {
		return err
	}
	printOutcome(os.Stdout, resp)
	return outcomeError("install", resp)
}

func init() {
	root.RootCmd.AddCommand(installCmd)

	installCmd.Flags().StringVarP(&installOpts.mode, "mode", "m", "full", "deployment mode (full/update)")
	installCmd.Flags().BoolVarP(&installOpts.force, "force", "f", false, "reinstall even if the version is not newer, ignore uninstall failures")
	installCmd.Flags().StringSliceVarP(&installOpts.profiles, "profiles", "p", nil, "system settings profiles, applied in order")
	installCmd.Flags().StringSliceVarP(&installOpts.buildConfigurations, "build-configurations", "b", nil, "build configurations, applied in order")
	installCmd.Flags().BoolVar(&remote, "remote", false, "run on the nudeploy server instead of in this process")

	installCmd.Example = `  nudeploy install Acme.Web
  nudeploy install Acme.Web --mode update
  nudeploy install Acme.Web --force --profiles production,eu-west
  nudeploy install Acme.Web -b release
  nudeploy install Acme.Web --remote`
}
