package deploy

import (
	"os"

	"github.com/spf13/cobra"

	"nudeploy/cmd/root"
)

var uninstallVersion string

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <package id>",
	Short: "Uninstall a package",
	Long:  "Run the uninstall script of the active version, or of the version given with --version, then remove it from the registry and delete its folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		resp, err := b.Uninstall(cmd.Context(), args[0], uninstallVersion)
		if err != nil {
			return err
		}
		printOutcome(os.Stdout, resp)
		return outcomeError("uninstall", resp)
	},
}

func init() {
	root.RootCmd.AddCommand(uninstallCmd)

	uninstallCmd.Flags().BoolVar(&remote, "remote", false, "run on the nudeploy server instead of in this process")
	uninstallCmd.Flags().StringVarP(&uninstallVersion, "version", "v", "", "version to uninstall (default: the active version)")

	uninstallCmd.Example = `  nudeploy uninstall Acme.Web
  nudeploy uninstall Acme.Web --version 1.2.0`
}
