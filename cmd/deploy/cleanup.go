package deploy

import (
	"os"

	"github.com/spf13/cobra"

	"nudeploy/cmd/root"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [package id]",
	Short: "Delete inactive package versions",
	Long:  "Delete every installed version folder that is not the active registry entry of its package. Without a package id all packages are cleaned.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		resp, err := b.Cleanup(cmd.Context(), id)
		if err != nil {
			return err
		}
		printOutcome(os.Stdout, resp)
		return outcomeError("cleanup", resp)
	},
}

func init() {
	root.RootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().BoolVar(&remote, "remote", false, "run on the nudeploy server instead of in this process")
	cleanupCmd.Example = `  nudeploy cleanup
  nudeploy cleanup Acme.Web`
}
