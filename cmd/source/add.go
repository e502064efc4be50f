package source

import (
	"fmt"

	"github.com/spf13/cobra"

	"nudeploy/internal/models"
)

var optToken string

var addCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := models.PackageSource{Name: args[0], Url: args[1], Token: optToken}
		if err := sourceStore().AddSource(src); err != nil {
			return err
		}
		fmt.Printf("Repository '%s' added\n", args[0])
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a repository",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sourceStore().Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Repository '%s' removed\n", args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&optToken, "token", "t", "", "Bearer token sent to an http(s) repository")
	sourceCmd.AddCommand(addCmd)
	sourceCmd.AddCommand(removeCmd)
}
