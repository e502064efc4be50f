package history

import (
	"fmt"
	"time"

	"github.com/iancoleman/orderedmap"
	"github.com/spf13/cobra"

	"nudeploy/cmd/root"
	"nudeploy/internal/utils"
	"nudeploy/services"
)

var limit int

var historyCmd = &cobra.Command{
	Use:   "history [package id]",
	Short: "List recent install, uninstall and cleanup runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		deployer, err := services.GetDeployer()
		if err != nil {
			return err
		}
		defer deployer.Close()

		runs, err := deployer.History(cmd.Context(), id, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}
		var dataList []*orderedmap.OrderedMap
		for _, run := range runs {
			row := orderedmap.New()
			row.Set("started", run.StartedAt.Local().Format(time.DateTime))
			row.Set("operation", run.Operation)
			row.Set("package", run.PackageID)
			row.Set("version", run.Version)
			row.Set("status", run.Status)
			row.Set("duration", run.Duration.Truncate(time.Millisecond).String())
			row.Set("message", run.Message)
			dataList = append(dataList, row)
		}
		utils.PrintFormat(dataList)
		return nil
	},
}

func init() {
	root.RootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")

	historyCmd.Example = `  nudeploy history
  nudeploy history Acme.Web -n 5`
}
