package deploy

import (
	"fmt"

	"github.com/iancoleman/orderedmap"
	"github.com/spf13/cobra"

	"nudeploy/cmd/root"
	"nudeploy/internal/utils"
	"nudeploy/services"
)

var statusCmd = &cobra.Command{
	Use:   "status [package id]",
	Short: "List installed package versions",
	Long:  "List the installed version folders with their active flag. If a package id is given, only its versions are shown.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		return showStatus(id)
	},
}

/**
 *	Fields displayed in list format
 */
type Status_Columns struct {
	Id      string `json:"id"`
	Version string `json:"version"`
	Active  string `json:"active"`
	Folder  string `json:"folder"`
}

func showStatus(id string) error {
	deployer, err := services.GetDeployer()
	if err != nil {
		return err
	}
	defer deployer.Close()

	records, err := deployer.Status(id)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		if id == "" {
			fmt.Println("No packages installed")
		} else {
			fmt.Printf("Package '%s' is not installed\n", id)
		}
		return nil
	}
	var dataList []*orderedmap.OrderedMap
	for _, rec := range records {
		d := rec.Detail()
		row := Status_Columns{
			Id:      d.Id,
			Version: d.Version,
			Active:  "",
			Folder:  d.Folder,
		}
		if d.IsActive {
			row.Active = "*"
		}
		recordMap, _ := utils.StructToOrderedMap(row)
		dataList = append(dataList, recordMap)
	}
	utils.PrintFormat(dataList)
	return nil
}

func init() {
	root.RootCmd.AddCommand(statusCmd)

	statusCmd.Example = `  nudeploy status
  nudeploy status Acme.Web`
}
