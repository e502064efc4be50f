package source

import (
	"fmt"

	"github.com/iancoleman/orderedmap"
	"github.com/spf13/cobra"

	"nudeploy/internal/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := sourceStore().Load()
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			fmt.Println("No repository configured")
			return nil
		}
		var dataList []*orderedmap.OrderedMap
		for _, src := range sources {
			row := orderedmap.New()
			row.Set("name", src.Name)
			row.Set("url", src.Url)
			row.Set("token", src.Token != "")
			dataList = append(dataList, row)
		}
		utils.PrintFormat(dataList)
		return nil
	},
}

func init() {
	sourceCmd.AddCommand(listCmd)
}
