package source

import (
	"github.com/spf13/cobra"

	"nudeploy/cmd/root"
	"nudeploy/internal/config"
	"nudeploy/internal/repository"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Repository operations (list/add/remove)",
	Long:  `Manage the repositories packages are installed from. A repository is a local folder of <Id>.<Version>.zip archives or an http(s) feed serving index.json`,
}

const sourceExample = `  nudeploy source list
  nudeploy source add local /srv/packages
  nudeploy source add nightly https://packages.example.com/nightly
  nudeploy source remove nightly`

// sourceStore opens the sources file directly, no deployer is needed
func sourceStore() *repository.SourceStore {
	return repository.NewSourceStore(config.App().Sources.File)
}

func init() {
	root.RootCmd.AddCommand(sourceCmd)

	sourceCmd.Example = sourceExample
}
