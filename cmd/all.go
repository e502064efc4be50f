package cmd

import (
	_ "nudeploy/cmd/deploy"
	_ "nudeploy/cmd/history"
	_ "nudeploy/cmd/root"
	_ "nudeploy/cmd/server"
	_ "nudeploy/cmd/source"
)
