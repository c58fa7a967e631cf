package main

import (
	"github.com/mbdebug/mbdebug/cmd/mbdbg/cmds"
)

func main() {
	cmds.Execute()
}
