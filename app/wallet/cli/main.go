package main

import (
	"github.com/ardanlabs/liquidstake/app/wallet/cli/cmd"
)

func main() {
	cmd.Execute()
}
