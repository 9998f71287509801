// Command salesreport prints the sales dashboard aggregates and exports
// filtered rows without starting the server.
//
//	salesreport summary -city "San Francisco" -month April
//	salesreport export -format xlsx -product iPhone -o iphone.xlsx
//	salesreport options
//	salesreport check
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
