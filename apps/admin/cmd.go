package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
	"github.com/trezcool/ratiba/core/planner"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db           *sql.DB
	conf         *core.Config
	plannerRepo  planner.Repository
	activityRepo activity.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run database migrations (up, down, status, ...)")
	fmt.Println("  seeddemo -owner OWNER - seed demo activities and blocks for a student")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedDemoCmd := flag.NewFlagSet("seeddemo", flag.ExitOnError)
	seedDemoOwner := seedDemoCmd.String("owner", "", "The student ID to seed demo data for.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seeddemo":
		if err := seedDemoCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedDemoOwner == "" {
			seedDemoCmd.Usage()
			return errHelp
		}
		return cli.seedDemo(*seedDemoOwner)
	default:
		cli.printUsage()
		return errHelp
	}
}
