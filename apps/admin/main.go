package main

import (
	"log"
	"os"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/storage/database"
	sqliterepos "github.com/trezcool/ratiba/storage/database/sqlite"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	var (
		plannerRepo  planner.Repository
		activityRepo activity.Repository
	)
	if conf.Database.Engine == "sqlite" {
		plannerRepo = sqliterepos.NewPlannerRepository(db)
		activityRepo = sqliterepos.NewActivityRepository(db)
	} else {
		plannerRepo = sqlxrepos.NewPlannerRepository(db)
		activityRepo = sqlxrepos.NewActivityRepository(db)
	}

	// start CLI
	cli := commandLine{
		db:           db,
		conf:         conf,
		plannerRepo:  plannerRepo,
		activityRepo: activityRepo,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
