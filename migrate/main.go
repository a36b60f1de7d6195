package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"

	"gitlab.connectwisedev.com/sportshop-backend/pkg/config"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/database"
)

// Runs goose against the configured Postgres instance:
//
//	go run ./migrate up
//	go run ./migrate down
//	go run ./migrate status
func main() {
	config.LoadEnv()

	var migrationsDir string
	flag.StringVar(&migrationsDir, "dir", "./migrations", "directory with migration files")
	flag.Parse()

	dbClient, err := database.NewPostgresClient()
	if err != nil {
		log.Fatalf("goose: failed to connect to DB: %v", err)
	}
	db := dbClient.GetDB()
	defer dbClient.Close()

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command := arguments[0]
	var args []string
	if len(arguments) > 1 {
		args = arguments[1:]
	}

	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}
	fmt.Printf("goose %s success\n", command)
}
