package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var server srv

func main() {
	app := &cli.App{
		Name:  "backend",
		Usage: "game community backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.toml",
				Usage: "path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "api",
				Usage:  "start the api server",
				Action: server.startApi,
			},
			{
				Name:   "migrate",
				Usage:  "run the database migrations",
				Action: server.migrate,
			},
			{
				Name:   "deploy",
				Usage:  "deploy a featured mod to the legacy update server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "mod",
						Usage:    "technical name of the featured mod",
						Required: true,
					},
				},
				Action: server.deploy,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
