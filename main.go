package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tim-hellhake/homie-adapter/cmd"
)

func main() {
	app := &cli.App{
		Name:   "homie-adapter",
		Usage:  "bridges Homie MQTT devices into a typed device model",
		Action: cmd.HomieCommand,
		Commands: []*cli.Command{
			{
				Name:   "generate-token",
				Usage:  "generate an API token and the bcrypt hash to configure as API_TOKEN_HASH",
				Action: cmd.GenerateTokenCommand,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "mqtt-host",
				EnvVars:  []string{"MQTT_HOST"},
				Value:    "localhost",
				Required: false,
			},
			&cli.IntFlag{
				Name:    "mqtt-port",
				EnvVars: []string{"MQTT_PORT"},
				Value:   1883,
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "database-url",
				EnvVars: []string{"DATABASE_URL"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "migrations-folder",
				EnvVars: []string{"MIGRATIONS_FOLDER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "listen-addr",
				EnvVars: []string{"LISTEN_ADDR"},
				Value:   "0.0.0.0:8000",
			},
			&cli.StringFlag{
				Name:    "api-token-hash",
				EnvVars: []string{"API_TOKEN_HASH"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
