package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/kongcloak/cmd/flags"
	"github.com/ruteri/kongcloak/httpserver"
	"github.com/urfave/cli/v2"
)

var dataFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:3001",
		Usage: "address to listen on for the data API",
	},
	&cli.StringFlag{
		Name:  "client-id",
		Value: httpserver.DefaultClientID,
		Usage: "realm client whose roles grant access",
	},
	&cli.StringFlag{
		Name:  "role",
		Value: httpserver.DefaultRole,
		Usage: "client role granting access to the data",
	},
	flags.LogServiceFlagFn("kongcloak-dataserver"),
}

func main() {
	app := &cli.App{
		Name:  "kongcloak-dataserver",
		Usage: "Serve the demo data API behind the gateway",
		Flags: append(dataFlags, flags.ServerFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))

			handler := httpserver.NewDataHandler(cCtx.String("client-id"), cCtx.String("role"), logger)
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
