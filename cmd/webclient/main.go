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

func main() {
	app := &cli.App{
		Name:  "kongcloak-webclient",
		Usage: "Serve the demo single-page client",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "listen-addr",
				Value: "127.0.0.1:3000",
				Usage: "address to listen on",
			},
			flags.LogServiceFlagFn("kongcloak-webclient"),
		}, flags.ServerFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))

			server, err := httpserver.New(cfg, httpserver.IndexHandler{})
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit

			server.Shutdown()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
