package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/kongcloak/api/clients"
	"github.com/ruteri/kongcloak/cmd/flags"
	"github.com/ruteri/kongcloak/configresolver"
	"github.com/ruteri/kongcloak/discovery"
	"github.com/ruteri/kongcloak/interfaces"
	"github.com/ruteri/kongcloak/metrics"
	"github.com/ruteri/kongcloak/provisioner"
	"github.com/ruteri/kongcloak/storage"
	"github.com/urfave/cli/v2"
)

var provisionFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "kongcloak.yaml",
		Usage:   "configuration document, a local path or a key in --config-store",
		EnvVars: []string{"KONGCLOAK_CONFIG"},
	},
	&cli.StringSliceFlag{
		Name:  "config-store",
		Usage: "storage backend URI to fetch the configuration document from (repeatable, first hit wins)",
	},
	&cli.StringSliceFlag{
		Name:  "secret-store",
		Usage: "storage backend URI resolving __SECRET_REF_<name> placeholders (repeatable)",
	},
	&cli.StringSliceFlag{
		Name:  "report-store",
		Usage: "storage backend URI receiving the JSON run report (repeatable, written to all)",
	},
	&cli.StringFlag{
		Name:  "keycloak-host",
		Usage: "identity provider host[:port], base URL or srv+<name>; overrides document and " + configresolver.EnvKeycloakHost,
	},
	&cli.StringFlag{
		Name:  "keycloak-username",
		Usage: "administrator username; overrides document and " + configresolver.EnvKeycloakUsername,
	},
	&cli.StringFlag{
		Name:  "keycloak-password",
		Usage: "administrator password; overrides document and " + configresolver.EnvKeycloakPassword,
	},
	&cli.StringFlag{
		Name:  "kong-host",
		Usage: "gateway admin host[:port], base URL or srv+<name>; overrides document and " + configresolver.EnvKongHost,
	},
	&cli.StringFlag{
		Name:    "mode",
		Value:   string(provisioner.ModeUpsert),
		Usage:   "'upsert' skips resources that already exist, 'create' always creates",
		EnvVars: []string{"KONGCLOAK_MODE"},
	},
	&cli.BoolFlag{
		Name:  "continue-on-error",
		Usage: "keep provisioning the remaining consumers and endpoints when one fails",
	},
	&cli.DurationFlag{
		Name:  "request-timeout",
		Value: clients.DefaultRequestTimeout,
		Usage: "timeout of each admin API request",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "timeout of the whole run, 0 for none",
	},
	&cli.StringFlag{
		Name:  "dns-server",
		Usage: "DNS server (host:port) resolving srv+ hosts, defaults to the first resolv.conf nameserver",
	},
	&cli.StringFlag{
		Name:    "pushgateway-url",
		Usage:   "Prometheus Pushgateway receiving the run metrics",
		EnvVars: []string{"PUSHGATEWAY_URL"},
	},
	&cli.BoolFlag{
		Name:  "print-report",
		Usage: "write the JSON run report to stdout",
	},
	flags.LogServiceFlagFn("kongcloak-provision"),
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "kongcloak-provision",
		Usage:  "Provision a Keycloak realm and declare the matching Kong consumers and routes",
		Flags:  append(provisionFlags, flags.LogFlags...),
		Action: runProvision,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runProvision(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout := cCtx.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	mode, err := provisioner.ParseMode(cCtx.String("mode"))
	if err != nil {
		return &interfaces.ConfigError{Field: "mode", Err: err}
	}

	factory := storage.NewStorageBackendFactory(logger)
	configStore, err := optionalBackend(factory, "config-store", cCtx.StringSlice("config-store"))
	if err != nil {
		return err
	}
	secretStore, err := optionalBackend(factory, "secret-store", cCtx.StringSlice("secret-store"))
	if err != nil {
		return err
	}
	reportStore, err := optionalBackend(factory, "report-store", cCtx.StringSlice("report-store"))
	if err != nil {
		return err
	}

	doc, err := configresolver.Load(ctx, logger, configresolver.LoadOptions{
		Path:          cCtx.String("config"),
		DocumentStore: configStore,
		SecretStore:   secretStore,
		Overrides: configresolver.Overrides{
			KeycloakHost:     cCtx.String("keycloak-host"),
			KeycloakUsername: cCtx.String("keycloak-username"),
			KeycloakPassword: cCtx.String("keycloak-password"),
			KongHost:         cCtx.String("kong-host"),
		},
	})
	if err != nil {
		logger.Error("Failed to load configuration", "err", err)
		return err
	}

	requestTimeout := cCtx.Duration("request-timeout")
	resolver := &discovery.Resolver{
		Server:  cCtx.String("dns-server"),
		Timeout: requestTimeout,
		Log:     logger,
	}

	keycloakURL, err := resolver.BaseURL(ctx, doc.Keycloak.Host)
	if err != nil {
		return fmt.Errorf("failed to resolve keycloak host %s: %w", doc.Keycloak.Host, err)
	}
	kongURL, err := resolver.BaseURL(ctx, doc.Kong.Host)
	if err != nil {
		return fmt.Errorf("failed to resolve kong host %s: %w", doc.Kong.Host, err)
	}
	logger.Info("Resolved admin endpoints",
		slog.String("keycloak", keycloakURL+*doc.Keycloak.PathPrefix),
		slog.String("kong", kongURL))

	pipeline := provisioner.NewPipeline(provisioner.PipelineConfig{
		Document:        doc,
		IDP:             clients.NewKeycloakClient(keycloakURL, *doc.Keycloak.PathPrefix, logger, requestTimeout),
		Gateway:         clients.NewKongClient(kongURL, logger, requestTimeout),
		Mode:            mode,
		ContinueOnError: cCtx.Bool("continue-on-error"),
		ReportStore:     reportStore,
		Log:             logger,
	})

	report, runErr := pipeline.Run(ctx)

	if gatewayURL := cCtx.String("pushgateway-url"); gatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, gatewayURL, "kongcloak_provision", report.Realm); err != nil {
			logger.Warn("Failed to push run metrics", "err", err)
		}
	}

	if cCtx.Bool("print-report") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Warn("Failed to print run report", "err", err)
		}
	}

	if runErr != nil {
		logFailure(logger, runErr)
		return fmt.Errorf("provisioning run %s failed: %w", report.RunID, runErr)
	}
	return nil
}

// optionalBackend builds a backend from uris, nil when none are given.
func optionalBackend(factory *storage.StorageBackendFactory, flag string, uris []string) (interfaces.StorageBackend, error) {
	if len(uris) == 0 {
		return nil, nil
	}
	backend, err := factory.BackendFromURIs(uris)
	if err != nil {
		return nil, &interfaces.ConfigError{Field: flag, Err: err}
	}
	return backend, nil
}

func logFailure(logger *slog.Logger, err error) {
	attrs := []any{"err", err}

	var stepErr *provisioner.StepError
	if errors.As(err, &stepErr) {
		attrs = append(attrs, slog.String("step", stepErr.Step))
	}

	var apiErr *interfaces.AdminAPIError
	var transportErr *interfaces.TransportError
	switch {
	case errors.As(err, &apiErr):
		attrs = append(attrs, slog.String("target", apiErr.Target), slog.Int("status", apiErr.StatusCode))
	case errors.As(err, &transportErr):
		attrs = append(attrs, slog.String("target", transportErr.Target), slog.String("url", transportErr.URL))
	case errors.Is(err, context.DeadlineExceeded):
		attrs = append(attrs, slog.String("cause", "timeout"))
	case errors.Is(err, context.Canceled):
		attrs = append(attrs, slog.String("cause", "cancelled"))
	}

	logger.Error("Provisioning failed", attrs...)
}
