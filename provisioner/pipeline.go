package provisioner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/kongcloak/interfaces"
	"github.com/ruteri/kongcloak/metrics"
)

// PipelineConfig wires the pipeline to its remote services.
type PipelineConfig struct {
	Document *interfaces.Document
	IDP      interfaces.IdentityProvider
	Gateway  interfaces.Gateway
	Mode     Mode

	// ContinueOnError applies to individual consumers and endpoints only.
	ContinueOnError bool

	// ReportStore, when set, receives the JSON report of every run.
	ReportStore interfaces.StorageBackend

	Log *slog.Logger
}

// Pipeline is the fixed provisioning sequence:
// authenticate, create realm, fetch public key, provision consumers, declare endpoints.
type Pipeline struct {
	realm       *RealmProvisioner
	gateway     *GatewayProvisioner
	reportStore interfaces.StorageBackend
	mode        Mode
	log         *slog.Logger
}

// NewPipeline creates a pipeline from cfg. An empty mode means ModeUpsert.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeUpsert
	}

	return &Pipeline{
		realm: &RealmProvisioner{
			IDP:      cfg.IDP,
			Document: cfg.Document,
			Mode:     mode,
			Log:      cfg.Log,
		},
		gateway: &GatewayProvisioner{
			Gateway:         cfg.Gateway,
			IDP:             cfg.IDP,
			Document:        cfg.Document,
			Mode:            mode,
			ContinueOnError: cfg.ContinueOnError,
			Log:             cfg.Log,
		},
		reportStore: cfg.ReportStore,
		mode:        mode,
		log:         cfg.Log,
	}
}

// Steps returns the pipeline stages bound to sess.
func (p *Pipeline) Steps(sess *Session) []Step {
	return append(p.realm.Steps(sess),
		Step{Name: "provision-consumers", Steps: p.gateway.ConsumerSteps(sess)},
		Step{Name: "declare-endpoints", Steps: p.gateway.EndpointSteps(sess)},
	)
}

// Run executes the pipeline with a fresh session and blocks until it ends.
//
// Returns:
//   - The run report, always non-nil
//   - *StepError when a stage aborted the run, or an error listing the
//     consumers and endpoints that failed under ContinueOnError
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Realm:     p.realm.Document.Keycloak.Realm.Name,
		Mode:      p.mode,
		StartedAt: time.Now().UTC(),
	}
	log := p.log.With(slog.String("run_id", report.RunID))
	log.Info("Starting provisioning run", slog.String("realm", report.Realm), slog.String("mode", string(p.mode)))

	results, err := RunSequence(ctx, log, p.Steps(NewSession()))
	return p.finish(ctx, log, report, results, err)
}

// Start runs the pipeline on a separate goroutine and calls done with its outcome.
func (p *Pipeline) Start(ctx context.Context, done func(*Report, error)) {
	go func() {
		done(p.Run(ctx))
	}()
}

func (p *Pipeline) finish(ctx context.Context, log *slog.Logger, report *Report, results []StepResult, err error) (*Report, error) {
	report.FinishedAt = time.Now().UTC()
	report.Steps = results

	if err == nil {
		if failed := Failed(results); len(failed) > 0 {
			errs := make([]error, 0, len(failed))
			for _, f := range failed {
				errs = append(errs, &StepError{Step: f.Name, Err: f.Err})
			}
			err = fmt.Errorf("%d provisioning steps failed: %w", len(failed), errors.Join(errs...))
		}
	}

	if err != nil {
		report.Status = RunFailed
		report.Error = err.Error()
		log.Error("Provisioning run failed", "err", err, slog.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	} else {
		report.Status = RunDone
		log.Info("Provisioning run done", slog.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	}
	metrics.ObserveRun(err == nil, report.FinishedAt)

	if p.reportStore != nil {
		// Stored even when the run was cancelled.
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if key, storeErr := report.Store(storeCtx, p.reportStore); storeErr != nil {
			log.Warn("Failed to store run report", "err", storeErr)
		} else {
			log.Info("Stored run report", slog.String("key", key), slog.String("store", p.reportStore.LocationURI()))
		}
	}

	return report, err
}
