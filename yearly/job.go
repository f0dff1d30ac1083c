package yearly

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/config"
	"github.com/tidepool-org/yearly-summary/errors"
	"github.com/tidepool-org/yearly-summary/outbox"
	"github.com/tidepool-org/yearly-summary/patients"
	"github.com/tidepool-org/yearly-summary/store"
	"github.com/tidepool-org/yearly-summary/summaries"
	"github.com/tidepool-org/yearly-summary/telemetry"
)

type Params struct {
	fx.In

	Config     *config.Config
	Patients   patients.Repository
	Metrics    patients.MetricsRepository
	Summaries  summaries.Repository
	Outbox     outbox.Repository
	Transactor store.Transactor
	Telemetry  *telemetry.Recorder
	Logger     *zap.SugaredLogger
}

// Job writes one yearly summary per patient record for the year preceding
// the invocation
type Job struct {
	cfg        *config.Config
	patients   patients.Repository
	metrics    patients.MetricsRepository
	summaries  summaries.Repository
	outbox     outbox.Repository
	transactor store.Transactor
	telemetry  *telemetry.Recorder
	logger     *zap.SugaredLogger
	clock      func() time.Time
}

type Options struct {
	// DryRun counts the metrics of every patient without writing anything
	DryRun bool
	// StartAfter skips every patient with an id lower or equal to it
	StartAfter string
}

func NewJob(p Params) (*Job, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}

	return &Job{
		cfg:        p.Config,
		patients:   p.Patients,
		metrics:    p.Metrics,
		summaries:  p.Summaries,
		outbox:     p.Outbox,
		transactor: p.Transactor,
		telemetry:  p.Telemetry,
		logger:     p.Logger,
		clock:      time.Now,
	}, nil
}

func (j *Job) Run(ctx context.Context, now time.Time) (*Report, error) {
	return j.RunWithOptions(ctx, now, Options{})
}

func (j *Job) RunWithOptions(ctx context.Context, now time.Time, opts Options) (*Report, error) {
	year := TargetYear(now)
	report := &Report{
		RunId:      uuid.NewString(),
		TargetYear: year,
		Window:     WindowFor(year),
		StartedAt:  j.clock().UTC(),
		DryRun:     opts.DryRun,
		StartAfter: opts.StartAfter,
	}

	logger := j.logger.With("runId", report.RunId, "year", year)
	logger.Infow("starting yearly summary run",
		"now", now.UTC(),
		"dryRun", opts.DryRun,
		"startAfter", opts.StartAfter,
		"failurePolicy", j.cfg.FailurePolicy,
		"duplicatePolicy", j.cfg.DuplicatePolicy,
	)

	err := j.run(ctx, logger, report, opts)
	report.FinishedAt = j.clock().UTC()

	j.telemetry.ObserveRun(report.Duration(), err, report.FinishedAt)

	// An interrupted run still reports its metrics
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), store.ContextTimeout)
	defer cancel()
	if pushErr := j.telemetry.Push(pushCtx); pushErr != nil {
		logger.Warnw("unable to push run metrics", "error", pushErr)
	}

	if err != nil {
		logger.Errorw("yearly summary run failed",
			"processed", len(report.Results),
			"failed", report.Failed(),
			"aborted", report.Aborted,
			"resumeAfter", report.ResumeAfter(),
			"error", err,
		)
		return report, err
	}

	logger.Infow("finished yearly summary run",
		"processed", len(report.Results),
		"created", report.Count(StatusCreated),
		"updated", report.Count(StatusUpdated),
		"skipped", report.Count(StatusSkipped),
		"duration", report.Duration(),
	)
	return report, nil
}

func (j *Job) run(ctx context.Context, logger *zap.SugaredLogger, report *Report, opts Options) error {
	var failures error

	iterator := patients.NewIterator(j.patients, j.cfg.BatchSize, opts.StartAfter)
	for iterator.Next(ctx) {
		patient := iterator.Patient()
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			return multierr.Append(failures, fmt.Errorf("%w: run interrupted before patient %s: %w", errors.Cancelled, patient.Id, err))
		}

		result := j.summarize(ctx, report, patient, opts.DryRun)
		if result.Err != nil {
			result.Err = interrupted(ctx, result.Err)
		}
		report.Results = append(report.Results, result)
		j.telemetry.ObservePatient(string(result.Status), result.RecordCount)

		if result.Err == nil {
			logger.Debugw("summarized patient", "patientId", patient.Id, "status", result.Status, "recordCount", result.RecordCount)
			continue
		}

		logger.Errorw("unable to summarize patient", "patientId", patient.Id, "kind", errors.KindOf(result.Err), "error", result.Err)
		failure := fmt.Errorf("unable to summarize patient %s: %w", patient.Id, result.Err)
		if j.cfg.FailurePolicy != config.FailurePolicyContinue || errors.KindOf(result.Err) == errors.KindCancelled {
			report.Aborted = true
			return failure
		}
		failures = multierr.Append(failures, failure)
	}

	if err := iterator.Err(); err != nil {
		report.Aborted = true
		return multierr.Append(failures, fmt.Errorf("unable to list patients after %q: %w", iterator.Cursor(), interrupted(ctx, err)))
	}

	return failures
}

// interrupted classifies a storage failure caused by the cancellation of the
// run context as a cancellation
func interrupted(ctx context.Context, err error) error {
	if ctx.Err() == nil || errors.KindOf(err) == errors.KindCancelled {
		return err
	}
	return fmt.Errorf("%w: %w", errors.Cancelled, err)
}

func (j *Job) summarize(ctx context.Context, report *Report, patient patients.PatientRecord, dryRun bool) PatientResult {
	result := PatientResult{PatientId: patient.Id}

	count, err := j.metrics.CountInRange(ctx, patient.Id, report.Window.Start, report.Window.End)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	result.RecordCount = count

	if dryRun {
		result.Status = StatusPlanned
		return result
	}

	summary := summaries.Summary{
		PatientId: patient.Id,
		Year:      report.TargetYear,
		Type:      summaries.TypeYearly,
		Text:      SummaryText(report.TargetYear, count),
	}

	err = j.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		status, err := j.write(ctx, &summary)
		if err != nil {
			return err
		}
		result.Status = status
		if status == StatusSkipped || !j.cfg.OutboxEnabled {
			return nil
		}
		return j.notify(ctx, report.RunId, &summary, count)
	})
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
	}

	return result
}

func (j *Job) write(ctx context.Context, summary *summaries.Summary) (Status, error) {
	switch j.cfg.DuplicatePolicy {
	case config.DuplicatePolicySkip:
		exists, err := j.summaries.Exists(ctx, summary.PatientId, summary.Year, summary.Type)
		if err != nil {
			return StatusFailed, err
		}
		if exists {
			return StatusSkipped, nil
		}
	case config.DuplicatePolicyUpsert:
		created, err := j.summaries.Upsert(ctx, summary)
		if err != nil {
			return StatusFailed, err
		}
		if created {
			return StatusCreated, nil
		}
		return StatusUpdated, nil
	}

	if err := j.summaries.Insert(ctx, summary); err != nil {
		return StatusFailed, err
	}
	return StatusCreated, nil
}

func (j *Job) notify(ctx context.Context, runId string, summary *summaries.Summary, recordCount int) error {
	payload := outbox.YearlySummaryGeneratedPayload{
		Year:        summary.Year,
		Type:        summary.Type,
		RecordCount: recordCount,
	}
	if summary.Id != nil {
		payload.SummaryId = summary.Id.Hex()
	}

	event, err := outbox.NewYearlySummaryGeneratedEvent(runId, summary.PatientId, payload)
	if err != nil {
		return err
	}
	return j.outbox.Create(ctx, event)
}
