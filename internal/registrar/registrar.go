// Package registrar turns an accepted candidate directory into a tracked
// project.
//
// Every attempt ends in exactly one dedup.Outcome: registered (the
// directory is known to the tracking API, whether created now or earlier),
// skipped (nothing to register yet) or retry (a collaborator failed).
package registrar

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/nautwatch/internal/dedup"
	"github.com/fyrsmithlabs/nautwatch/internal/logging"
	"github.com/fyrsmithlabs/nautwatch/internal/metrics"
	"github.com/fyrsmithlabs/nautwatch/internal/project"
	"github.com/fyrsmithlabs/nautwatch/internal/redact"
	"github.com/fyrsmithlabs/nautwatch/internal/tracker"
)

const instrumentationName = "github.com/fyrsmithlabs/nautwatch/internal/registrar"

// API is the subset of the tracking API the registrar needs.
type API interface {
	FindByPath(ctx context.Context, hostPath string) ([]tracker.Project, error)
	Create(ctx context.Context, req tracker.CreateRequest) (*tracker.Project, error)
}

// Reason explains an outcome.
type Reason string

const (
	ReasonExists       Reason = "exists"
	ReasonCreated      Reason = "created"
	ReasonConflict     Reason = "conflict"
	ReasonNoConcept    Reason = "no_concept"
	ReasonReadFailed   Reason = "read_failed"
	ReasonCheckFailed  Reason = "check_failed"
	ReasonCreateFailed Reason = "create_failed"
)

// Result describes one finished registration attempt.
type Result struct {
	Candidate project.Candidate
	Outcome   dedup.Outcome
	Reason    Reason
	ProjectID int64 // set when the API returned or listed the record
	Err       error
	Duration  time.Duration
}

// Options configures a Registrar.
type Options struct {
	API     API
	Logger  *logging.Logger
	Metrics *metrics.Metrics

	// Summary sends the first paragraph of the concept.
	Summary bool

	// GitRepo sends the origin remote URL when the directory is a repository.
	GitRepo bool

	// Redactor scrubs credentials from the concept before it is sent.
	// Nil sends the text as read.
	Redactor *redact.Redactor
}

// Registrar registers candidate directories with the tracking API.
type Registrar struct {
	api      API
	logger   *logging.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	redactor *redact.Redactor
	summary  bool
	gitRepo  bool
}

// New creates a Registrar.
func New(opts Options) *Registrar {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registrar{
		api:      opts.API,
		logger:   logger.Named("registrar"),
		metrics:  opts.Metrics,
		tracer:   otel.Tracer(instrumentationName),
		redactor: opts.Redactor,
		summary:  opts.Summary,
		gitRepo:  opts.GitRepo,
	}
}

// Register runs the existence check, concept discovery and creation for
// cand. The caller must hold the dedup entry for cand.ContainerPath and
// finalize it with the returned outcome.
func (r *Registrar) Register(ctx context.Context, cand project.Candidate) Result {
	start := time.Now()
	ctx = logging.WithProjectDir(ctx, cand.ContainerPath)
	ctx, span := r.tracer.Start(ctx, "registrar.register",
		trace.WithAttributes(
			attribute.String("project.name", cand.Name),
			attribute.String("project.host_path", cand.HostPath),
		),
	)
	defer span.End()

	res := r.register(ctx, &cand)
	res.Candidate = cand
	res.Duration = time.Since(start)

	span.SetAttributes(
		attribute.String("registration.outcome", res.Outcome.String()),
		attribute.String("registration.reason", string(res.Reason)),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, string(res.Reason))
	}
	if r.metrics != nil {
		r.metrics.Registrations.WithLabelValues(res.Outcome.String(), string(res.Reason)).Inc()
	}
	r.log(ctx, res)
	return res
}

func (r *Registrar) register(ctx context.Context, cand *project.Candidate) Result {
	existing, err := r.api.FindByPath(ctx, cand.HostPath)
	if err != nil {
		return Result{Outcome: dedup.OutcomeRetry, Reason: ReasonCheckFailed, Err: err}
	}
	if len(existing) > 0 {
		return Result{Outcome: dedup.OutcomeRegistered, Reason: ReasonExists, ProjectID: existing[0].ID}
	}

	concept, err := project.ReadConcept(cand.ContainerPath)
	if errors.Is(err, project.ErrNoConcept) {
		return Result{Outcome: dedup.OutcomeSkipped, Reason: ReasonNoConcept}
	}
	if err != nil {
		return Result{Outcome: dedup.OutcomeSkipped, Reason: ReasonReadFailed, Err: err}
	}
	cand.ConceptText = r.scrubConcept(ctx, concept.Text)
	cand.ConceptFile = concept.Path
	if r.summary {
		cand.Summary = project.Summarize(cand.ConceptText)
	}
	if r.gitRepo {
		cand.GitRepo = project.OriginRemote(cand.ContainerPath)
	}

	created, err := r.api.Create(ctx, tracker.CreateRequest{
		Name:      cand.Name,
		LocalPath: cand.HostPath,
		Concept:   cand.ConceptText,
		Summary:   cand.Summary,
		GitRepo:   cand.GitRepo,
	})
	if errors.Is(err, tracker.ErrConflict) {
		return Result{Outcome: dedup.OutcomeRegistered, Reason: ReasonConflict}
	}
	if err != nil {
		return Result{Outcome: dedup.OutcomeRetry, Reason: ReasonCreateFailed, Err: err}
	}
	return Result{Outcome: dedup.OutcomeRegistered, Reason: ReasonCreated, ProjectID: created.ID}
}

func (r *Registrar) scrubConcept(ctx context.Context, text string) string {
	if r.redactor == nil {
		return text
	}
	res := r.redactor.Redact(text)
	if !res.Redacted() {
		return text
	}
	if r.metrics != nil {
		for _, f := range res.Findings {
			r.metrics.Redactions.WithLabelValues(f.RuleID).Inc()
		}
	}
	r.logger.Warn(ctx, "redacted credentials from concept",
		zap.Int("findings", len(res.Findings)),
		zap.Strings("rules", res.RuleIDs()))
	return res.Text
}

func (r *Registrar) log(ctx context.Context, res Result) {
	fields := []zap.Field{
		zap.String("project", res.Candidate.Name),
		zap.String("host_path", res.Candidate.HostPath),
		zap.String("outcome", res.Outcome.String()),
		zap.String("reason", string(res.Reason)),
		zap.Duration("duration", res.Duration),
	}
	if res.ProjectID != 0 {
		fields = append(fields, zap.Int64("project_id", res.ProjectID))
	}

	switch res.Reason {
	case ReasonCreated:
		r.logger.Info(ctx, "project registered",
			append(fields, zap.String("concept_file", res.Candidate.ConceptFile))...)
	case ReasonExists:
		r.logger.Info(ctx, "project already tracked", fields...)
	case ReasonConflict:
		r.logger.Info(ctx, "project already tracked according to API", fields...)
	case ReasonNoConcept:
		r.logger.Info(ctx, "skipping: no docs/concept.md or docs/README.md", fields...)
	default:
		r.logger.Warn(ctx, "registration failed, will retry on next event",
			append(fields, zap.Error(res.Err))...)
	}
}
