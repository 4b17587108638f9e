package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipcast/internal/domain"
	"clipcast/internal/infra"
	"clipcast/internal/providers/video"
)

// renderCost is the flat credit price of one render.
const renderCost = 1

// defaultListLimit bounds the job listing.
const defaultListLimit = 20

// SubmitResult is returned once the job record has committed; a jobID is
// never observable before its row exists.
type SubmitResult struct {
	JobID        string
	OperationRef string
}

// PollResult reports one observation of a job. Done=false means keep
// polling; Done=true carries the terminal outcome.
type PollResult struct {
	Done        bool
	Success     bool
	ArtifactRef string
}

// Orchestrator ties the ledger, job store, generation gateway and
// materializer into the submit/poll/settle state machine. All progress is
// driven by client calls; it owns no timers.
type Orchestrator struct {
	ledger       domain.Ledger
	jobs         domain.JobRepository
	gateway      video.Gateway
	materializer ArtifactMaterializer
	logger       infra.Logger
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(
	ledger domain.Ledger,
	jobs domain.JobRepository,
	gateway video.Gateway,
	materializer ArtifactMaterializer,
	logger infra.Logger,
) *Orchestrator {
	return &Orchestrator{
		ledger:       ledger,
		jobs:         jobs,
		gateway:      gateway,
		materializer: materializer,
		logger:       logger,
	}
}

// Submit charges one credit, opens a render operation upstream and records
// the pending job. The charge comes first so a broke account never triggers
// billable upstream work. A charge whose upstream create subsequently fails
// is not refunded; the loss is logged for operators.
func (o *Orchestrator) Submit(ctx context.Context, ownerID, prompt string, params domain.RenderParams) (*SubmitResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	if params.AspectRatio == "" {
		params.AspectRatio = "16:9"
	}
	if params.DurationSeconds <= 0 {
		params.DurationSeconds = 4
	}

	if err := o.ledger.Charge(ctx, ownerID, renderCost); err != nil {
		return nil, err
	}

	operationRef, err := o.gateway.Create(ctx, prompt, params)
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("owner_id", ownerID).
			Int("credits", renderCost).
			Msg("render create failed after charge; credit not refunded")
		return nil, err
	}

	job := &domain.Job{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Prompt:       prompt,
		Params:       params,
		OperationRef: operationRef,
		Status:       domain.JobStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}

	o.logger.Info().
		Str("job_id", job.ID).
		Str("owner_id", ownerID).
		Str("operation", operationRef).
		Msg("render submitted")
	return &SubmitResult{JobID: job.ID, OperationRef: operationRef}, nil
}

// Poll advances one job by a single observation. Terminal jobs short-circuit
// without touching the gateway or the materializer, which is what makes
// repeated polling safe and cheap. A render that finished without an asset,
// or whose materialization failed, settles as a failed job inside a
// successful poll response; only auth, not-found and gateway-read problems
// surface as errors.
func (o *Orchestrator) Poll(ctx context.Context, ownerID, jobID string) (*PollResult, error) {
	job, err := o.jobs.Get(ctx, ownerID, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return terminalResult(job), nil
	}

	op, err := o.gateway.Query(ctx, job.OperationRef)
	if err != nil {
		// Leave the job pending; a transient read failure must not settle it.
		return nil, err
	}
	if !op.Finished {
		return &PollResult{Done: false}, nil
	}

	if op.AssetURI == "" {
		settled, err := o.jobs.MarkFailed(ctx, job.ID, op.FailureDetail)
		if err != nil {
			return nil, fmt.Errorf("settle failed render: %w", err)
		}
		o.logger.Info().Str("job_id", job.ID).Str("detail", op.FailureDetail).Msg("render failed upstream")
		return terminalResult(settled), nil
	}

	artifactRef, err := o.materializer.Materialize(ctx, ownerID, job.ID, op.AssetURI)
	if err != nil {
		settled, markErr := o.jobs.MarkFailed(ctx, job.ID, err.Error())
		if markErr != nil {
			return nil, fmt.Errorf("settle failed materialization: %w", markErr)
		}
		o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("materialization failed")
		return terminalResult(settled), nil
	}

	settled, err := o.jobs.MarkDone(ctx, job.ID, artifactRef)
	if err != nil {
		return nil, fmt.Errorf("settle done render: %w", err)
	}
	o.logger.Info().Str("job_id", job.ID).Msg("render completed")
	return terminalResult(settled), nil
}

// List returns the owner's most recent jobs.
func (o *Orchestrator) List(ctx context.Context, ownerID string) ([]domain.Job, error) {
	return o.jobs.List(ctx, ownerID, defaultListLimit)
}

// terminalResult projects a stored terminal job onto a poll response. A
// racing poll may have settled the job differently than this call intended;
// the stored row wins either way.
func terminalResult(job *domain.Job) *PollResult {
	return &PollResult{
		Done:        true,
		Success:     job.Status == domain.JobStatusDone,
		ArtifactRef: job.ArtifactRef,
	}
}
