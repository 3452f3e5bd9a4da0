package migrate

import (
	"context"
	"fmt"
	"time"

	"wa-go/internal/config"
)

// StageStatus is how a stage ended inside Run.
type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusWarn    StageStatus = "warn"
	StatusFailed  StageStatus = "failed"
	StatusSkipped StageStatus = "skipped"
)

// StageResult is one row of a RunSummary.
type StageResult struct {
	Stage      Stage
	Status     StageStatus
	Detail     string
	Report     *Report // nil when skipped
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunSummary is the per-stage record of a Run, in execution order.
type RunSummary struct {
	DryRun bool
	Stages []StageResult
}

// Result returns the entry for stage, if it ran or was skipped.
func (r *RunSummary) Result(stage Stage) (StageResult, bool) {
	for _, sr := range r.Stages {
		if sr.Stage == stage {
			return sr, true
		}
	}
	return StageResult{}, false
}

// Run executes Pull, Decrypt, Convert and Push in that order.
//
// Only a Pull failure or a cancelled ctx fails the run; nothing after it is
// attempted. Decrypt is skipped without a key and Convert is skipped without
// contacts.vcf. Failures of the later stages are logged as warnings and
// recorded in the summary.
func (s *Service) Run(ctx context.Context, st *config.Settings) (*RunSummary, error) {
	summary := &RunSummary{DryRun: st.DryRun()}
	out := st.Output()
	local := Layout{Root: out}

	s.logger.Info("step 1: pull data")
	rep, err := s.Pull(ctx, st, "")
	s.record(summary, StagePull, rep, err)
	if err != nil {
		s.logger.Error("run aborted: pull failed", "error", err)
		return summary, fmt.Errorf("pulling data: %w", err)
	}

	if err := s.stopIfInterrupted(ctx); err != nil {
		return summary, err
	}

	s.logger.Info("step 2: decrypt databases")
	if st.Key() == "" {
		s.logger.Info("skipping decryption: no key provided")
		s.skip(summary, StageDecrypt, "no key provided")
	} else {
		rep, err := s.Decrypt(ctx, st, out, "")
		s.record(summary, StageDecrypt, rep, err)
		if err != nil || rep.Warned() {
			s.logger.Warn("decryption reported errors", "error", err)
		}
	}

	if err := s.stopIfInterrupted(ctx); err != nil {
		return summary, err
	}

	s.logger.Info("step 3: convert contacts")
	vcf, jsonPath := local.ContactsVCF(), local.ContactsJSON()
	exists, statErr := fileExists(vcf)
	switch {
	case statErr != nil:
		s.logger.Warn("cannot check for contacts.vcf", "path", vcf, "error", statErr)
		s.skip(summary, StageConvert, "cannot read contacts.vcf: "+statErr.Error())
	case exists:
		rep, err := s.Convert(ctx, vcf, jsonPath, st.DryRun())
		s.record(summary, StageConvert, rep, err)
		if err != nil {
			s.logger.Warn("contact conversion failed", "error", err)
		}
	case st.DryRun():
		s.logger.Info("would convert contacts once pulled", "in", vcf, "out", jsonPath)
		now := s.clock.Now()
		summary.Stages = append(summary.Stages, StageResult{
			Stage: StageConvert, Status: StatusOK, Detail: "simulated", StartedAt: now, FinishedAt: now,
		})
	default:
		s.logger.Info("no contacts.vcf found to convert")
		s.skip(summary, StageConvert, "no contacts.vcf")
	}

	if err := s.stopIfInterrupted(ctx); err != nil {
		return summary, err
	}

	s.logger.Info("step 4: push (restore)")
	rep, err = s.Push(ctx, out, st.PushDevice(), st.DryRun())
	s.record(summary, StagePush, rep, err)
	if err != nil {
		s.logger.Warn("push failed", "error", err)
	}

	if err := s.stopIfInterrupted(ctx); err != nil {
		return summary, err
	}

	s.logger.Info("run complete")
	return summary, nil
}

// stopIfInterrupted ends the run once ctx is cancelled. Later stages are not
// attempted and the run fails.
func (s *Service) stopIfInterrupted(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	s.logger.Error("run interrupted", "error", ctx.Err())
	return fmt.Errorf("run %w: %w", ErrInterrupted, ctx.Err())
}

func (s *Service) record(summary *RunSummary, stage Stage, rep *Report, err error) {
	summary.Stages = append(summary.Stages, NewStageResult(stage, rep, err))
}

// NewStageResult classifies one stage outcome: failed on err, warn when the
// report carries warnings, ok otherwise.
func NewStageResult(stage Stage, rep *Report, err error) StageResult {
	res := StageResult{Stage: stage, Status: StatusOK, Report: rep}
	if rep != nil {
		res.StartedAt, res.FinishedAt = rep.StartedAt, rep.FinishedAt
	}
	switch {
	case err != nil:
		res.Status = StatusFailed
		res.Detail = err.Error()
	case rep != nil && rep.Warned():
		res.Status = StatusWarn
		res.Detail = fmt.Sprintf("%d warning(s): %s", len(rep.Warnings), rep.Warnings[0])
	case rep != nil && rep.Count > 0:
		res.Detail = fmt.Sprintf("%d item(s)", rep.Count)
	}
	return res
}

func (s *Service) skip(summary *RunSummary, stage Stage, detail string) {
	now := s.clock.Now()
	summary.Stages = append(summary.Stages, StageResult{
		Stage: stage, Status: StatusSkipped, Detail: detail, StartedAt: now, FinishedAt: now,
	})
}
