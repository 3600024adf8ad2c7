package application

import (
	"context"
	"expvar"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
)

// Stage labels one step of an orchestration
type Stage string

const (
	StageChecking    Stage = "checking"
	StageAllocating  Stage = "allocating"
	StageAggregating Stage = "aggregating"
	StagePersisting  Stage = "persisting"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// stageCounts is published under /debug/vars as "<op>.<stage>" -> entries
var stageCounts = expvar.NewMap("orchestration_stages")

type step struct {
	stage Stage
	run   func(ctx context.Context) error
}

// pipeline runs its steps strictly in order. The first failing step ends the
// run and its error is returned unchanged.
type pipeline struct {
	op     string
	logger *logrus.Logger
	steps  []step
}

func newPipeline(op string, logger *logrus.Logger) *pipeline {
	return &pipeline{op: op, logger: logger}
}

func (p *pipeline) then(stage Stage, run func(ctx context.Context) error) *pipeline {
	p.steps = append(p.steps, step{stage: stage, run: run})
	return p
}

func (p *pipeline) enter(stage Stage) *logrus.Entry {
	stageCounts.Add(p.op+"."+string(stage), 1)
	entry := p.logger.WithFields(logrus.Fields{"op": p.op, "stage": stage})
	entry.Debug("stage entered")
	return entry
}

func (p *pipeline) run(ctx context.Context) error {
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			p.enter(StageFailed).WithError(err).Warn("orchestration cancelled")
			return apperr.Store(p.op, err, "%s cancelled before %s: %v", p.op, s.stage, err)
		}
		entry := p.enter(s.stage)
		if err := s.run(ctx); err != nil {
			entry.WithError(err).Warn("orchestration step failed")
			p.enter(StageFailed)
			return err
		}
	}
	p.enter(StageDone)
	return nil
}

// stageCount reads one stage counter
func stageCount(op string, stage Stage) int64 {
	v, ok := stageCounts.Get(op + "." + string(stage)).(*expvar.Int)
	if !ok {
		return 0
	}
	return v.Value()
}
