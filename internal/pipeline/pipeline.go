package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
	"github.com/dvloznov/fraud-analyzer/internal/fraud"
)

// PipelineStep represents a single step of report assembly.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps for one account.
type PipelineState struct {
	AccountID    string
	Transactions []domain.Transaction

	Statistics        *fraud.Statistics
	Detections        []fraud.Detection
	RiskScore         fraud.RiskScore
	KnowledgeFindings []KnowledgeFinding
	Narratives        []Narrative
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially. The first failing
// step stops the run.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
