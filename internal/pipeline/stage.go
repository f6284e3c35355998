// Package pipeline orchestrates the training workflow as an ordered
// list of stages: ingest, validate, split, train, evaluate. Stages
// communicate through artifacts on disk; every run and per-stage
// outcome is recorded in the state store.
package pipeline

import "fmt"

// Stage identifies one step of the training workflow.
type Stage string

const (
	StageIngest   Stage = "ingest"
	StageValidate Stage = "validate"
	StageSplit    Stage = "split"
	StageTrain    Stage = "train"
	StageEvaluate Stage = "evaluate"
)

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageIngest, StageValidate, StageSplit, StageTrain, StageEvaluate}
}

// ParseStage converts a stage name into a Stage.
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", name)
}

// gated reports whether the stage requires a successful validation
// status artifact before it may run standalone.
func (s Stage) gated() bool {
	return s == StageSplit || s == StageTrain
}
