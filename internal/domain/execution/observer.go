package execution

import "github.com/felixgeelhaar/benchup/internal/domain/compiler"

// Observer receives pipeline progress. Calls happen on the executing goroutine.
type Observer interface {
	StepStarted(runID string, step compiler.Step)
	StepFinished(runID string, result StepResult)
	RunFinished(report *Report)
}

// ObserverFuncs adapts optional callbacks to Observer.
type ObserverFuncs struct {
	OnStepStarted  func(runID string, step compiler.Step)
	OnStepFinished func(runID string, result StepResult)
	OnRunFinished  func(report *Report)
}

// StepStarted implements Observer.
func (o ObserverFuncs) StepStarted(runID string, step compiler.Step) {
	if o.OnStepStarted != nil {
		o.OnStepStarted(runID, step)
	}
}

// StepFinished implements Observer.
func (o ObserverFuncs) StepFinished(runID string, result StepResult) {
	if o.OnStepFinished != nil {
		o.OnStepFinished(runID, result)
	}
}

// RunFinished implements Observer.
func (o ObserverFuncs) RunFinished(report *Report) {
	if o.OnRunFinished != nil {
		o.OnRunFinished(report)
	}
}
