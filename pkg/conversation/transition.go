package conversation

// Effect is one action the Engine performs while applying a Decision.
type Effect string

const (
	EffectClose          Effect = "close"
	EffectReopen         Effect = "reopen"
	EffectSessionClosed  Effect = "session_closed"
	EffectAttachDocument Effect = "attach_document"
	EffectClearResults   Effect = "clear_results"
	EffectClearCriteria  Effect = "clear_criteria"
	EffectAskUpload      Effect = "ask_upload"
	EffectAskCriteria    Effect = "ask_criteria"
	EffectAskRestate     Effect = "ask_restate"
	EffectAskNewCriteria Effect = "ask_new_criteria"
	EffectExtract        Effect = "extract_criteria"
	EffectMerge          Effect = "merge_criteria"
	EffectValidate       Effect = "validate"
	EffectAnswerResults  Effect = "answer_results"
	EffectConverse       Effect = "converse"
)

// State is the part of a session the transition function looks at.
type State struct {
	Status         Status
	ShouldContinue bool
	HasCriteria    bool
}

// Turn is one classified user message. DocumentArrived is set only when an
// upload in this turn was stored and its text extracted.
type Turn struct {
	Intent          Intent
	DocumentArrived bool
	HasText         bool
}

// Decision is the outcome of a transition. Next and ShouldContinue apply once
// every effect succeeded. When an effect fails the session moves to OnFailure
// and keeps its ShouldContinue flag.
type Decision struct {
	Next           Status
	ShouldContinue bool
	OnFailure      Status
	Effects        []Effect
}

// Has reports whether the decision includes effect e.
func (d Decision) Has(e Effect) bool {
	for _, x := range d.Effects {
		if x == e {
			return true
		}
	}
	return false
}

func stay(s State, effects ...Effect) Decision {
	return Decision{Next: s.Status, ShouldContinue: s.ShouldContinue, OnFailure: s.Status, Effects: effects}
}

func move(from, next Status, effects ...Effect) Decision {
	return Decision{Next: next, ShouldContinue: true, OnFailure: from, Effects: effects}
}

// Transition is the pure state machine: it maps the current state and one
// turn to the next state and the effects that get it there.
func Transition(s State, t Turn) Decision {
	if !s.ShouldContinue {
		if t.Intent == IntentRestart {
			return Decision{Next: s.Status, ShouldContinue: true, OnFailure: s.Status, Effects: []Effect{EffectReopen}}
		}
		return stay(s, EffectSessionClosed)
	}

	if t.Intent == IntentStop {
		return Decision{Next: s.Status, ShouldContinue: false, OnFailure: s.Status, Effects: []Effect{EffectClose}}
	}

	if t.DocumentArrived {
		effects := []Effect{EffectAttachDocument, EffectClearResults}
		switch {
		case t.HasText && t.Intent == IntentProvideCriteria:
			return move(AwaitingCriteria, ReadyToValidate, append(effects, EffectClearCriteria, EffectExtract)...)
		case s.HasCriteria:
			return move(AwaitingCriteria, AwaitingCriteria, append(effects, EffectClearCriteria, EffectAskRestate)...)
		default:
			return move(AwaitingCriteria, AwaitingCriteria, append(effects, EffectAskCriteria)...)
		}
	}

	status := s.Status
	if (status == ReadyToValidate || status == Validated) && !s.HasCriteria {
		status = AwaitingCriteria
	}

	switch status {
	case AwaitingUpload:
		if t.Intent == IntentGeneral {
			return stay(s, EffectConverse, EffectAskUpload)
		}
		return stay(s, EffectAskUpload)

	case AwaitingCriteria:
		switch t.Intent {
		case IntentGeneral, IntentResultsQuestion:
			return move(status, AwaitingCriteria, EffectConverse)
		case IntentNewCriteria:
			return move(status, AwaitingCriteria, EffectAskNewCriteria)
		}
		return move(status, ReadyToValidate, EffectExtract)

	case ReadyToValidate:
		switch t.Intent {
		case IntentNewCriteria:
			return move(status, AwaitingCriteria, EffectClearCriteria, EffectClearResults, EffectAskNewCriteria)
		case IntentProvideCriteria, IntentReevaluate:
			return move(status, Validated, EffectMerge, EffectValidate)
		}
		return move(status, Validated, EffectValidate)

	case Validated:
		switch t.Intent {
		case IntentResultsQuestion:
			return stay(s, EffectAnswerResults)
		case IntentNewCriteria:
			return move(status, AwaitingCriteria, EffectClearCriteria, EffectClearResults, EffectAskNewCriteria)
		case IntentProvideCriteria, IntentReevaluate:
			return move(status, Validated, EffectMerge, EffectValidate)
		case IntentProceed:
			return move(status, Validated, EffectValidate)
		}
		return stay(s, EffectConverse)
	}

	return stay(s, EffectAskUpload)
}
