// Package wizard drives the five-step interview experience submission flow:
// company selection, round selection, one data form per selected round, a
// review step, and a terminal success state.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Step int

const (
	StepCompanySelection Step = iota
	StepRoundSelection
	StepRoundData
	StepReview
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepCompanySelection:
		return "company-selection"
	case StepRoundSelection:
		return "round-selection"
	case StepRoundData:
		return "round-data"
	case StepReview:
		return "review"
	case StepSuccess:
		return "success"
	default:
		return "unknown"
	}
}

var (
	ErrStepIncomplete   = errors.New("current step is incomplete")
	ErrAlreadySubmitted = errors.New("experience already submitted")
	ErrNotAtReview      = errors.New("submission is only possible from the review step")
	ErrNoPreviousStep   = errors.New("already at the first step")
)

// RoundNames lists the supported round types.
var RoundNames = []string{"aptitude", "coding", "technical", "hr", "group discussion"}

var roundRequiredFields = map[string][]string{
	"aptitude":         {"attemptedQ", "correctQ", "difficulty"},
	"coding":           {"difficulty", "timeLimit", "languagesUsed"},
	"technical":        {"difficulty", "duration", "focusTopics"},
	"hr":               {"duration", "rating"},
	"group discussion": {"topic", "duration", "rating"},
}

type questionCap struct {
	field string
	max   int
}

var roundQuestionCaps = map[string]questionCap{
	"aptitude":  {"sampleQuestions", 3},
	"coding":    {"top3Questions", 3},
	"technical": {"top5Questions", 5},
	"hr":        {"topQuestions", 8},
}

// Submission is the payload the wizard assembles, shaped exactly like the
// POST /api/experiences request body.
type Submission struct {
	CompanyID         string                            `json:"companyId"`
	CompanyName       string                            `json:"companyName"`
	JobRole           string                            `json:"jobRole"`
	Status            string                            `json:"status"`
	SelectedRounds    []string                          `json:"selectedRounds"`
	RoundsData        map[string]map[string]interface{} `json:"roundsData"`
	OverallRating     int                               `json:"overallRating"`
	ExperienceSummary string                            `json:"experienceSummary"`
}

// Submitter delivers the finished submission; in the app it is the API
// client.
type Submitter interface {
	SubmitExperience(ctx context.Context, payload interface{}) error
}

// Wizard is the submission state machine. It is not safe for concurrent
// use; each submission flow owns its own instance.
type Wizard struct {
	step       Step
	roundIndex int
	submission Submission
	submitted  bool
	submitter  Submitter
}

func New(submitter Submitter) *Wizard {
	return &Wizard{
		step:       StepCompanySelection,
		submitter:  submitter,
		submission: Submission{RoundsData: map[string]map[string]interface{}{}},
	}
}

func (w *Wizard) Step() Step {
	return w.step
}

// CurrentRound reports which round's form is active during the round-data
// step.
func (w *Wizard) CurrentRound() (string, bool) {
	if w.step != StepRoundData || w.roundIndex >= len(w.submission.SelectedRounds) {
		return "", false
	}
	return w.submission.SelectedRounds[w.roundIndex], true
}

func (w *Wizard) Submission() Submission {
	return w.submission
}

// SetCompany records the company, job role and interview outcome. A blank
// status defaults to "Pending".
func (w *Wizard) SetCompany(companyID, companyName, jobRole, status string) error {
	if w.step != StepCompanySelection {
		return fmt.Errorf("company can only be set at the %s step", StepCompanySelection)
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "Pending"
	}
	switch status {
	case "Selected", "Rejected", "Pending":
	default:
		return fmt.Errorf("status must be Selected, Rejected or Pending")
	}
	w.submission.CompanyID = strings.TrimSpace(companyID)
	w.submission.CompanyName = strings.TrimSpace(companyName)
	w.submission.JobRole = strings.TrimSpace(jobRole)
	w.submission.Status = status
	return nil
}

func (w *Wizard) SelectRounds(rounds []string) error {
	if w.step != StepRoundSelection {
		return fmt.Errorf("rounds can only be selected at the %s step", StepRoundSelection)
	}
	seen := map[string]bool{}
	for _, round := range rounds {
		if !knownRound(round) {
			return fmt.Errorf("unknown round type %q", round)
		}
		if seen[round] {
			return fmt.Errorf("round %q selected more than once", round)
		}
		seen[round] = true
	}
	w.submission.SelectedRounds = append([]string(nil), rounds...)

	// Drop stale forms for rounds that are no longer selected.
	for round := range w.submission.RoundsData {
		if !seen[round] {
			delete(w.submission.RoundsData, round)
		}
	}
	w.roundIndex = 0
	return nil
}

// SetRoundData records the form for the active round. The record is
// validated field by field before it is accepted.
func (w *Wizard) SetRoundData(fields map[string]interface{}) error {
	round, ok := w.CurrentRound()
	if !ok {
		return fmt.Errorf("no active round at the %s step", w.step)
	}
	if err := validateRound(round, fields); err != nil {
		return err
	}
	w.submission.RoundsData[round] = fields
	return nil
}

func (w *Wizard) SetReview(status string, overallRating int, summary string) error {
	if w.step != StepReview {
		return fmt.Errorf("review details can only be set at the %s step", StepReview)
	}
	switch status {
	case "Selected", "Rejected", "Pending":
	default:
		return fmt.Errorf("status must be Selected, Rejected or Pending")
	}
	if overallRating < 1 || overallRating > 5 {
		return fmt.Errorf("overall rating must be between 1 and 5")
	}
	w.submission.Status = status
	w.submission.OverallRating = overallRating
	w.submission.ExperienceSummary = strings.TrimSpace(summary)
	return nil
}

// Next advances the flow, refusing to leave a step whose data is missing.
func (w *Wizard) Next() error {
	switch w.step {
	case StepCompanySelection:
		if w.submission.CompanyID == "" || w.submission.CompanyName == "" || w.submission.JobRole == "" || w.submission.Status == "" {
			return fmt.Errorf("%w: company, job role and status are required", ErrStepIncomplete)
		}
		w.step = StepRoundSelection
		return nil
	case StepRoundSelection:
		if len(w.submission.SelectedRounds) == 0 {
			return fmt.Errorf("%w: select at least one round", ErrStepIncomplete)
		}
		w.step = StepRoundData
		w.roundIndex = 0
		return nil
	case StepRoundData:
		round, _ := w.CurrentRound()
		if _, ok := w.submission.RoundsData[round]; !ok {
			return fmt.Errorf("%w: fill in the %s round first", ErrStepIncomplete, round)
		}
		if w.roundIndex < len(w.submission.SelectedRounds)-1 {
			w.roundIndex++
			return nil
		}
		w.step = StepReview
		return nil
	case StepReview:
		return errors.New("use Submit to finish the flow")
	default:
		return ErrAlreadySubmitted
	}
}

// Back returns to the previous form. Within the round-data step it walks
// back through the selected rounds before leaving the step.
func (w *Wizard) Back() error {
	switch w.step {
	case StepCompanySelection:
		return ErrNoPreviousStep
	case StepRoundSelection:
		w.step = StepCompanySelection
		return nil
	case StepRoundData:
		if w.roundIndex > 0 {
			w.roundIndex--
			return nil
		}
		w.step = StepRoundSelection
		return nil
	case StepReview:
		w.step = StepRoundData
		w.roundIndex = len(w.submission.SelectedRounds) - 1
		return nil
	default:
		return ErrAlreadySubmitted
	}
}

// Submit validates the whole payload once more and delivers it. It can run
// at most once; success moves the wizard to its terminal step.
func (w *Wizard) Submit(ctx context.Context) error {
	if w.submitted {
		return ErrAlreadySubmitted
	}
	if w.step != StepReview {
		return ErrNotAtReview
	}
	if w.submission.Status == "" || w.submission.OverallRating == 0 {
		return fmt.Errorf("%w: status and rating are required", ErrStepIncomplete)
	}
	if err := validatePayload(w.submission); err != nil {
		return err
	}

	if err := w.submitter.SubmitExperience(ctx, w.submission); err != nil {
		return err
	}
	w.submitted = true
	w.step = StepSuccess
	return nil
}

// validatePayload enforces the invariant the server checks too: the round
// record keys match the selected rounds exactly.
func validatePayload(sub Submission) error {
	selected := map[string]bool{}
	for _, round := range sub.SelectedRounds {
		selected[round] = true
	}
	for round := range sub.RoundsData {
		if !selected[round] {
			return fmt.Errorf("round data for %q was not selected", round)
		}
	}
	for _, round := range sub.SelectedRounds {
		fields, ok := sub.RoundsData[round]
		if !ok {
			return fmt.Errorf("missing details for the %s round", round)
		}
		if err := validateRound(round, fields); err != nil {
			return err
		}
	}
	return nil
}

func validateRound(round string, fields map[string]interface{}) error {
	for _, field := range roundRequiredFields[round] {
		if !fieldPresent(fields[field]) {
			return fmt.Errorf("field %q is required for the %s round", field, round)
		}
	}
	if qc, ok := roundQuestionCaps[round]; ok {
		if list, ok := fields[qc.field].([]interface{}); ok && len(list) > qc.max {
			return fmt.Errorf("at most %d entries allowed in %q for the %s round", qc.max, qc.field, round)
		}
	}
	return nil
}

func fieldPresent(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []interface{}:
		return len(v) > 0
	default:
		return true
	}
}

func knownRound(round string) bool {
	for _, name := range RoundNames {
		if name == round {
			return true
		}
	}
	return false
}
