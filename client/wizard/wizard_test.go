package wizard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/divyesh007-delta/Placify-1/client/wizard"
)

type captureSubmitter struct {
	payloads []interface{}
	err      error
}

func (c *captureSubmitter) SubmitExperience(_ context.Context, payload interface{}) error {
	if c.err != nil {
		return c.err
	}
	c.payloads = append(c.payloads, payload)
	return nil
}

func aptitudeFields() map[string]interface{} {
	return map[string]interface{}{
		"attemptedQ":      30,
		"correctQ":        24,
		"difficulty":      "Medium",
		"sampleQuestions": []interface{}{"Trains and speed", "Profit and loss"},
	}
}

func TestFullSubmissionFlow(t *testing.T) {
	sink := &captureSubmitter{}
	w := wizard.New(sink)
	require.Equal(t, wizard.StepCompanySelection, w.Step())

	require.NoError(t, w.SetCompany("comp_google01", "Google", "SDE", "Selected"))
	require.NoError(t, w.Next())
	require.Equal(t, wizard.StepRoundSelection, w.Step())

	require.NoError(t, w.SelectRounds([]string{"aptitude", "hr"}))
	require.NoError(t, w.Next())
	require.Equal(t, wizard.StepRoundData, w.Step())

	round, ok := w.CurrentRound()
	require.True(t, ok)
	require.Equal(t, "aptitude", round)
	require.NoError(t, w.SetRoundData(aptitudeFields()))
	require.NoError(t, w.Next())

	round, ok = w.CurrentRound()
	require.True(t, ok)
	require.Equal(t, "hr", round)
	require.NoError(t, w.SetRoundData(map[string]interface{}{
		"duration": "30 minutes",
		"rating":   4,
	}))
	require.NoError(t, w.Next())
	require.Equal(t, wizard.StepReview, w.Step())

	require.NoError(t, w.SetReview("Selected", 4, "Smooth process, fast feedback."))
	require.NoError(t, w.Submit(context.Background()))
	require.Equal(t, wizard.StepSuccess, w.Step())

	require.Len(t, sink.payloads, 1)
	sub, ok := sink.payloads[0].(wizard.Submission)
	require.True(t, ok)
	require.Equal(t, "comp_google01", sub.CompanyID)
	require.Equal(t, "SDE", sub.JobRole)
	require.Equal(t, []string{"aptitude", "hr"}, sub.SelectedRounds)
	require.Len(t, sub.RoundsData, 2)
	require.Equal(t, "Selected", sub.Status)
	require.Equal(t, 4, sub.OverallRating)
}

func TestCompanyStepCarriesStatus(t *testing.T) {
	w := wizard.New(&captureSubmitter{})

	require.Error(t, w.SetCompany("comp_x", "Acme", "SDE", "Waitlisted"))

	// Status is part of the first step; leaving it blank means Pending, and
	// the flow never advances with it unset.
	require.NoError(t, w.SetCompany("comp_x", "Acme", "SDE", ""))
	require.NoError(t, w.Next())
	require.Equal(t, wizard.StepRoundSelection, w.Step())
	require.Equal(t, "Pending", w.Submission().Status)

	w = wizard.New(&captureSubmitter{})
	require.NoError(t, w.SetCompany("comp_y", "Initech", "QA", "Rejected"))
	require.NoError(t, w.Next())
	require.Equal(t, "Rejected", w.Submission().Status)
}

func TestNextGuardsIncompleteSteps(t *testing.T) {
	w := wizard.New(&captureSubmitter{})

	require.ErrorIs(t, w.Next(), wizard.ErrStepIncomplete)

	require.NoError(t, w.SetCompany("comp_x", "Acme", "Analyst", "Pending"))
	require.NoError(t, w.Next())
	require.ErrorIs(t, w.Next(), wizard.ErrStepIncomplete)

	require.NoError(t, w.SelectRounds([]string{"hr"}))
	require.NoError(t, w.Next())
	require.ErrorIs(t, w.Next(), wizard.ErrStepIncomplete)
}

func TestRoundValidation(t *testing.T) {
	w := wizard.New(&captureSubmitter{})
	require.NoError(t, w.SetCompany("comp_x", "Acme", "SDE", ""))
	require.NoError(t, w.Next())

	require.Error(t, w.SelectRounds([]string{"aptitude", "pub quiz"}))
	require.Error(t, w.SelectRounds([]string{"hr", "hr"}))

	require.NoError(t, w.SelectRounds([]string{"coding"}))
	require.NoError(t, w.Next())

	t.Run("missing required field", func(t *testing.T) {
		err := w.SetRoundData(map[string]interface{}{
			"difficulty": "Hard",
			"timeLimit":  "90 minutes",
		})
		require.ErrorContains(t, err, "languagesUsed")
	})

	t.Run("blank string is not present", func(t *testing.T) {
		err := w.SetRoundData(map[string]interface{}{
			"difficulty":    "  ",
			"timeLimit":     "90 minutes",
			"languagesUsed": []interface{}{"Go"},
		})
		require.ErrorContains(t, err, "difficulty")
	})

	t.Run("question cap", func(t *testing.T) {
		err := w.SetRoundData(map[string]interface{}{
			"difficulty":    "Hard",
			"timeLimit":     "90 minutes",
			"languagesUsed": []interface{}{"Go"},
			"top3Questions": []interface{}{"a", "b", "c", "d"},
		})
		require.ErrorContains(t, err, "top3Questions")
	})

	require.NoError(t, w.SetRoundData(map[string]interface{}{
		"difficulty":    "Hard",
		"timeLimit":     "90 minutes",
		"languagesUsed": []interface{}{"Go", "Python"},
		"top3Questions": []interface{}{"LRU cache", "Graph coloring"},
	}))
}

func TestReselectingRoundsDropsStaleData(t *testing.T) {
	w := wizard.New(&captureSubmitter{})
	require.NoError(t, w.SetCompany("comp_x", "Acme", "SDE", ""))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectRounds([]string{"aptitude", "hr"}))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetRoundData(aptitudeFields()))

	require.NoError(t, w.Back())
	require.Equal(t, wizard.StepRoundSelection, w.Step())
	require.NoError(t, w.SelectRounds([]string{"hr"}))

	sub := w.Submission()
	require.NotContains(t, sub.RoundsData, "aptitude")
}

func TestBackWalksRoundsAndSteps(t *testing.T) {
	w := wizard.New(&captureSubmitter{})
	require.NoError(t, w.SetCompany("comp_x", "Acme", "SDE", ""))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectRounds([]string{"hr", "group discussion"}))
	require.NoError(t, w.Next())

	require.NoError(t, w.SetRoundData(map[string]interface{}{"duration": "20 minutes", "rating": 3}))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetRoundData(map[string]interface{}{"topic": "Remote work", "duration": "15 minutes", "rating": 4}))
	require.NoError(t, w.Next())
	require.Equal(t, wizard.StepReview, w.Step())

	require.NoError(t, w.Back())
	round, ok := w.CurrentRound()
	require.True(t, ok)
	require.Equal(t, "group discussion", round)

	require.NoError(t, w.Back())
	round, _ = w.CurrentRound()
	require.Equal(t, "hr", round)

	require.NoError(t, w.Back())
	require.Equal(t, wizard.StepRoundSelection, w.Step())
	require.NoError(t, w.Back())
	require.Equal(t, wizard.StepCompanySelection, w.Step())
	require.ErrorIs(t, w.Back(), wizard.ErrNoPreviousStep)
}

func TestSubmitOnlyFromReviewAndOnlyOnce(t *testing.T) {
	sink := &captureSubmitter{}
	w := wizard.New(sink)
	require.ErrorIs(t, w.Submit(context.Background()), wizard.ErrNotAtReview)

	require.NoError(t, w.SetCompany("comp_x", "Acme", "SDE", ""))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectRounds([]string{"hr"}))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetRoundData(map[string]interface{}{"duration": "30 minutes", "rating": 5}))
	require.NoError(t, w.Next())

	require.ErrorIs(t, w.Submit(context.Background()), wizard.ErrStepIncomplete)

	require.NoError(t, w.SetReview("Pending", 3, ""))
	require.NoError(t, w.Submit(context.Background()))
	require.ErrorIs(t, w.Submit(context.Background()), wizard.ErrAlreadySubmitted)
	require.Len(t, sink.payloads, 1)
}

func TestSubmitterFailureKeepsWizardAtReview(t *testing.T) {
	sink := &captureSubmitter{err: errors.New("network down")}
	w := wizard.New(sink)
	require.NoError(t, w.SetCompany("comp_x", "Acme", "SDE", ""))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectRounds([]string{"hr"}))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetRoundData(map[string]interface{}{"duration": "30 minutes", "rating": 5}))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetReview("Rejected", 2, "Tough final round."))

	require.ErrorContains(t, w.Submit(context.Background()), "network down")
	require.Equal(t, wizard.StepReview, w.Step())

	sink.err = nil
	require.NoError(t, w.Submit(context.Background()))
	require.Equal(t, wizard.StepSuccess, w.Step())
}
