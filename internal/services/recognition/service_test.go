package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pocket-pharmacist/internal/common/errors"
	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/intent"
	"pocket-pharmacist/internal/models"
)

// scriptedClassifier replays a fixed sequence of turns and records the text
// of every call. When the script runs out it keeps replaying the last turn.
type scriptedClassifier struct {
	turns []*Turn
	err   error
	texts []string
}

func (c *scriptedClassifier) RecognizeText(_ context.Context, text, _ string, _ models.SessionState) (*Turn, error) {
	c.texts = append(c.texts, text)
	if c.err != nil {
		return nil, c.err
	}
	i := len(c.texts) - 1
	if i >= len(c.turns) {
		i = len(c.turns) - 1
	}
	return c.turns[i], nil
}

func (c *scriptedClassifier) WriteAttributes(_ models.SessionState, attrs map[string]string) (models.SessionState, error) {
	raw, err := json.Marshal(map[string]interface{}{"SessionAttributes": attrs})
	return models.SessionState(raw), err
}

func stateWith(t *testing.T, attrs map[string]string) models.SessionState {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"SessionAttributes": attrs})
	require.NoError(t, err)
	return models.SessionState(raw)
}

func TestRecognizeIntent_FulfilledProducesTypedIntent(t *testing.T) {
	classifier := &scriptedClassifier{
		turns: []*Turn{{
			Status:      StatusFulfilled,
			IntentName:  intent.NameDrugSideEffects,
			Slots:       map[string]string{intent.SlotDrugName: "aspirin"},
			Interpreted: true,
			State:       stateWith(t, nil),
		}},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "side effects of aspirin", "s-1", nil)
	require.NoError(t, err)
	assert.Equal(t, intent.DrugSideEffects{DrugName: "aspirin"}, resp.Intent)
	assert.Len(t, classifier.texts, 1)

	// Fulfillment writes the observed drug name into the attribute cache.
	var envelope struct {
		SessionAttributes map[string]string
	}
	require.NoError(t, json.Unmarshal(resp.SessionState, &envelope))
	assert.Equal(t, "aspirin", envelope.SessionAttributes[intent.SlotDrugName])
}

func TestRecognizeIntent_FailedStatusIsUnknown(t *testing.T) {
	classifier := &scriptedClassifier{
		turns: []*Turn{{
			Status:      StatusFailed,
			Message:     "Sorry, I didn't get that.",
			Interpreted: true,
			State:       models.SessionState(`{}`),
		}},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "gibberish", "s-1", nil)
	require.NoError(t, err)
	assert.Equal(t, intent.Unknown{Message: "Sorry, I didn't get that."}, resp.Intent)
	assert.Equal(t, models.SessionState(`{}`), resp.SessionState)
}

func TestRecognizeIntent_NoInterpretationIsUnknown(t *testing.T) {
	classifier := &scriptedClassifier{
		turns: []*Turn{{
			Status:      StatusInProgress,
			Interpreted: false,
		}},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "???", "s-1", nil)
	require.NoError(t, err)
	assert.IsType(t, intent.Unknown{}, resp.Intent)
}

func TestRecognizeIntent_FulfilledMissingSlotIsUnknown(t *testing.T) {
	classifier := &scriptedClassifier{
		turns: []*Turn{{
			Status:      StatusReadyForFulfillment,
			IntentName:  intent.NameDrugInteractions,
			Slots:       map[string]string{intent.SlotDrugName: "warfarin"},
			Message:     "And the other drug?",
			Interpreted: true,
		}},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "does warfarin interact", "s-1", nil)
	require.NoError(t, err)
	assert.Equal(t, intent.Unknown{Message: "And the other drug?"}, resp.Intent)
}

func TestRecognizeIntent_ElicitationWithoutCacheSurfacesPrompt(t *testing.T) {
	classifier := &scriptedClassifier{
		turns: []*Turn{{
			Status:       StatusInProgress,
			Action:       ActionElicitSlot,
			IntentName:   intent.NameDrugDosage,
			SlotToElicit: intent.SlotDrugName,
			Attributes:   map[string]string{},
			Message:      "Which drug?",
			Interpreted:  true,
			State:        models.SessionState(`{"a":1}`),
		}},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "what's the dosage", "s-1", nil)
	require.NoError(t, err)
	assert.Equal(t, intent.SlotElicitation{
		IntentName: intent.NameDrugDosage,
		SlotName:   intent.SlotDrugName,
		Message:    "Which drug?",
	}, resp.Intent)
	assert.Equal(t, models.SessionState(`{"a":1}`), resp.SessionState)
	assert.Len(t, classifier.texts, 1)
}

func TestRecognizeIntent_CachedSlotAutoFillsElicitation(t *testing.T) {
	classifier := &scriptedClassifier{
		turns: []*Turn{
			{
				Status:       StatusInProgress,
				Action:       ActionElicitSlot,
				IntentName:   intent.NameDrugDosage,
				SlotToElicit: intent.SlotDrugName,
				Attributes:   map[string]string{intent.SlotDrugName: "aspirin"},
				Message:      "Which drug?",
				Interpreted:  true,
			},
			{
				Status:      StatusFulfilled,
				IntentName:  intent.NameDrugDosage,
				Slots:       map[string]string{intent.SlotDrugName: "aspirin"},
				Interpreted: true,
			},
		},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "what's the dosage", "s-1", stateWith(t, map[string]string{intent.SlotDrugName: "aspirin"}))
	require.NoError(t, err)
	assert.Equal(t, intent.DrugDosage{DrugName: "aspirin"}, resp.Intent)

	// The cached value was replayed as user input instead of re-asking.
	require.Len(t, classifier.texts, 2)
	assert.Equal(t, "aspirin", classifier.texts[1])
}

func TestRecognizeIntent_SlotResolutionIsBounded(t *testing.T) {
	// A classifier that keeps eliciting a slot the cache already answers
	// would loop forever without the depth bound.
	classifier := &scriptedClassifier{
		turns: []*Turn{{
			Status:       StatusInProgress,
			Action:       ActionElicitSlot,
			IntentName:   intent.NameDrugDosage,
			SlotToElicit: intent.SlotDrugName,
			Attributes:   map[string]string{intent.SlotDrugName: "aspirin"},
			Interpreted:  true,
		}},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "what's the dosage", "s-1", nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, apperrors.ErrCodeRecursionLimitExceeded, apperrors.CodeOf(err))
	// Depths 0 through 3 each call the classifier; depth 4 fails first.
	assert.Len(t, classifier.texts, 4)
}

func TestRecognizeIntent_ConfirmationSurfaces(t *testing.T) {
	classifier := &scriptedClassifier{
		turns: []*Turn{{
			Status:      StatusInProgress,
			Action:      ActionConfirmIntent,
			IntentName:  intent.NameDrugInteractions,
			Slots:       map[string]string{intent.SlotDrugName: "warfarin", intent.SlotOtherDrug: "aspirin"},
			Message:     "Check interactions between warfarin and aspirin?",
			Interpreted: true,
		}},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "warfarin and aspirin", "s-1", nil)
	require.NoError(t, err)
	confirmation, ok := resp.Intent.(intent.Confirmation)
	require.True(t, ok)
	assert.Equal(t, intent.NameDrugInteractions, confirmation.IntentName)
	assert.Equal(t, "warfarin", confirmation.Slots[intent.SlotDrugName])
}

func TestRecognizeIntent_OpenDialogWithoutActionIsInProgress(t *testing.T) {
	classifier := &scriptedClassifier{
		turns: []*Turn{{
			Status:      StatusFulfillmentInProgress,
			Action:      ActionDelegate,
			Message:     "Working on it.",
			Interpreted: true,
		}},
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "anything", "s-1", nil)
	require.NoError(t, err)
	assert.Equal(t, intent.InProgress{Message: "Working on it."}, resp.Intent)
}

func TestRecognizeIntent_ClassifierErrorPropagates(t *testing.T) {
	classifier := &scriptedClassifier{
		err: apperrors.NewClassifierUnavailableError(errors.New("connection refused")),
	}
	svc := NewService(classifier, logger.NewTestLogger(t))

	resp, err := svc.RecognizeIntent(context.Background(), "anything", "s-1", nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, apperrors.ErrCodeClassifierUnavailable, apperrors.CodeOf(err))
}
