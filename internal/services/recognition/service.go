package recognition

import (
	"context"

	apperrors "pocket-pharmacist/internal/common/errors"
	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/intent"
	"pocket-pharmacist/internal/models"
)

// maxSlotResolutionDepth bounds the cached-slot auto-fill loop. A dialog
// that keeps eliciting a slot the cache already answers would otherwise
// never converge.
const maxSlotResolutionDepth = 3

// Service is the dialog session state machine. It turns one classifier
// response into a resolved intent, a continuation request, or an
// unknown-intent signal, auto-filling elicited slots from the
// session-attribute cache.
type Service struct {
	classifier Classifier
	logger     logger.Logger
}

func NewService(classifier Classifier, log logger.Logger) *Service {
	return &Service{
		classifier: classifier,
		logger: log.With(map[string]interface{}{
			"service": "recognition",
		}),
	}
}

// RecognizeIntent resolves one user turn. The returned session state is the
// classifier's, verbatim, on every branch, so the caller can present it
// back on the next turn. The auto-fill loop is explicit and bounded rather
// than recursive, which makes the fatal bound trivial to see.
func (s *Service) RecognizeIntent(ctx context.Context, text, sessionID string, state models.SessionState) (*Response, error) {
	for depth := 0; ; depth++ {
		if depth > maxSlotResolutionDepth {
			return nil, apperrors.NewRecursionLimitExceededError(depth)
		}

		turn, err := s.classifier.RecognizeText(ctx, text, sessionID, state)
		if err != nil {
			return nil, err
		}
		state = turn.State

		if turn.Status == StatusFailed || !turn.Interpreted {
			s.logger.Info("no usable interpretation", map[string]interface{}{
				"sessionId": sessionID,
				"status":    string(turn.Status),
			})
			return &Response{
				Intent:       intent.Unknown{Message: turn.Message},
				SessionState: state,
			}, nil
		}

		if turn.Status == StatusFulfilled || turn.Status == StatusReadyForFulfillment {
			return s.resolveFulfilled(sessionID, turn, state)
		}

		if turn.Status == StatusInProgress || turn.Status == StatusFulfillmentInProgress {
			if turn.Action == ActionElicitSlot {
				if cached := turn.Attributes[turn.SlotToElicit]; cached != "" {
					// A value supplied earlier in the conversation satisfies
					// this elicitation; feed it back instead of asking again.
					s.logger.Debug("auto-filling elicited slot from session attributes", map[string]interface{}{
						"sessionId": sessionID,
						"slot":      turn.SlotToElicit,
						"depth":     depth,
					})
					text = cached
					continue
				}
				if turn.IntentName != "" && turn.SlotToElicit != "" {
					return &Response{
						Intent: intent.SlotElicitation{
							IntentName: turn.IntentName,
							SlotName:   turn.SlotToElicit,
							Message:    turn.Message,
						},
						SessionState: state,
					}, nil
				}
			}

			if turn.Action == ActionConfirmIntent && turn.IntentName != "" && len(turn.Slots) > 0 {
				return &Response{
					Intent: intent.Confirmation{
						IntentName: turn.IntentName,
						Slots:      turn.Slots,
						Message:    turn.Message,
					},
					SessionState: state,
				}, nil
			}

			return &Response{
				Intent:       intent.InProgress{Message: turn.Message},
				SessionState: state,
			}, nil
		}

		s.logger.Warn("unknown dialog status", map[string]interface{}{
			"sessionId": sessionID,
			"status":    string(turn.Status),
		})
		return &Response{
			Intent:       intent.Unknown{Message: turn.Message},
			SessionState: state,
		}, nil
	}
}

// resolveFulfilled constructs the typed drug intent for a completed dialog
// and merges any newly observed drug names into the session-attribute cache
// so later elicitations in the same conversation can skip re-asking.
func (s *Service) resolveFulfilled(sessionID string, turn *Turn, state models.SessionState) (*Response, error) {
	attrs := make(map[string]string, len(turn.Attributes)+2)
	for k, v := range turn.Attributes {
		attrs[k] = v
	}
	if v := turn.Slots[intent.SlotDrugName]; v != "" {
		attrs[intent.SlotDrugName] = v
	}
	if v := turn.Slots[intent.SlotOtherDrug]; v != "" {
		attrs[intent.SlotOtherDrug] = v
	}

	if len(attrs) > 0 {
		updated, err := s.classifier.WriteAttributes(state, attrs)
		if err != nil {
			s.logger.Warn("could not update session attributes", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		} else {
			state = updated
		}
	}

	resolved := intent.FromClassification(turn.IntentName, turn.Slots, turn.Message)
	if _, ok := resolved.(intent.Unknown); ok {
		s.logger.Info("fulfilled dialog missing required slots", map[string]interface{}{
			"sessionId": sessionID,
			"intent":    turn.IntentName,
		})
	}

	return &Response{
		Intent:       resolved,
		SessionState: state,
	}, nil
}
