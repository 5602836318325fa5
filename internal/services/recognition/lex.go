package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimev2"
	lextypes "github.com/aws/aws-sdk-go-v2/service/lexruntimev2/types"

	apperrors "pocket-pharmacist/internal/common/errors"
	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/common/metrics"
	"pocket-pharmacist/internal/models"
)

// lexAPI is the slice of the Lex runtime client the adapter needs.
type lexAPI interface {
	RecognizeText(ctx context.Context, input *lexruntimev2.RecognizeTextInput) (*lexruntimev2.RecognizeTextOutput, error)
}

// LexClassifier adapts AWS Lex v2 to the Classifier contract. The opaque
// session state blob is the JSON form of the Lex session state, produced
// and consumed only here.
type LexClassifier struct {
	api    lexAPI
	config *Config
	logger logger.Logger
}

func NewLexClassifier(api lexAPI, config *Config, log logger.Logger) *LexClassifier {
	return &LexClassifier{
		api:    api,
		config: config,
		logger: log.With(map[string]interface{}{
			"classifier": "lex",
		}),
	}
}

func (c *LexClassifier) RecognizeText(ctx context.Context, text, sessionID string, state models.SessionState) (*Turn, error) {
	sessionState, err := c.decodeState(state)
	if err != nil {
		return nil, apperrors.NewUnexpectedFaultError(err)
	}

	input := &lexruntimev2.RecognizeTextInput{
		BotId:        aws.String(c.config.BotID),
		BotAliasId:   aws.String(c.config.BotAliasID),
		LocaleId:     aws.String(c.config.LocaleID),
		SessionId:    aws.String(sessionID),
		Text:         aws.String(text),
		SessionState: sessionState,
	}

	out, err := c.recognizeWithRetry(ctx, input)
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("lex", "error").Inc()
		return nil, apperrors.NewClassifierUnavailableError(err)
	}
	metrics.CollaboratorCalls.WithLabelValues("lex", "ok").Inc()

	return c.toTurn(out), nil
}

// WriteAttributes re-embeds an updated session-attribute cache into the
// opaque state blob without disturbing the rest of the Lex session state.
func (c *LexClassifier) WriteAttributes(state models.SessionState, attrs map[string]string) (models.SessionState, error) {
	envelope := make(map[string]interface{})
	if len(state) > 0 {
		if err := json.Unmarshal(state, &envelope); err != nil {
			return nil, err
		}
	}
	envelope["SessionAttributes"] = attrs
	return json.Marshal(envelope)
}

func (c *LexClassifier) recognizeWithRetry(ctx context.Context, input *lexruntimev2.RecognizeTextInput) (*lexruntimev2.RecognizeTextOutput, error) {
	var out *lexruntimev2.RecognizeTextOutput
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			c.logger.Warn("retrying classifier call", map[string]interface{}{
				"attempt": attempt,
				"error":   lastErr.Error(),
			})
		}

		callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		out, lastErr = c.api.RecognizeText(callCtx, input)
		cancel()

		if ctx.Err() != nil || errors.Is(lastErr, context.Canceled) {
			return nil, ctx.Err()
		}
		if lastErr == nil {
			return out, nil
		}
	}

	return nil, lastErr
}

func (c *LexClassifier) decodeState(state models.SessionState) (*lextypes.SessionState, error) {
	if len(state) == 0 {
		return nil, nil
	}

	var sessionState lextypes.SessionState
	if err := json.Unmarshal(state, &sessionState); err != nil {
		return nil, err
	}

	// Lex rejects slots that round-tripped as empty; drop them before resend.
	if sessionState.Intent != nil && sessionState.Intent.Slots != nil {
		for name, slot := range sessionState.Intent.Slots {
			if slot.Value == nil || slot.Value.InterpretedValue == nil {
				delete(sessionState.Intent.Slots, name)
			}
		}
	}

	return &sessionState, nil
}

func (c *LexClassifier) toTurn(out *lexruntimev2.RecognizeTextOutput) *Turn {
	turn := &Turn{
		Slots:       map[string]string{},
		Attributes:  map[string]string{},
		Interpreted: len(out.Interpretations) > 0,
	}

	if len(out.Messages) > 0 {
		turn.Message = aws.ToString(out.Messages[0].Content)
	}

	sessionState := out.SessionState
	if sessionState == nil {
		return turn
	}

	if raw, err := json.Marshal(sessionState); err == nil {
		turn.State = raw
	}
	for k, v := range sessionState.SessionAttributes {
		turn.Attributes[k] = v
	}
	if sessionState.DialogAction != nil {
		turn.Action = DialogAction(sessionState.DialogAction.Type)
		turn.SlotToElicit = aws.ToString(sessionState.DialogAction.SlotToElicit)
	}
	if sessionState.Intent != nil {
		turn.IntentName = aws.ToString(sessionState.Intent.Name)
		turn.Status = DialogStatus(sessionState.Intent.State)
		for name, slot := range sessionState.Intent.Slots {
			if slot.Value != nil && slot.Value.InterpretedValue != nil {
				turn.Slots[name] = aws.ToString(slot.Value.InterpretedValue)
			}
		}
	}

	return turn
}
