// Package orchestration sequences translation, intent recognition,
// fulfillment, and reverse translation into one request/response cycle.
// All failure-to-response mapping lives here.
package orchestration

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "pocket-pharmacist/internal/common/errors"
	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/common/metrics"
	"pocket-pharmacist/internal/common/observability"
	"pocket-pharmacist/internal/intent"
	"pocket-pharmacist/internal/models"
	"pocket-pharmacist/internal/services/medicalinfo"
	"pocket-pharmacist/internal/services/recognition"
)

const defaultUnknownMessage = "I'm sorry, I couldn't understand your request. Could you please rephrase it?"

// Translator is the translation collaborator contract (see services/translation).
type Translator interface {
	TranslateText(ctx context.Context, text, sourceLang, targetLang string) (translated, detectedSource, detectedTarget string, err error)
}

// IntentRecognizer is the dialog state machine contract.
type IntentRecognizer interface {
	RecognizeIntent(ctx context.Context, text, sessionID string, state models.SessionState) (*recognition.Response, error)
}

// MedicalInfoProvider is the fulfillment resolver contract.
type MedicalInfoProvider interface {
	GetMedicalInfo(ctx context.Context, it intent.DrugIntent) medicalinfo.Response
}

type Handler struct {
	translator      Translator
	recognizer      IntentRecognizer
	medical         MedicalInfoProvider
	workingLanguage string
	logger          logger.Logger
	tracer          trace.Tracer
	obs             *observability.Observability
}

func NewHandler(translator Translator, recognizer IntentRecognizer, medical MedicalInfoProvider, workingLanguage string, log logger.Logger, tracer trace.Tracer, obs *observability.Observability) *Handler {
	if workingLanguage == "" {
		workingLanguage = "en"
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("orchestration")
	}
	return &Handler{
		translator:      translator,
		recognizer:      recognizer,
		medical:         medical,
		workingLanguage: workingLanguage,
		logger: log.With(map[string]interface{}{
			"component": "orchestration",
		}),
		tracer: tracer,
		obs:    obs,
	}
}

// ProcessQuery runs one conversational turn. It never panics outward and
// never returns a Go error: every outcome, expected or not, is a
// QueryResponse. On an internal fault the response carries the request's
// original session state so the conversation is not left on a corrupted
// context.
func (h *Handler) ProcessQuery(ctx context.Context, req *models.QueryRequest) (resp models.QueryResponse) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewUnexpectedFaultError(fmt.Errorf("panic: %v", r))
			h.logger.Error("query processing panicked", map[string]interface{}{
				"sessionId": req.SessionID,
				"panic":     fmt.Sprintf("%v", r),
			})
			resp = h.internalFailure(ctx, req, err)
		}
		outcome := "success"
		if _, failed := resp.(models.QueryFailure); failed {
			outcome = "failure"
		}
		metrics.QueriesProcessed.WithLabelValues(outcome).Inc()
		metrics.QueryDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		if h.obs != nil {
			h.obs.RecordQueryProcessed(ctx, outcome)
			h.obs.RecordQueryDuration(ctx, time.Since(start), outcome)
		}
	}()

	ctx, span := h.tracer.Start(ctx, "orchestration.process_query")
	defer span.End()

	h.logger.Info("processing query", map[string]interface{}{
		"sessionId": req.SessionID,
		"language":  req.Language,
	})

	return h.process(ctx, req)
}

func (h *Handler) process(ctx context.Context, req *models.QueryRequest) models.QueryResponse {
	// Step 1: inbound translation to the working language.
	translated, _, replyLang, failure := h.translateInbound(ctx, req)
	if failure != nil {
		return *failure
	}

	// Step 3: dialog session state machine.
	recognized, err := h.recognize(ctx, req, translated)
	if err != nil {
		return h.internalFailure(ctx, req, err)
	}

	// Steps 4-5: dispatch on the resolved intent.
	switch it := recognized.Intent.(type) {
	case intent.DrugIntent:
		return h.fulfill(ctx, req, it, recognized.SessionState, replyLang)
	case intent.Unknown:
		message := it.Message
		if message == "" {
			message = defaultUnknownMessage
		}
		return h.conversationalFailure(ctx, req, message, recognized.SessionState, replyLang, apperrors.ErrCodeIntentUnresolved)
	case intent.SlotElicitation:
		return h.conversationalFailure(ctx, req, it.Message, recognized.SessionState, replyLang, apperrors.ErrCodeDialogContinuation)
	case intent.Confirmation:
		return h.conversationalFailure(ctx, req, it.Message, recognized.SessionState, replyLang, apperrors.ErrCodeDialogContinuation)
	case intent.InProgress:
		return h.conversationalFailure(ctx, req, it.Message, recognized.SessionState, replyLang, apperrors.ErrCodeDialogContinuation)
	default:
		return h.internalFailure(ctx, req, apperrors.NewUnexpectedFaultError(fmt.Errorf("unhandled intent %T", it)))
	}
}

// translateInbound covers steps 1 and 2: translation into the working
// language and the language-detection policy. replyLang is the language the
// answer goes back in.
func (h *Handler) translateInbound(ctx context.Context, req *models.QueryRequest) (translated, detectedSource, replyLang string, failure *models.QueryFailure) {
	ctx, span := h.tracer.Start(ctx, "orchestration.translate_inbound")
	defer span.End()

	translated, detectedSource, _, err := h.translator.TranslateText(ctx, req.Text, req.Language, h.workingLanguage)
	if err != nil || translated == "" {
		lang := req.Language
		if lang == "" {
			lang = "auto"
		}
		if err != nil {
			h.logger.Error("inbound translation failed", map[string]interface{}{
				"sessionId": req.SessionID,
				"language":  lang,
				"error":     err.Error(),
			})
		}
		return "", "", "", &models.QueryFailure{
			Error:        fmt.Sprintf("Translation failed, language: %s", lang),
			SessionID:    req.SessionID,
			SessionState: req.SessionState,
		}
	}

	if req.Language == "" {
		if detectedSource == "" || detectedSource == "auto" {
			return "", "", "", &models.QueryFailure{
				Error:        "Language detection failed",
				SessionID:    req.SessionID,
				SessionState: req.SessionState,
			}
		}
		h.logger.Info("detected source language", map[string]interface{}{
			"sessionId": req.SessionID,
			"detected":  detectedSource,
		})
		return translated, detectedSource, detectedSource, nil
	}

	if detectedSource != "" && detectedSource != req.Language {
		// Detection disagreeing with an explicit language is not fatal;
		// the caller's choice wins.
		h.logger.Warn("detected language differs from requested", map[string]interface{}{
			"sessionId": req.SessionID,
			"requested": req.Language,
			"detected":  detectedSource,
		})
	}
	return translated, detectedSource, req.Language, nil
}

func (h *Handler) recognize(ctx context.Context, req *models.QueryRequest, translated string) (*recognition.Response, error) {
	ctx, span := h.tracer.Start(ctx, "orchestration.recognize_intent")
	defer span.End()
	return h.recognizer.RecognizeIntent(ctx, translated, req.SessionID, req.SessionState)
}

func (h *Handler) fulfill(ctx context.Context, req *models.QueryRequest, it intent.DrugIntent, state models.SessionState, replyLang string) models.QueryResponse {
	ctx, span := h.tracer.Start(ctx, "orchestration.fulfill")
	defer span.End()

	switch result := h.medical.GetMedicalInfo(ctx, it).(type) {
	case medicalinfo.MedicalInfo:
		text, failure := h.translateOutbound(ctx, req, result.Message, state, replyLang)
		if failure != nil {
			return *failure
		}
		return models.QuerySuccess{
			Text:         text,
			SessionID:    req.SessionID,
			SessionState: state,
			Language:     replyLang,
		}
	case medicalinfo.MedicalInfoError:
		metrics.QueriesFailed.WithLabelValues(string(apperrors.ErrCodeFulfillmentDataFailed)).Inc()
		text, failure := h.translateOutbound(ctx, req, result.Message, state, replyLang)
		if failure != nil {
			return *failure
		}
		return models.QueryFailure{
			Error:        text,
			SessionID:    req.SessionID,
			SessionState: state,
		}
	default:
		return h.internalFailure(ctx, req, apperrors.NewUnexpectedFaultError(fmt.Errorf("unexpected fulfillment result %T", result)))
	}
}

// conversationalFailure returns an expected dialog outcome (unknown intent,
// pending elicitation or confirmation) as an ordinary failure response in
// the caller's language. These are never logged as errors.
func (h *Handler) conversationalFailure(ctx context.Context, req *models.QueryRequest, message string, state models.SessionState, replyLang string, code apperrors.ErrorCode) models.QueryResponse {
	if message == "" {
		message = defaultUnknownMessage
	}
	h.logger.Info("conversational outcome", map[string]interface{}{
		"sessionId": req.SessionID,
		"code":      string(code),
	})
	metrics.QueriesFailed.WithLabelValues(string(code)).Inc()

	text, failure := h.translateOutbound(ctx, req, message, state, replyLang)
	if failure != nil {
		return *failure
	}
	return models.QueryFailure{
		Error:        text,
		SessionID:    req.SessionID,
		SessionState: state,
	}
}

// translateOutbound brings a working-language message back to the caller's
// language. Identity when the caller already speaks the working language.
func (h *Handler) translateOutbound(ctx context.Context, req *models.QueryRequest, message string, state models.SessionState, replyLang string) (string, *models.QueryFailure) {
	if replyLang == h.workingLanguage {
		return message, nil
	}

	ctx, span := h.tracer.Start(ctx, "orchestration.translate_outbound")
	defer span.End()

	translated, _, _, err := h.translator.TranslateText(ctx, message, h.workingLanguage, replyLang)
	if err != nil || translated == "" {
		if err != nil {
			h.logger.Error("outbound translation failed", map[string]interface{}{
				"sessionId": req.SessionID,
				"language":  replyLang,
				"error":     err.Error(),
			})
		}
		return "", &models.QueryFailure{
			Error:        fmt.Sprintf("Translation failed, language: %s", replyLang),
			SessionID:    req.SessionID,
			SessionState: state,
		}
	}
	return translated, nil
}

// internalFailure maps a fatal fault onto a generic failure response with
// the request's pre-call session state. Raw internal error text never
// reaches the user.
func (h *Handler) internalFailure(ctx context.Context, req *models.QueryRequest, err error) models.QueryResponse {
	code := apperrors.CodeOf(err)
	h.logger.Error("query failed", map[string]interface{}{
		"sessionId": req.SessionID,
		"code":      string(code),
		"error":     err.Error(),
	})
	metrics.QueriesFailed.WithLabelValues(string(code)).Inc()

	message := "An unexpected error occurred while processing your request."
	if req.Language != "" && req.Language != h.workingLanguage {
		if translated, _, _, terr := h.translator.TranslateText(ctx, message, h.workingLanguage, req.Language); terr == nil && translated != "" {
			message = translated
		}
	}
	return models.QueryFailure{
		Error:        message,
		SessionID:    req.SessionID,
		SessionState: req.SessionState,
	}
}
