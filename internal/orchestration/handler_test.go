package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pocket-pharmacist/internal/common/errors"
	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/intent"
	"pocket-pharmacist/internal/models"
	"pocket-pharmacist/internal/services/medicalinfo"
	"pocket-pharmacist/internal/services/recognition"
)

// echoTranslator translates by table lookup and falls back to identity,
// recording every call.
type echoTranslator struct {
	table    map[string]string // input text -> translated text
	detected string
	err      error
	calls    []translateCall
}

type translateCall struct {
	text, source, target string
}

func (f *echoTranslator) TranslateText(_ context.Context, text, sourceLang, targetLang string) (string, string, string, error) {
	f.calls = append(f.calls, translateCall{text, sourceLang, targetLang})
	if f.err != nil {
		return "", "", "", f.err
	}
	if sourceLang != "" && sourceLang != "auto" && sourceLang == targetLang {
		return text, sourceLang, targetLang, nil
	}
	out := text
	if translated, ok := f.table[text]; ok {
		out = translated
	}
	detected := f.detected
	if detected == "" {
		detected = sourceLang
	}
	return out, detected, targetLang, nil
}

type stubRecognizer struct {
	resp  *recognition.Response
	err   error
	panic bool
	text  string // last text seen
}

func (f *stubRecognizer) RecognizeIntent(_ context.Context, text, _ string, _ models.SessionState) (*recognition.Response, error) {
	f.text = text
	if f.panic {
		panic("classifier exploded")
	}
	return f.resp, f.err
}

type stubMedical struct {
	resp medicalinfo.Response
}

func (f *stubMedical) GetMedicalInfo(context.Context, intent.DrugIntent) medicalinfo.Response {
	return f.resp
}

func newTestHandler(t *testing.T, translator Translator, recognizer IntentRecognizer, medical MedicalInfoProvider) *Handler {
	t.Helper()
	return NewHandler(translator, recognizer, medical, "en", logger.NewTestLogger(t), nil, nil)
}

func TestProcessQuery_EnglishHappyPath(t *testing.T) {
	state := models.SessionState(`{"SessionAttributes":{"DrugName":"aspirin"}}`)
	translator := &echoTranslator{}
	recognizer := &stubRecognizer{resp: &recognition.Response{
		Intent:       intent.DrugSideEffects{DrugName: "aspirin"},
		SessionState: state,
	}}
	medical := &stubMedical{resp: medicalinfo.MedicalInfo{
		Message: "Some reported side effects of aspirin include: nausea",
	}}
	h := newTestHandler(t, translator, recognizer, medical)

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:      "what are the side effects of aspirin",
		SessionID: "s-1",
		Language:  "en",
	})

	success, ok := resp.(models.QuerySuccess)
	require.True(t, ok, "expected success, got %#v", resp)
	assert.Equal(t, "Some reported side effects of aspirin include: nausea", success.Text)
	assert.Equal(t, "en", success.Language)
	assert.Equal(t, state, success.SessionState)

	// Working-language caller: inbound is identity, no outbound call.
	require.Len(t, translator.calls, 1)
}

func TestProcessQuery_AutoDetectedSpanishRoundTrip(t *testing.T) {
	translator := &echoTranslator{
		detected: "es",
		table: map[string]string{
			"¿efectos secundarios de la aspirina?":                 "side effects of aspirin",
			"Some reported side effects of aspirin include: nausea": "Algunos efectos secundarios reportados de aspirin incluyen: nausea",
		},
	}
	recognizer := &stubRecognizer{resp: &recognition.Response{
		Intent: intent.DrugSideEffects{DrugName: "aspirin"},
	}}
	medical := &stubMedical{resp: medicalinfo.MedicalInfo{
		Message: "Some reported side effects of aspirin include: nausea",
	}}
	h := newTestHandler(t, translator, recognizer, medical)

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:      "¿efectos secundarios de la aspirina?",
		SessionID: "s-1",
	})

	success, ok := resp.(models.QuerySuccess)
	require.True(t, ok, "expected success, got %#v", resp)
	assert.Equal(t, "Algunos efectos secundarios reportados de aspirin incluyen: nausea", success.Text)
	assert.Equal(t, "es", success.Language)

	// The classifier only ever sees the working language.
	assert.Equal(t, "side effects of aspirin", recognizer.text)

	require.Len(t, translator.calls, 2)
	assert.Equal(t, translateCall{"¿efectos secundarios de la aspirina?", "", "en"}, translator.calls[0])
	assert.Equal(t, "en", translator.calls[1].source)
	assert.Equal(t, "es", translator.calls[1].target)
}

func TestProcessQuery_DetectionMismatchIsNotFatal(t *testing.T) {
	// Caller says French, engine detects Spanish. The caller's choice wins.
	translator := &echoTranslator{detected: "es"}
	recognizer := &stubRecognizer{resp: &recognition.Response{
		Intent: intent.DrugDosage{DrugName: "aspirin"},
	}}
	medical := &stubMedical{resp: medicalinfo.MedicalInfo{Message: "Recommended dosage for aspirin: one tablet"}}
	h := newTestHandler(t, translator, recognizer, medical)

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:      "dosage",
		SessionID: "s-1",
		Language:  "fr",
	})

	success, ok := resp.(models.QuerySuccess)
	require.True(t, ok, "expected success, got %#v", resp)
	assert.Equal(t, "fr", success.Language)
}

func TestProcessQuery_DetectionFailure(t *testing.T) {
	translator := &echoTranslator{detected: "auto"}
	h := newTestHandler(t, translator, &stubRecognizer{}, &stubMedical{})

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:      "???",
		SessionID: "s-1",
	})

	failure, ok := resp.(models.QueryFailure)
	require.True(t, ok)
	assert.Equal(t, "Language detection failed", failure.Error)
}

func TestProcessQuery_InboundTranslationFailure(t *testing.T) {
	translator := &echoTranslator{err: errors.New("engine down")}
	state := models.SessionState(`{"x":1}`)
	h := newTestHandler(t, translator, &stubRecognizer{}, &stubMedical{})

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:         "hola",
		SessionID:    "s-1",
		SessionState: state,
	})

	failure, ok := resp.(models.QueryFailure)
	require.True(t, ok)
	assert.Equal(t, "Translation failed, language: auto", failure.Error)
	assert.Equal(t, state, failure.SessionState)
}

func TestProcessQuery_UnknownIntentUsesDefaultMessage(t *testing.T) {
	state := models.SessionState(`{"turn":2}`)
	recognizer := &stubRecognizer{resp: &recognition.Response{
		Intent:       intent.Unknown{},
		SessionState: state,
	}}
	h := newTestHandler(t, &echoTranslator{}, recognizer, &stubMedical{})

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:      "order me a pizza",
		SessionID: "s-1",
		Language:  "en",
	})

	failure, ok := resp.(models.QueryFailure)
	require.True(t, ok)
	assert.Equal(t, defaultUnknownMessage, failure.Error)
	assert.Equal(t, state, failure.SessionState)
}

func TestProcessQuery_SlotElicitationCarriesState(t *testing.T) {
	state := models.SessionState(`{"pending":"DrugName"}`)
	recognizer := &stubRecognizer{resp: &recognition.Response{
		Intent: intent.SlotElicitation{
			IntentName: intent.NameDrugDosage,
			SlotName:   intent.SlotDrugName,
			Message:    "Which drug are you asking about?",
		},
		SessionState: state,
	}}
	h := newTestHandler(t, &echoTranslator{}, recognizer, &stubMedical{})

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:      "what's the dosage",
		SessionID: "s-1",
		Language:  "en",
	})

	failure, ok := resp.(models.QueryFailure)
	require.True(t, ok)
	assert.Equal(t, "Which drug are you asking about?", failure.Error)
	// The continuation state must come back so the next turn can resume.
	assert.Equal(t, state, failure.SessionState)
}

func TestProcessQuery_FulfillmentFaultIsFailure(t *testing.T) {
	recognizer := &stubRecognizer{resp: &recognition.Response{
		Intent: intent.DrugDosage{DrugName: "aspirin"},
	}}
	medical := &stubMedical{resp: medicalinfo.MedicalInfoError{Message: "Couldn't fetch data for aspirin."}}
	h := newTestHandler(t, &echoTranslator{}, recognizer, medical)

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:      "dosage of aspirin",
		SessionID: "s-1",
		Language:  "en",
	})

	failure, ok := resp.(models.QueryFailure)
	require.True(t, ok)
	assert.Equal(t, "Couldn't fetch data for aspirin.", failure.Error)
}

func TestProcessQuery_RecognizerFaultIsGenericFailure(t *testing.T) {
	state := models.SessionState(`{"before":true}`)
	recognizer := &stubRecognizer{err: apperrors.NewRecursionLimitExceededError(4)}
	h := newTestHandler(t, &echoTranslator{}, recognizer, &stubMedical{})

	resp := h.ProcessQuery(context.Background(), &models.QueryRequest{
		Text:         "dosage",
		SessionID:    "s-1",
		SessionState: state,
		Language:     "en",
	})

	failure, ok := resp.(models.QueryFailure)
	require.True(t, ok)
	assert.Equal(t, "An unexpected error occurred while processing your request.", failure.Error)
	// Internal faults never corrupt the caller's dialog context.
	assert.Equal(t, state, failure.SessionState)
	assert.NotContains(t, failure.Error, "depth")
}

func TestProcessQuery_PanicIsRecovered(t *testing.T) {
	state := models.SessionState(`{"before":true}`)
	recognizer := &stubRecognizer{panic: true}
	h := newTestHandler(t, &echoTranslator{}, recognizer, &stubMedical{})

	var resp models.QueryResponse
	assert.NotPanics(t, func() {
		resp = h.ProcessQuery(context.Background(), &models.QueryRequest{
			Text:         "dosage",
			SessionID:    "s-1",
			SessionState: state,
			Language:     "en",
		})
	})

	failure, ok := resp.(models.QueryFailure)
	require.True(t, ok)
	assert.Equal(t, "An unexpected error occurred while processing your request.", failure.Error)
	assert.Equal(t, state, failure.SessionState)
}
