// Package translation wraps the external translation engine. The core only
// reacts to the outcome of translation; it never detects languages itself.
package translation

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"

	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/common/metrics"
)

// LangAuto asks the engine to detect the source language.
const LangAuto = "auto"

// Service is the translation collaborator contract. It reports the detected
// source and target languages alongside the translated text; failures are
// signaled, never silently corrupted.
type Service interface {
	TranslateText(ctx context.Context, text, sourceLang, targetLang string) (translated, detectedSource, detectedTarget string, err error)
}

// translateAPI is the slice of the AWS Translate client the service needs.
type translateAPI interface {
	TranslateText(ctx context.Context, input *translate.TranslateTextInput) (*translate.TranslateTextOutput, error)
}

type AWSService struct {
	api    translateAPI
	config *Config
	logger logger.Logger
}

func NewAWSService(api translateAPI, config *Config, log logger.Logger) *AWSService {
	return &AWSService{
		api:    api,
		config: config,
		logger: log.With(map[string]interface{}{
			"service": "translation",
		}),
	}
}

func (s *AWSService) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, string, string, error) {
	// Same known language on both sides is the identity; spare the engine.
	if sourceLang != "" && sourceLang != LangAuto && sourceLang == targetLang {
		return text, sourceLang, targetLang, nil
	}

	src := sourceLang
	if src == "" {
		src = LangAuto
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	out, err := s.api.TranslateText(callCtx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(src),
		TargetLanguageCode: aws.String(targetLang),
	})
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("translate", "error").Inc()
		s.logger.Error("translation call failed", map[string]interface{}{
			"sourceLang": src,
			"targetLang": targetLang,
			"error":      err.Error(),
		})
		return "", "", "", err
	}
	metrics.CollaboratorCalls.WithLabelValues("translate", "ok").Inc()

	return aws.ToString(out.TranslatedText),
		aws.ToString(out.SourceLanguageCode),
		aws.ToString(out.TargetLanguageCode),
		nil
}
