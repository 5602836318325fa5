// internal/common/aws/translate.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/translate"
)

type TranslateClient struct {
	client *translate.Client
}

func NewTranslateClient(ctx context.Context, region string) (*TranslateClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &TranslateClient{client: translate.NewFromConfig(cfg)}, nil
}

func (t *TranslateClient) TranslateText(ctx context.Context, input *translate.TranslateTextInput) (*translate.TranslateTextOutput, error) {
	return t.client.TranslateText(ctx, input)
}
