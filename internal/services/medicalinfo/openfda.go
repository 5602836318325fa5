package medicalinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	apperrors "pocket-pharmacist/internal/common/errors"
	commonhttp "pocket-pharmacist/internal/common/http"
	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/common/metrics"
)

// OpenFDAClient implements DrugFactSource against the openFDA drug API.
// openFDA answers 404 when a search has no matches; that is "not found",
// not a fault.
type OpenFDAClient struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewOpenFDAClient(config *Config, log logger.Logger) *OpenFDAClient {
	return &OpenFDAClient{
		config: config,
		client: commonhttp.NewClient(config.Timeout, config.MaxRetries),
		logger: log.With(map[string]interface{}{
			"client": "openfda",
		}),
	}
}

type eventResponse struct {
	Results []struct {
		Patient struct {
			Reaction []struct {
				ReactionMedDRAPT string `json:"reactionmeddrapt"`
			} `json:"reaction"`
		} `json:"patient"`
	} `json:"results"`
}

type labelResponse struct {
	Results []struct {
		DosageAndAdministration []string `json:"dosage_and_administration"`
		WarningsAndCautions     []string `json:"warnings_and_cautions"`
		IndicationsAndUsage     []string `json:"indications_and_usage"`
		DrugInteractions        []string `json:"drug_interactions"`
	} `json:"results"`
}

func (c *OpenFDAClient) SideEffects(ctx context.Context, drugName string) ([]string, error) {
	query := url.Values{}
	query.Set("search", fmt.Sprintf("patient.drug.medicinalproduct:%s", drugName))
	query.Set("limit", "5")

	body, found, err := c.get(ctx, "/drug/event.json", query)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var parsed eventResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.NewFulfillmentDataError(err.Error())
	}

	var effects []string
	for _, result := range parsed.Results {
		for _, reaction := range result.Patient.Reaction {
			effects = append(effects, reaction.ReactionMedDRAPT)
		}
	}
	return effects, nil
}

func (c *OpenFDAClient) Label(ctx context.Context, drugName string) (*DrugLabel, error) {
	query := url.Values{}
	query.Set("search", fmt.Sprintf("openfda.brand_name:%s", drugName))
	query.Set("limit", "1")

	body, found, err := c.get(ctx, "/drug/label.json", query)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var parsed labelResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.NewFulfillmentDataError(err.Error())
	}
	if len(parsed.Results) == 0 {
		return nil, nil
	}

	first := parsed.Results[0]
	return &DrugLabel{
		Dosage:       first.DosageAndAdministration,
		Warnings:     first.WarningsAndCautions,
		Indications:  first.IndicationsAndUsage,
		Interactions: first.DrugInteractions,
	}, nil
}

// get performs the lookup; found is false when the API reports no matches.
func (c *OpenFDAClient) get(ctx context.Context, path string, query url.Values) (body []byte, found bool, err error) {
	if c.config.APIKey != "" {
		query.Set("api_key", c.config.APIKey)
	}
	endpoint := c.config.BaseURL + path + "?" + query.Encode()

	resp, err := c.client.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("openfda", "error").Inc()
		return nil, false, apperrors.NewDrugAPIUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.CollaboratorCalls.WithLabelValues("openfda", "ok").Inc()
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		metrics.CollaboratorCalls.WithLabelValues("openfda", "error").Inc()
		return nil, false, apperrors.NewDrugAPIUnavailableError(fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("openfda", "error").Inc()
		return nil, false, apperrors.NewDrugAPIUnavailableError(err)
	}
	metrics.CollaboratorCalls.WithLabelValues("openfda", "ok").Inc()
	return data, true, nil
}
