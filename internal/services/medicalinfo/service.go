package medicalinfo

import (
	"context"
	"fmt"
	"strings"

	"pocket-pharmacist/internal/common/logger"
	"pocket-pharmacist/internal/intent"
)

// maxSideEffects bounds the reactions quoted back to the user.
const maxSideEffects = 6

// Service resolves a fulfillable drug intent into a human-readable answer.
type Service struct {
	source DrugFactSource
	logger logger.Logger
}

func NewService(source DrugFactSource, log logger.Logger) *Service {
	return &Service{
		source: source,
		logger: log.With(map[string]interface{}{
			"service": "medicalinfo",
		}),
	}
}

// GetMedicalInfo dispatches on the intent variant. Collaborator faults come
// back as MedicalInfoError; a fact that simply isn't on file is a normal
// MedicalInfo with a "don't know" message.
func (s *Service) GetMedicalInfo(ctx context.Context, it intent.DrugIntent) Response {
	switch v := it.(type) {
	case intent.DrugSideEffects:
		return s.sideEffects(ctx, v)
	case intent.DrugDosage:
		return s.dosage(ctx, v)
	case intent.DrugWarnings:
		return s.warnings(ctx, v)
	case intent.DrugIndications:
		return s.indications(ctx, v)
	case intent.DrugInteractions:
		return s.interactions(ctx, v)
	}
	s.logger.Error("unhandled intent variant", map[string]interface{}{
		"intent": it.IntentName(),
	})
	return MedicalInfoError{Message: "I'm sorry, I can't answer that kind of question yet."}
}

func (s *Service) sideEffects(ctx context.Context, it intent.DrugSideEffects) Response {
	reactions, err := s.source.SideEffects(ctx, it.DrugName)
	if err != nil {
		return s.fetchError(it.DrugName, err)
	}

	unique := dedupe(reactions, maxSideEffects)
	if len(unique) == 0 {
		return MedicalInfo{Message: "No common side effects found."}
	}
	return MedicalInfo{
		Message: fmt.Sprintf("Some reported side effects of %s include: %s", it.DrugName, strings.Join(unique, ", ")),
	}
}

func (s *Service) dosage(ctx context.Context, it intent.DrugDosage) Response {
	label, err := s.source.Label(ctx, it.DrugName)
	if err != nil {
		return s.fetchError(it.DrugName, err)
	}
	if label == nil || len(label.Dosage) == 0 {
		return MedicalInfo{Message: "I couldn't find dosage information for that drug."}
	}
	return MedicalInfo{
		Message: fmt.Sprintf("Recommended dosage for %s: %s", it.DrugName, label.Dosage[0]),
	}
}

func (s *Service) warnings(ctx context.Context, it intent.DrugWarnings) Response {
	label, err := s.source.Label(ctx, it.DrugName)
	if err != nil {
		return s.fetchError(it.DrugName, err)
	}
	if label == nil || len(label.Warnings) == 0 {
		return MedicalInfo{Message: "No warnings available for that drug."}
	}
	return MedicalInfo{
		Message: fmt.Sprintf("Warning for %s: %s", it.DrugName, label.Warnings[0]),
	}
}

func (s *Service) indications(ctx context.Context, it intent.DrugIndications) Response {
	label, err := s.source.Label(ctx, it.DrugName)
	if err != nil {
		return s.fetchError(it.DrugName, err)
	}
	if label == nil || len(label.Indications) == 0 {
		return MedicalInfo{Message: "I couldn't find usage information for that drug."}
	}
	return MedicalInfo{
		Message: fmt.Sprintf("%s is indicated for: %s", it.DrugName, label.Indications[0]),
	}
}

func (s *Service) interactions(ctx context.Context, it intent.DrugInteractions) Response {
	label, err := s.source.Label(ctx, it.DrugName)
	if err != nil {
		return s.fetchError(it.DrugName, err)
	}

	if label != nil {
		for _, entry := range label.Interactions {
			if strings.Contains(strings.ToLower(entry), strings.ToLower(it.OtherDrugName)) {
				return MedicalInfo{Message: fmt.Sprintf("Interaction warning: %s", entry)}
			}
		}
		if len(label.Interactions) > 0 {
			// No direct mention; quote the first entry as an example, not
			// a definitive answer.
			return MedicalInfo{
				Message: fmt.Sprintf("%s may interact with other drugs. Example: %s", it.DrugName, label.Interactions[0]),
			}
		}
	}
	return MedicalInfo{
		Message: fmt.Sprintf("I couldn't find known interactions between %s and %s.", it.DrugName, it.OtherDrugName),
	}
}

func (s *Service) fetchError(drugName string, err error) MedicalInfoError {
	s.logger.Error("drug fact lookup failed", map[string]interface{}{
		"drug":  drugName,
		"error": err.Error(),
	})
	return MedicalInfoError{Message: fmt.Sprintf("Couldn't fetch data for %s.", drugName)}
}

// dedupe keeps first-seen order so answers are stable across calls.
func dedupe(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, limit)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
