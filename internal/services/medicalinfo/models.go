package medicalinfo

import "context"

// Response is either a MedicalInfo or a MedicalInfoError. A data fault and
// the absence of a specific fact are different things: missing facts come
// back as MedicalInfo with a polite "don't know" message.
type Response interface {
	medicalInfoResponse()
}

// MedicalInfo is a successful, user-facing answer.
type MedicalInfo struct {
	Message string
}

// MedicalInfoError is a collaborator or data fault, phrased for the user.
type MedicalInfoError struct {
	Message string
}

func (MedicalInfo) medicalInfoResponse()      {}
func (MedicalInfoError) medicalInfoResponse() {}

// DrugLabel is the structured label entry for a drug, absent fields empty.
type DrugLabel struct {
	Dosage       []string
	Warnings     []string
	Indications  []string
	Interactions []string
}

// DrugFactSource is the remote drug-fact lookup. Absence of data is not an
// error: SideEffects returns an empty slice and Label returns nil when
// nothing is on file.
type DrugFactSource interface {
	SideEffects(ctx context.Context, drugName string) ([]string, error)
	Label(ctx context.Context, drugName string) (*DrugLabel, error)
}
