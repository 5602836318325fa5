// Package intent defines the closed set of conversational intents the
// dialog state machine can produce. The set is sealed: fulfillment and
// orchestration dispatch with exhaustive type switches, so adding a new
// drug-query kind is a compile-time-checked change.
package intent

// Classifier-facing intent names, as provisioned on the bot.
const (
	NameDrugSideEffects  = "DrugSideEffects"
	NameDrugDosage       = "DrugDosage"
	NameDrugInteractions = "DrugInteractions"
	NameDrugWarnings     = "DrugWarnings"
	NameDrugIndications  = "DrugIndicationsAndUsage"
)

// Slot names, as provisioned on the bot.
const (
	SlotDrugName  = "DrugName"
	SlotOtherDrug = "OtherDrug"
)

// Intent is the sealed union of classification outcomes.
type Intent interface {
	isIntent()
}

// DrugIntent is implemented by the fulfillable variants. Invariant: a
// DrugIntent always carries all required slots non-empty; a variant with a
// missing slot is never constructed (FromClassification degrades to
// Unknown instead).
type DrugIntent interface {
	Intent
	IntentName() string
	Drug() string
}

type DrugSideEffects struct {
	DrugName string
}

type DrugDosage struct {
	DrugName string
}

type DrugWarnings struct {
	DrugName string
}

type DrugIndications struct {
	DrugName string
}

type DrugInteractions struct {
	DrugName      string
	OtherDrugName string
}

// Unknown means the classifier found no usable interpretation.
type Unknown struct {
	Message string
}

// SlotElicitation means the dialog needs one more value from the user.
type SlotElicitation struct {
	IntentName string
	SlotName   string
	Message    string
}

// Confirmation means the dialog needs a yes/no confirmation.
type Confirmation struct {
	IntentName string
	Slots      map[string]string
	Message    string
}

// InProgress means the dialog is open with no specific action signaled.
type InProgress struct {
	Message string
}

func (DrugSideEffects) isIntent()  {}
func (DrugDosage) isIntent()       {}
func (DrugWarnings) isIntent()     {}
func (DrugIndications) isIntent()  {}
func (DrugInteractions) isIntent() {}
func (Unknown) isIntent()          {}
func (SlotElicitation) isIntent()  {}
func (Confirmation) isIntent()     {}
func (InProgress) isIntent()       {}

func (i DrugSideEffects) IntentName() string  { return NameDrugSideEffects }
func (i DrugDosage) IntentName() string       { return NameDrugDosage }
func (i DrugWarnings) IntentName() string     { return NameDrugWarnings }
func (i DrugIndications) IntentName() string  { return NameDrugIndications }
func (i DrugInteractions) IntentName() string { return NameDrugInteractions }

func (i DrugSideEffects) Drug() string  { return i.DrugName }
func (i DrugDosage) Drug() string       { return i.DrugName }
func (i DrugWarnings) Drug() string     { return i.DrugName }
func (i DrugIndications) Drug() string  { return i.DrugName }
func (i DrugInteractions) Drug() string { return i.DrugName }

// FromClassification builds the typed drug intent for a fulfilled dialog.
// It returns Unknown when the intent name is not recognized or a required
// slot is missing, so a partially-filled drug intent can never escape.
func FromClassification(name string, slots map[string]string, message string) Intent {
	drugName := slots[SlotDrugName]
	otherDrug := slots[SlotOtherDrug]

	switch {
	case name == NameDrugSideEffects && drugName != "":
		return DrugSideEffects{DrugName: drugName}
	case name == NameDrugDosage && drugName != "":
		return DrugDosage{DrugName: drugName}
	case name == NameDrugWarnings && drugName != "":
		return DrugWarnings{DrugName: drugName}
	case name == NameDrugIndications && drugName != "":
		return DrugIndications{DrugName: drugName}
	case name == NameDrugInteractions && drugName != "" && otherDrug != "":
		return DrugInteractions{DrugName: drugName, OtherDrugName: otherDrug}
	}
	return Unknown{Message: message}
}
