package recognition

import (
	"context"

	"pocket-pharmacist/internal/intent"
	"pocket-pharmacist/internal/models"
)

// DialogStatus is the classifier's view of the overall dialog.
type DialogStatus string

const (
	StatusFailed                DialogStatus = "Failed"
	StatusFulfilled             DialogStatus = "Fulfilled"
	StatusReadyForFulfillment   DialogStatus = "ReadyForFulfillment"
	StatusInProgress            DialogStatus = "InProgress"
	StatusFulfillmentInProgress DialogStatus = "FulfillmentInProgress"
	StatusWaiting               DialogStatus = "Waiting"
)

// DialogAction is the next step the classifier is driving the dialog toward.
type DialogAction string

const (
	ActionElicitSlot    DialogAction = "ElicitSlot"
	ActionConfirmIntent DialogAction = "ConfirmIntent"
	ActionElicitIntent  DialogAction = "ElicitIntent"
	ActionDelegate      DialogAction = "Delegate"
	ActionClose         DialogAction = "Close"
	ActionNone          DialogAction = "None"
)

// Turn is the neutral result of one classifier exchange.
type Turn struct {
	Status       DialogStatus
	Action       DialogAction
	IntentName   string
	SlotToElicit string
	Slots        map[string]string // interpreted slot values on the active intent
	Attributes   map[string]string // session-attribute cache after this turn
	Message      string            // freeform prompt from the classifier
	Interpreted  bool              // at least one usable interpretation
	State        models.SessionState
}

// Classifier is the narrow contract over the external intent-classification
// engine. WriteAttributes is the only sanctioned way to touch the opaque
// session state: it re-embeds an updated session-attribute cache.
type Classifier interface {
	RecognizeText(ctx context.Context, text, sessionID string, state models.SessionState) (*Turn, error)
	WriteAttributes(state models.SessionState, attrs map[string]string) (models.SessionState, error)
}

// Response is the state machine's outcome for one user turn.
type Response struct {
	Intent       intent.Intent
	SessionState models.SessionState
}
