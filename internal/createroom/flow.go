// Package createroom runs the room creation flow: validate the form
// input, submit it, and on success navigate to the created room.
package createroom

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"roomfeed/internal/rooms"
)

// Input is the creation form. The validate tags are the schema: name is
// required at 3-60 characters, description is optional up to 500.
type Input struct {
	Name        string `json:"name" validate:"required,min=3,max=60"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

var schema = validator.New()

// fieldMessages enumerates every field/rule pair the schema can reject
// with, so messages stay explicit instead of reflected out of tags.
var fieldMessages = map[string]map[string]string{
	"Name": {
		"required": "name is required",
		"min":      "name must be between 3 and 60 characters",
		"max":      "name must be between 3 and 60 characters",
	},
	"Description": {
		"max": "description must be at most 500 characters",
	},
}

// jsonNames maps struct fields to their wire names, which is how the form
// keys its per-field errors.
var jsonNames = map[string]string{
	"Name":        "name",
	"Description": "description",
}

// Validate checks in against the schema and returns error messages keyed
// by field name. An empty map means the input is acceptable.
func Validate(in Input) map[string]string {
	err := schema.Struct(in)
	if err == nil {
		return map[string]string{}
	}
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["name"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		field := jsonNames[fe.StructField()]
		if field == "" {
			field = fe.StructField()
		}
		msg := fieldMessages[fe.StructField()][fe.Tag()]
		if msg == "" {
			msg = fmt.Sprintf("%s is invalid", field)
		}
		out[field] = msg
	}
	return out
}

// Creator submits the creation request.
type Creator interface {
	CreateRoom(ctx context.Context, in Input) (rooms.CreatedRoom, error)
}

// Navigator performs the transition to the room detail location.
// Fire-and-forget, nothing is consumed back.
type Navigator interface {
	Navigate(path string)
}

// RoomPath is the room-detail location for an id.
func RoomPath(id string) string { return "/rooms/" + id }

type State int

const (
	StateCollapsed State = iota
	StateExpanded
	StateSubmitting
	StateNavigated
)

var (
	ErrInvalidInput   = errors.New("createroom: input failed validation")
	ErrSubmitInFlight = errors.New("createroom: submit already in flight")
)

// Flow is the creation form's state machine:
// Collapsed -> Expanded -> Submitting -> Navigated on success, or back to
// Expanded with the submit error shown on failure. A failed submit never
// navigates and never collapses the form. Overlapping submits are
// rejected while one is in flight.
type Flow struct {
	creator Creator
	nav     Navigator
	log     logrus.FieldLogger

	mu        sync.Mutex
	state     State
	fieldErrs map[string]string
	submitErr error
	inflight  bool
}

func NewFlow(creator Creator, nav Navigator, log logrus.FieldLogger) *Flow {
	return &Flow{creator: creator, nav: nav, log: log, state: StateCollapsed}
}

// Expand shows the form. Clears any error left from a previous attempt.
func (f *Flow) Expand() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateCollapsed {
		f.state = StateExpanded
		f.fieldErrs = nil
		f.submitErr = nil
	}
}

// Collapse hides the form without submitting.
func (f *Flow) Collapse() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateExpanded {
		f.state = StateCollapsed
	}
}

// Submit validates in and, if it passes, sends the creation request. On
// success it collapses the form, navigates to the new room and returns
// its id. Validation failures are recorded per field and reported as
// ErrInvalidInput without the request ever being attempted.
func (f *Flow) Submit(ctx context.Context, in Input) (string, error) {
	f.mu.Lock()
	if f.inflight {
		f.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	if ferrs := Validate(in); len(ferrs) > 0 {
		f.fieldErrs = ferrs
		f.mu.Unlock()
		return "", ErrInvalidInput
	}
	f.inflight = true
	f.state = StateSubmitting
	f.fieldErrs = nil
	f.submitErr = nil
	f.mu.Unlock()

	created, err := f.creator.CreateRoom(ctx, in)

	f.mu.Lock()
	f.inflight = false
	if err != nil {
		f.state = StateExpanded
		f.submitErr = err
		f.mu.Unlock()
		f.log.WithError(err).Warn("room creation failed")
		return "", fmt.Errorf("create room: %w", err)
	}
	f.state = StateNavigated
	f.mu.Unlock()

	f.log.WithField("room_id", created.ID).Info("room created")
	f.nav.Navigate(RoomPath(created.ID))
	return created.ID, nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// FieldErrors returns the per-field messages from the last failed
// validation, keyed by field name.
func (f *Flow) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.fieldErrs))
	for k, v := range f.fieldErrs {
		out[k] = v
	}
	return out
}

// SubmitError returns the error from the last failed submission, nil when
// the last attempt succeeded or none was made.
func (f *Flow) SubmitError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitErr
}
