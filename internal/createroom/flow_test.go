package createroom

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomfeed/internal/rooms"
)

type fakeCreator struct {
	created rooms.CreatedRoom
	err     error
	calls   int
	block   chan struct{} // when set, CreateRoom waits on it
}

func (f *fakeCreator) CreateRoom(_ context.Context, in Input) (rooms.CreatedRoom, error) {
	f.calls++
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return rooms.CreatedRoom{}, f.err
	}
	return f.created, nil
}

type fakeNav struct {
	paths []string
}

func (f *fakeNav) Navigate(path string) {
	f.paths = append(f.paths, path)
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantKey string
	}{
		{"valid", Input{Name: "Lounge"}, ""},
		{"valid with description", Input{Name: "Lounge", Description: "cozy"}, ""},
		{"name missing", Input{}, "name"},
		{"name too short", Input{Name: "ab"}, "name"},
		{"name too long", Input{Name: strings.Repeat("x", 61)}, "name"},
		{"name at min", Input{Name: "abc"}, ""},
		{"name at max", Input{Name: strings.Repeat("x", 60)}, ""},
		{"description too long", Input{Name: "Lounge", Description: strings.Repeat("d", 501)}, "description"},
		{"description at max", Input{Name: "Lounge", Description: strings.Repeat("d", 500)}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(tc.in)
			if tc.wantKey == "" {
				assert.Empty(t, errs)
			} else {
				require.Contains(t, errs, tc.wantKey)
				assert.NotEmpty(t, errs[tc.wantKey])
			}
		})
	}
}

func TestSubmitRejectsInvalidInputWithoutCalling(t *testing.T) {
	creator := &fakeCreator{}
	nav := &fakeNav{}
	f := NewFlow(creator, nav, testLogger())
	f.Expand()

	_, err := f.Submit(context.Background(), Input{Name: "ab"})

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, creator.calls)
	assert.Empty(t, nav.paths)
	assert.Contains(t, f.FieldErrors(), "name")
	assert.Equal(t, StateExpanded, f.State())
}

func TestSubmitSuccessNavigatesAndCollapses(t *testing.T) {
	creator := &fakeCreator{created: rooms.CreatedRoom{ID: "42", Name: "Lounge"}}
	nav := &fakeNav{}
	f := NewFlow(creator, nav, testLogger())
	f.Expand()

	id, err := f.Submit(context.Background(), Input{Name: "Lounge"})

	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, []string{"/rooms/42"}, nav.paths)
	assert.Equal(t, StateNavigated, f.State())
	assert.NoError(t, f.SubmitError())
}

func TestSubmitFailureKeepsFormAndNeverNavigates(t *testing.T) {
	creator := &fakeCreator{err: errors.New("server on fire")}
	nav := &fakeNav{}
	f := NewFlow(creator, nav, testLogger())
	f.Expand()

	_, err := f.Submit(context.Background(), Input{Name: "Lounge"})

	require.Error(t, err)
	assert.Empty(t, nav.paths)
	assert.Equal(t, StateExpanded, f.State())
	assert.Error(t, f.SubmitError())
}

func TestSubmitGuardAgainstOverlap(t *testing.T) {
	creator := &fakeCreator{
		created: rooms.CreatedRoom{ID: "42"},
		block:   make(chan struct{}),
	}
	nav := &fakeNav{}
	f := NewFlow(creator, nav, testLogger())
	f.Expand()

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = f.Submit(context.Background(), Input{Name: "Lounge"})
	}()

	// wait until the first submit is in flight
	require.Eventually(t, func() bool {
		return f.State() == StateSubmitting
	}, 2*time.Second, 10*time.Millisecond)

	_, err := f.Submit(context.Background(), Input{Name: "Parlour"})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(creator.block)
	<-firstDone
	assert.Equal(t, 1, creator.calls)
}

func TestExpandCollapse(t *testing.T) {
	f := NewFlow(&fakeCreator{}, &fakeNav{}, testLogger())
	assert.Equal(t, StateCollapsed, f.State())

	f.Expand()
	assert.Equal(t, StateExpanded, f.State())

	f.Collapse()
	assert.Equal(t, StateCollapsed, f.State())
}

func TestExpandClearsPreviousErrors(t *testing.T) {
	f := NewFlow(&fakeCreator{}, &fakeNav{}, testLogger())
	f.Expand()
	_, _ = f.Submit(context.Background(), Input{Name: "x"})
	require.NotEmpty(t, f.FieldErrors())

	f.Collapse()
	f.Expand()
	assert.Empty(t, f.FieldErrors())
}
