package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/sjperalta/car-ledger-api/internal/models"
)

// Conversion events
const (
	EventValidateSchema = "validate_schema"
	EventValidateData   = "validate_data"
	EventCheckIntegrity = "check_integrity"
	EventLock           = "lock"
	EventClone          = "clone"
	EventConvert        = "convert"
	EventFinalize       = "finalize"
	EventComplete       = "complete"
	EventFail           = "fail"
	EventCancel         = "cancel"
)

// cancellable stages are those where no destination file is being written
var cancellable = []string{
	models.StageQueued,
	models.StageValidatingSchema,
	models.StageValidatingData,
	models.StageCheckingIntegrity,
	models.StageLocking,
	models.StageCloning,
	models.StageConverting,
}

// ConversionFSM enforces the stage order of a conversion run
type ConversionFSM struct {
	fsm *fsm.FSM
}

// NewConversionFSM creates a state machine starting at initial. onEnter is
// called with every stage entered.
func NewConversionFSM(initial string, onEnter func(stage string)) *ConversionFSM {
	cfsm := &ConversionFSM{}

	callbacks := fsm.Callbacks{}
	if onEnter != nil {
		callbacks["enter_state"] = func(_ context.Context, e *fsm.Event) {
			onEnter(e.Dst)
		}
	}

	cfsm.fsm = fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: EventValidateSchema, Src: []string{models.StageQueued}, Dst: models.StageValidatingSchema},
			{Name: EventValidateData, Src: []string{models.StageValidatingSchema}, Dst: models.StageValidatingData},
			{Name: EventCheckIntegrity, Src: []string{models.StageValidatingData}, Dst: models.StageCheckingIntegrity},
			{Name: EventLock, Src: []string{models.StageCheckingIntegrity}, Dst: models.StageLocking},
			{Name: EventClone, Src: []string{models.StageLocking}, Dst: models.StageCloning},
			{Name: EventConvert, Src: []string{models.StageCloning}, Dst: models.StageConverting},
			{Name: EventFinalize, Src: []string{models.StageConverting}, Dst: models.StageFinalizing},
			{Name: EventComplete, Src: []string{models.StageFinalizing}, Dst: models.StageCompleted},

			// any non-terminal stage may fail
			{Name: EventFail, Src: append(append([]string{}, cancellable...), models.StageFinalizing), Dst: models.StageFailed},

			// cancellation is honoured between stages, never while finalizing
			{Name: EventCancel, Src: cancellable, Dst: models.StageCancelled},
		},
		callbacks,
	)

	return cfsm
}

// Advance fires event
func (c *ConversionFSM) Advance(ctx context.Context, event string) error {
	if err := c.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("conversion cannot %s from %s: %w", event, c.fsm.Current(), err)
	}
	return nil
}

// Current returns the current stage
func (c *ConversionFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ConversionFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
