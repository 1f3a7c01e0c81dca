package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjperalta/car-ledger-api/internal/models"
)

func TestConversionFSM_HappyPath(t *testing.T) {
	var entered []string
	c := NewConversionFSM(models.StageQueued, func(stage string) {
		entered = append(entered, stage)
	})

	ctx := context.Background()
	for _, event := range []string{
		EventValidateSchema, EventValidateData, EventCheckIntegrity, EventLock,
		EventClone, EventConvert, EventFinalize, EventComplete,
	} {
		require.NoError(t, c.Advance(ctx, event), event)
	}

	assert.Equal(t, models.StageCompleted, c.Current())
	assert.Equal(t, []string{
		models.StageValidatingSchema, models.StageValidatingData, models.StageCheckingIntegrity,
		models.StageLocking, models.StageCloning, models.StageConverting,
		models.StageFinalizing, models.StageCompleted,
	}, entered)
}

func TestConversionFSM_StagesCannotBeSkipped(t *testing.T) {
	c := NewConversionFSM(models.StageQueued, nil)

	err := c.Advance(context.Background(), EventConvert)
	assert.Error(t, err)
	assert.Equal(t, models.StageQueued, c.Current())
}

func TestConversionFSM_CancelNotAllowedWhileFinalizing(t *testing.T) {
	c := NewConversionFSM(models.StageFinalizing, nil)
	assert.False(t, c.Can(EventCancel))
	assert.True(t, c.Can(EventFail))

	c = NewConversionFSM(models.StageConverting, nil)
	assert.True(t, c.Can(EventCancel))
}

func TestConversionFSM_TerminalStagesAreFinal(t *testing.T) {
	for _, stage := range []string{models.StageCompleted, models.StageFailed, models.StageCancelled} {
		c := NewConversionFSM(stage, nil)
		assert.False(t, c.Can(EventFail), stage)
		assert.False(t, c.Can(EventCancel), stage)
	}
}
