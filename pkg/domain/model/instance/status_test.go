package instance_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct {
		from instance.Status
		to   instance.Status
	}{
		{instance.StatusIdle, instance.StatusRunning},
		{instance.StatusIdle, instance.StatusPaused},
		{instance.StatusRunning, instance.StatusIdle},
		{instance.StatusRunning, instance.StatusPaused},
		{instance.StatusRunning, instance.StatusError},
		{instance.StatusRunning, instance.StatusCompleted},
		{instance.StatusPaused, instance.StatusRunning},
		{instance.StatusPaused, instance.StatusIdle},
		{instance.StatusError, instance.StatusIdle},
		{instance.StatusError, instance.StatusRunning},
		{instance.StatusCompleted, instance.StatusIdle},
	}
	for _, tc := range allowed {
		t.Run(tc.from.String()+"_to_"+tc.to.String(), func(t *testing.T) {
			gt.True(t, tc.from.CanTransitionTo(tc.to))
			gt.NoError(t, instance.ValidateTransition(tc.from, tc.to))
		})
	}

	forbidden := []struct {
		from instance.Status
		to   instance.Status
	}{
		{instance.StatusIdle, instance.StatusError},
		{instance.StatusIdle, instance.StatusCompleted},
		{instance.StatusPaused, instance.StatusError},
		{instance.StatusPaused, instance.StatusCompleted},
		{instance.StatusError, instance.StatusPaused},
		{instance.StatusError, instance.StatusCompleted},
		{instance.StatusCompleted, instance.StatusRunning},
		{instance.StatusCompleted, instance.StatusPaused},
		{instance.StatusCompleted, instance.StatusError},
		{instance.StatusIdle, instance.StatusIdle},
	}
	for _, tc := range forbidden {
		t.Run("reject_"+tc.from.String()+"_to_"+tc.to.String(), func(t *testing.T) {
			gt.False(t, tc.from.CanTransitionTo(tc.to))
			err := instance.ValidateTransition(tc.from, tc.to)
			gt.Error(t, err)
			gt.True(t, errors.Is(err, instance.ErrInvalidTransition))
		})
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	err := instance.ValidateTransition(instance.StatusIdle, instance.Status("sleeping"))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, instance.ErrInvalidStatus))
}
