package mutation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigger_RefusesSecondSubmissionWhilePending(t *testing.T) {
	var tr Trigger
	assert.Equal(t, Idle, tr.State())

	assert.True(t, tr.Begin())
	assert.False(t, tr.Begin())
	assert.True(t, tr.Pending())

	tr.Reset()
	assert.True(t, tr.Pending(), "reset must not abandon an in-flight submission")

	tr.Finish(nil)
	assert.Equal(t, Succeeded, tr.State())
	assert.True(t, tr.Begin())
}

func TestTrigger_RecordsFailure(t *testing.T) {
	var tr Trigger
	tr.Begin()
	tr.Finish(errors.New("boom"))

	assert.Equal(t, Failed, tr.State())
	assert.EqualError(t, tr.Err(), "boom")

	tr.Begin()
	assert.NoError(t, tr.Err())
}
