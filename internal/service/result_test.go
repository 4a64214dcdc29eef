package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultFinish(t *testing.T) {
	t.Run("failure wins", func(t *testing.T) {
		r := &Result{}
		r.add(written("a"))
		r.add(failed("b", errors.New("boom")))
		r.finish()
		assert.Equal(t, StatusFailed, r.Status)
		assert.EqualError(t, r.Err, "boom")
	})
	t.Run("updates count as written", func(t *testing.T) {
		r := &Result{}
		r.add(skipped("a", ReasonMuted))
		r.add(updated("b"))
		r.finish()
		assert.Equal(t, StatusWritten, r.Status)
		assert.Empty(t, r.Reason)
	})
	t.Run("first skip reason", func(t *testing.T) {
		r := &Result{}
		r.add(skipped("a", ReasonMuted))
		r.add(skipped("b", ReasonAlreadyNotified))
		r.finish()
		assert.Equal(t, StatusSkipped, r.Status)
		assert.Equal(t, ReasonMuted, r.Reason)
		assert.Equal(t, 2, r.Skipped)
	})
	t.Run("event level skip", func(t *testing.T) {
		r := (&Result{}).skip(ReasonNoCandidates)
		r.finish()
		assert.Equal(t, StatusSkipped, r.Status)
		assert.Equal(t, ReasonNoCandidates, r.Reason)
	})
	t.Run("emails counted", func(t *testing.T) {
		r := &Result{}
		tr := written("a")
		tr.EmailQueued = true
		r.add(tr)
		r.finish()
		assert.Equal(t, 1, r.EmailsQueued)
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "written", OutcomeWritten.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
