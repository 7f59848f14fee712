package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelPredicates(t *testing.T) {
	assert.True(t, IsQuotaExceeded(ErrQuotaExceeded))
	assert.True(t, IsDuplicateSubmission(ErrDuplicateSubmission))
	assert.True(t, IsReferential(ErrReferentialIntegrity))
	assert.True(t, IsNotFound(ErrNotFound))

	assert.False(t, IsQuotaExceeded(nil))
	assert.False(t, IsQuotaExceeded(New("unrelated")))
}

func TestWrappedSentinelsSurviveInspection(t *testing.T) {
	err := Wrap(ErrQuotaExceeded, "submitting application for job abc")
	assert.True(t, IsQuotaExceeded(err))

	err = Wrapf(ErrDuplicateSubmission, "job %s", "xyz")
	assert.True(t, IsDuplicateSubmission(err))

	err = Wrapf(ErrReferentialIntegrity, "follow-up references application %d", 42)
	assert.True(t, IsReferential(err))
	assert.Contains(t, err.Error(), "application 42")
}
