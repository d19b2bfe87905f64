package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("mesh %d not found", 7)))
	assert.Equal(t, CodeBadRequest, CodeOf(fmt.Errorf("wrapped: %w", BadRequest("jobId", "invalid"))))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsBadRequest(BadRequest("id", "bad")))
}

func TestInternalUnwrapsCause(t *testing.T) {
	err := Internal(ErrSubmissionPartialFailure, "failed to queue job %d", 3)
	assert.ErrorIs(t, err, ErrSubmissionPartialFailure)
	assert.Contains(t, err.Error(), "failed to queue job 3")
}

func TestBadRequestField(t *testing.T) {
	err := BadRequest("resolution", "must be between %d and %d", 1, 10)
	assert.Equal(t, "resolution", err.Field)
	assert.Equal(t, "bad_request: must be between 1 and 10", err.Error())
}
