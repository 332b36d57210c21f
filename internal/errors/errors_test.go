package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrRemoteUnavailable,
		ErrNotFound,
		ErrLocalRead,
		ErrTransfer,
		ErrVerification,
	}
	for i := 0; i < len(sentinels); i++ {
		assert.NotEmpty(t, sentinels[i].Error())
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinel errors should be distinct: %q vs %q", sentinels[i], sentinels[j])
		}
	}
}

func TestSentinelErrors_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("list mtp://device/Books/: %w", ErrRemoteUnavailable)
	assert.ErrorIs(t, wrapped, ErrRemoteUnavailable)
	assert.NotErrorIs(t, wrapped, ErrTransfer)
}
