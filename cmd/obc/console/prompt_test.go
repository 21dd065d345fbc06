package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptLine(t *testing.T) {
	assert.Equal(t, "reset the RTC? [N/y]:", promptLine("reset the RTC?", yesNoConstraints))
}

func TestMatch(t *testing.T) {
	assert.Equal(t, Yes, match("Y", yesNoConstraints))
	assert.Equal(t, Yes, match(" y ", yesNoConstraints))
	assert.Equal(t, No, match("", yesNoConstraints))
	assert.Equal(t, No, match("maybe", yesNoConstraints))
}
