package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMimetype(t *testing.T) {
	cases := []struct {
		mimetype string
		want     MediaClass
	}{
		{"application/pdf", MediaClassPDF},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", MediaClassConvertible},
		{"application/vnd.oasis.opendocument.spreadsheet", MediaClassConvertible},
		{"text/html", MediaClassConvertible},
		{"text/markdown", MediaClassConvertible},
		{"image/png", MediaClassConvertible},
		{"image/jpeg", MediaClassConvertible},
		{"application/zip", MediaClassUnsupported},
		{"video/mp4", MediaClassUnsupported},
		{"", MediaClassUnsupported},
		{"application/PDF", MediaClassUnsupported}, // mimetypes are case-sensitive here
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyMimetype(tc.mimetype), "mimetype %q", tc.mimetype)
	}
}

func TestRunStatusTerminal(t *testing.T) {
	assert.False(t, RunStatusNotStarted.Terminal())
	assert.False(t, RunStatusProcessing.Terminal())
	assert.True(t, RunStatusCompleted.Terminal())
	assert.True(t, RunStatusIncomplete.Terminal())
	assert.True(t, RunStatusFailed.Terminal())
}
