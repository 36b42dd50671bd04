package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tesseractRunner struct {
	stdout   string
	fail     error
	lastName string
	lastArgs []string
}

func (r *tesseractRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.lastName = name
	r.lastArgs = args
	if r.fail != nil {
		return nil, []byte("Error in pixReadStream"), r.fail
	}
	return []byte(r.stdout), nil, nil
}

func TestTranscribeReturnsStdout(t *testing.T) {
	runner := &tesseractRunner{stdout: "INVOICE #42\nTotal: $10.00\n"}
	tr := NewTranscriberWithRunner(Config{}, runner)

	text, err := tr.Transcribe(context.Background(), []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "INVOICE #42\nTotal: $10.00\n", text)

	// tesseract <img> stdout -l eng
	assert.Equal(t, "tesseract", runner.lastName)
	require.Len(t, runner.lastArgs, 4)
	assert.Equal(t, "stdout", runner.lastArgs[1])
	assert.Equal(t, "-l", runner.lastArgs[2])
	assert.Equal(t, "eng", runner.lastArgs[3])
}

func TestTranscribePassesPSMAndOEM(t *testing.T) {
	runner := &tesseractRunner{stdout: "text"}
	tr := NewTranscriberWithRunner(Config{TesseractLang: "deu", PSM: 6, OEM: 1}, runner)

	_, err := tr.Transcribe(context.Background(), []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, []string{runner.lastArgs[0], "stdout", "-l", "deu", "--psm", "6", "--oem", "1"}, runner.lastArgs)
}

func TestTranscribeCommandFailure(t *testing.T) {
	tr := NewTranscriberWithRunner(Config{}, &tesseractRunner{fail: errors.New("exit status 1")})

	_, err := tr.Transcribe(context.Background(), []byte("not an image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixReadStream")
}
