package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/schema"
)

func validDescriptor() RunDescriptor {
	return RunDescriptor{
		RunID:    uuid.New(),
		Strategy: constants.StrategyFileTextOpenAI,
		Schema: schema.Config{
			Fields: []schema.Field{{Name: "total", Type: schema.Scalar(schema.Number)}},
		},
		Files: []FileRef{
			{Filename: "a.pdf", Mimetype: "application/pdf", StoragePath: "a.pdf_123"},
		},
	}
}

func TestRunDescriptorValidate(t *testing.T) {
	d := validDescriptor()
	require.NoError(t, d.Validate())

	t.Run("nil run id", func(t *testing.T) {
		d := validDescriptor()
		d.RunID = uuid.Nil
		assert.Error(t, d.Validate())
	})

	t.Run("no files", func(t *testing.T) {
		d := validDescriptor()
		d.Files = nil
		assert.Error(t, d.Validate())
	})

	t.Run("file missing storage path", func(t *testing.T) {
		d := validDescriptor()
		d.Files[0].StoragePath = ""
		assert.Error(t, d.Validate())
	})

	t.Run("file missing mimetype", func(t *testing.T) {
		d := validDescriptor()
		d.Files[0].Mimetype = ""
		assert.Error(t, d.Validate())
	})

	t.Run("invalid schema", func(t *testing.T) {
		d := validDescriptor()
		d.Schema.Fields = nil
		assert.Error(t, d.Validate())
	})
}
