package catalog

import (
	"testing"

	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studyInstanceUIDTag = dicom.Tag{Group: 0x0020, Element: 0x000D}

func TestResultStream_NextBatchMapsColumnsToTags(t *testing.T) {
	rows := []any{
		Study{StudyInstanceUID: "1.2.3", AccessionNumber: "ACC1"},
		Study{StudyInstanceUID: "1.2.4", AccessionNumber: "ACC2"},
	}
	stream := NewResultStream(NewCursor(KindStudy, rows), 1)

	batch, err := stream.NextBatch()
	require.NoError(t, err)
	require.Len(t, batch, 1)
	e, ok := batch[0].Get(studyInstanceUIDTag)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", e.String())
	assert.True(t, stream.HasMore())

	batch, err = stream.NextBatch()
	require.NoError(t, err)
	require.Len(t, batch, 1)
	e, ok = batch[0].Get(studyInstanceUIDTag)
	require.True(t, ok)
	assert.Equal(t, "1.2.4", e.String())
	assert.False(t, stream.HasMore())
}
