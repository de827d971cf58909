package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_FetchBatchAndResume(t *testing.T) {
	rows := []any{Patient{PatientID: "A"}, Patient{PatientID: "B"}, Patient{PatientID: "C"}}
	c := NewCursor(KindPatient, rows)

	batch := c.FetchBatch(2)
	require.Len(t, batch, 2)
	assert.True(t, c.HasMore())

	token := c.Serialize()
	resumed, err := Resume(token, rows)
	require.NoError(t, err)
	assert.True(t, resumed.HasMore())

	row, ok := resumed.FetchNext()
	require.True(t, ok)
	assert.Equal(t, "C", row.(Patient).PatientID)
	assert.False(t, resumed.HasMore())
}

func TestCursor_ResetRewinds(t *testing.T) {
	c := NewCursor(KindStudy, []any{Study{StudyID: "1"}, Study{StudyID: "2"}})
	c.FetchNext()
	c.FetchNext()
	assert.False(t, c.HasMore())
	c.Reset()
	assert.True(t, c.HasMore())
}
