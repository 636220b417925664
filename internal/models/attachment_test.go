package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentListScan_JSONArray(t *testing.T) {
	var list AttachmentList
	require.NoError(t, list.Scan(`["uploads/a.pdf","uploads/b.png"]`))
	assert.Equal(t, AttachmentList{"uploads/a.pdf", "uploads/b.png"}, list)
}

func TestAttachmentListScan_LegacySinglePath(t *testing.T) {
	var list AttachmentList
	require.NoError(t, list.Scan("uploads/report.pdf"))
	assert.Equal(t, AttachmentList{"uploads/report.pdf"}, list)
}

func TestAttachmentListScan_Null(t *testing.T) {
	var list AttachmentList
	require.NoError(t, list.Scan(nil))
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestAttachmentListScan_EmptyString(t *testing.T) {
	var list AttachmentList
	require.NoError(t, list.Scan(""))
	assert.Empty(t, list)
}

func TestAttachmentListScan_Bytes(t *testing.T) {
	var list AttachmentList
	require.NoError(t, list.Scan([]byte(`["x.txt"]`)))
	assert.Equal(t, AttachmentList{"x.txt"}, list)
}

func TestAttachmentListValue(t *testing.T) {
	v, err := AttachmentList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = AttachmentList{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = AttachmentList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestAttachmentListRoundTrip(t *testing.T) {
	original := AttachmentList{"uploads/one.jpg", "uploads/two.jpg"}
	v, err := original.Value()
	require.NoError(t, err)

	var decoded AttachmentList
	require.NoError(t, decoded.Scan(v))
	assert.Equal(t, original, decoded)
}

func TestTaskStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, TaskStatus("archived").Valid())
	assert.False(t, TaskStatus("").Valid())
}
