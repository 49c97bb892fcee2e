package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaKindFromContentType(t *testing.T) {
	assert.Equal(t, MediaImage, MediaKindFromContentType("image/jpeg"))
	assert.Equal(t, MediaImage, MediaKindFromContentType("image/png"))
	assert.Equal(t, MediaVideo, MediaKindFromContentType("video/mp4"))
	// Unknown types default to image.
	assert.Equal(t, MediaImage, MediaKindFromContentType("application/octet-stream"))
	assert.Equal(t, MediaImage, MediaKindFromContentType(""))
}

func TestMediaSliceScanFromDatabaseValue(t *testing.T) {
	var ms MediaSlice
	require.NoError(t, ms.Scan([]byte(`[{"kind":"image","url":"https://cdn/x.png"}]`)))
	require.Len(t, ms, 1)
	assert.Equal(t, MediaImage, ms[0].Kind)

	require.NoError(t, ms.Scan(nil))
	assert.Nil(t, ms)

	assert.Error(t, ms.Scan(42))
}
