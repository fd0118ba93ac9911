package kmlgen

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowline-maps/terrain-export/internal/style"
)

func testIconFS() fstest.MapFS {
	return fstest.MapFS{
		"icons-11/marker.png":       {Data: []byte("png-marker")},
		"icons-11/rescue-cache.png": {Data: []byte("png-rescue")},
		"icons-15/marker.png":       {Data: []byte("png-marker-15")},
	}
}

func TestWriteKMZ(t *testing.T) {
	doc, err := BuildDocument(testLayers(), style.Default(), "icons", 11)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteKMZ(&buf, doc, testIconFS(), "icons", 11))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}

	// doc.kml first, then the selected icon set only.
	require.NotEmpty(t, names)
	assert.Equal(t, "doc.kml", names[0])
	assert.Contains(t, names, "icons-11/marker.png")
	assert.Contains(t, names, "icons-11/rescue-cache.png")
	assert.NotContains(t, names, "icons-15/marker.png")

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	kmlBytes, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(kmlBytes), "<name>Bow Summit</name>")
}

func TestWriteKMZ_IconContentCopied(t *testing.T) {
	doc, err := BuildDocument(nil, style.Default(), "icons", 11)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteKMZ(&buf, doc, testIconFS(), "icons", 11))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	for _, f := range zr.File {
		if f.Name != "icons-11/marker.png" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, "png-marker", string(data))
		return
	}
	t.Fatal("icons-11/marker.png missing from archive")
}

func TestWriteKMZ_MissingIconSet(t *testing.T) {
	doc, err := BuildDocument(nil, style.Default(), "icons", 11)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = WriteKMZ(&buf, doc, fstest.MapFS{}, "icons", 11)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "icons-11")
}
