package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(afero.NewMemMapFs())

	require.NoError(t, store.Put(ctx, "gov-id/user/front-1.jpg", []byte("front")))

	got, err := store.Get(ctx, "gov-id/user/front-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("front"), got)

	require.NoError(t, store.Delete(ctx, "gov-id/user/front-1.jpg"))
	_, err = store.Get(ctx, "gov-id/user/front-1.jpg")
	assert.Error(t, err)

	assert.NoError(t, store.Delete(ctx, "gov-id/user/missing.jpg"))
}

func TestBlobStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(afero.NewMemMapFs())

	for _, key := range []string{"", " ", "/etc/passwd", "../secret", "a/../../b", "..", `a\b`} {
		assert.ErrorIs(t, store.Put(ctx, key, []byte("x")), ErrInvalidKey, key)
		assert.ErrorIs(t, store.Delete(ctx, key), ErrInvalidKey, key)
	}
}

func TestBlobStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewBlobStore(afero.NewMemMapFs())
	assert.ErrorIs(t, store.Put(ctx, "a.jpg", []byte("x")), context.Canceled)
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeImage(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		maxWidth   int
		wantWidth  int
		wantHeight int
	}{
		{name: "shrinks wide images", width: 400, height: 200, maxWidth: 100, wantWidth: 100, wantHeight: 50},
		{name: "keeps narrow images", width: 80, height: 40, maxWidth: 100, wantWidth: 80, wantHeight: 40},
		{name: "no limit", width: 300, height: 10, maxWidth: 0, wantWidth: 300, wantHeight: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NormalizeImage(pngBytes(t, tt.width, tt.height), tt.maxWidth)
			require.NoError(t, err)

			img, format, err := image.Decode(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantWidth, img.Bounds().Dx())
			assert.Equal(t, tt.wantHeight, img.Bounds().Dy())
		})
	}
}

func TestNormalizeImage_RejectsGarbage(t *testing.T) {
	_, err := NormalizeImage([]byte("definitely not an image"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = NormalizeImage(nil, 100)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
