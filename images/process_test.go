package images

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, nil)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		w, h        int
		max         uint
		wantType    string
		wantExt     string
		wantW       int
		wantH       int
		wantDecoder func([]byte) (image.Config, error)
	}{
		{name: "small jpeg untouched", format: "jpeg", w: 10, h: 10, max: 100, wantType: "image/jpeg", wantExt: "jpg", wantW: 10, wantH: 10},
		{name: "wide png scaled", format: "png", w: 400, h: 200, max: 100, wantType: "image/png", wantExt: "png", wantW: 100, wantH: 50},
		{name: "tall jpeg scaled", format: "jpeg", w: 100, h: 400, max: 200, wantType: "image/jpeg", wantExt: "jpg", wantW: 50, wantH: 200},
		{name: "gif becomes jpeg", format: "gif", w: 20, h: 20, max: 100, wantType: "image/jpeg", wantExt: "jpg", wantW: 20, wantH: 20},
		{name: "no limit", format: "png", w: 300, h: 300, max: 0, wantType: "image/png", wantExt: "png", wantW: 300, wantH: 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Process(bytes.NewReader(encodeTestImage(t, tt.format, tt.w, tt.h)), Limits{MaxDimension: tt.max})
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, out.ContentType)
			assert.Equal(t, tt.wantExt, out.Ext)
			assert.Equal(t, tt.wantW, out.Width)
			assert.Equal(t, tt.wantH, out.Height)

			cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}

func TestProcess_Invalid(t *testing.T) {
	_, err := Process(strings.NewReader("notanimage"), Limits{MaxDimension: 100})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = Process(bytes.NewReader(nil), Limits{MaxDimension: 100})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestProcess_PixelBudget(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		maxPixels int64
		wantErr   bool
	}{
		{name: "png at budget", format: "png", maxPixels: 40 * 30},
		{name: "png over budget", format: "png", maxPixels: 40*30 - 1, wantErr: true},
		{name: "jpeg over budget", format: "jpeg", maxPixels: 100, wantErr: true},
		{name: "gif over budget", format: "gif", maxPixels: 100, wantErr: true},
		{name: "no budget", format: "jpeg", maxPixels: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeTestImage(t, tt.format, 40, 30)
			out, err := Process(bytes.NewReader(data), Limits{MaxDimension: 100, MaxPixels: tt.maxPixels})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidImage)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 40, out.Width)
			assert.Equal(t, 30, out.Height)
		})
	}
}

func TestProcess_PixelBudgetCheckedBeforeDecode(t *testing.T) {
	// Only the header of a 60000x60000 PNG: decoding pixels would fail on
	// the missing data, so ErrInvalidImage must come from the budget.
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()
	// IHDR: length at 8, type at 12, 13 bytes of data at 16, CRC at 29.
	binary.BigEndian.PutUint32(data[16:20], 60000)
	binary.BigEndian.PutUint32(data[20:24], 60000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	_, err := Process(bytes.NewReader(data[:33]), Limits{MaxPixels: 40_000_000})
	require.ErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "60000x60000 exceeds 40000000 pixels")
}

func TestNewKey(t *testing.T) {
	a, b := NewKey("jpg"), NewKey("jpg")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^uploads/recipe/[0-9a-f-]{36}\.jpg$`, a)
}
