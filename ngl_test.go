package ngl

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("hello")
	if buf.Len() == 0 {
		t.Errorf("configured logger produced no output")
	}

	SetLogger(nil)
	buf.Reset()
	Logger().Info("silent")
	if buf.Len() != 0 {
		t.Errorf("nil logger still writes")
	}
}

func TestImagePlaneCounts(t *testing.T) {
	tests := []struct {
		layout ImageLayout
		want   int
	}{
		{ImageLayoutNone, 0},
		{ImageLayoutDefault, 1},
		{ImageLayoutMediaCodec, 1},
		{ImageLayoutNV12, 2},
		{ImageLayoutNV12Rectangle, 2},
	}
	for _, tt := range tests {
		if got := tt.layout.PlaneCount(); got != tt.want {
			t.Errorf("%s.PlaneCount() = %d, want %d", tt.layout, got, tt.want)
		}
	}
}

type fakePlane struct {
	w, h, d int
	format  PixelFormat
}

func (p fakePlane) Width() int          { return p.w }
func (p fakePlane) Height() int         { return p.h }
func (p fakePlane) Depth() int          { return p.d }
func (p fakePlane) Format() PixelFormat { return p.format }

func TestImageInit(t *testing.T) {
	var img Image

	if err := img.Init(ImageLayoutNV12, fakePlane{w: 4, h: 4, format: PixelFormatR8}); err == nil {
		t.Errorf("Init NV12 with 1 plane succeeded")
	}
	if err := img.Init(ImageLayoutNone); err == nil {
		t.Errorf("Init with layout None succeeded")
	}

	err := img.Init(ImageLayoutNV12,
		fakePlane{w: 4, h: 4, format: PixelFormatR8},
		fakePlane{w: 2, h: 2, format: PixelFormatRG8})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if img.PlaneCount() != 2 {
		t.Errorf("PlaneCount() = %d, want 2", img.PlaneCount())
	}
	if img.CoordMatrix != Identity || img.ColorMatrix != Identity {
		t.Errorf("matrices not reset to identity on Init")
	}

	// Y: 4x4x1 byte, UV: 2x2x2 bytes.
	if got := img.MemorySize(); got != 16+8 {
		t.Errorf("MemorySize() = %d, want 24", got)
	}
}

func TestImageMemorySizeDepth(t *testing.T) {
	var img Image
	err := img.Init(ImageLayoutDefault, fakePlane{w: 2, h: 2, d: 3, format: PixelFormatRGBA8})
	if err != nil {
		t.Fatal(err)
	}
	if got := img.MemorySize(); got != 2*2*3*4 {
		t.Errorf("MemorySize() = %d, want 48", got)
	}
}

func TestColorMatrixForSpace(t *testing.T) {
	if got := ColorMatrixForSpace(ColorSpaceRGB); got != Identity {
		t.Errorf("RGB matrix is not identity")
	}

	bt709 := ColorMatrixForSpace(ColorSpaceBT709)
	if bt709 == Identity {
		t.Errorf("BT709 matrix is identity")
	}
	// Unknown and undefined spaces fall back to BT709.
	if got := ColorMatrixForSpace(ColorSpace(200)); got != bt709 {
		t.Errorf("unknown space does not fall back to BT709")
	}
	if got := ColorMatrixForSpace(ColorSpaceUndefined); got != bt709 {
		t.Errorf("undefined space does not fall back to BT709")
	}

	// The three standards disagree on luma coefficients.
	bt601 := ColorMatrixForSpace(ColorSpaceBT601)
	bt2020 := ColorMatrixForSpace(ColorSpaceBT2020)
	if bt601 == bt709 || bt2020 == bt709 || bt601 == bt2020 {
		t.Errorf("color space matrices not distinct")
	}

	// All YUV matrices share the limited-range luma scale.
	const lumaGain = 255.0 / 219.0
	for _, m := range []struct {
		name string
		mat  [16]float32
	}{
		{"bt601", bt601}, {"bt709", bt709}, {"bt2020", bt2020},
	} {
		got := m.mat[0]
		if got < lumaGain-1e-4 || got > lumaGain+1e-4 {
			t.Errorf("%s luma gain = %g, want %g", m.name, got, lumaGain)
		}
	}
}

func TestPixelFormatBytesPerPixel(t *testing.T) {
	tests := []struct {
		format PixelFormat
		want   int
	}{
		{PixelFormatRGBA8, 4},
		{PixelFormatBGRA8, 4},
		{PixelFormatR8, 1},
		{PixelFormatRG8, 2},
		{PixelFormatRGBA32F, 16},
	}
	for _, tt := range tests {
		if got := tt.format.BytesPerPixel(); got != tt.want {
			t.Errorf("%s.BytesPerPixel() = %d, want %d", tt.format, got, tt.want)
		}
	}
}
