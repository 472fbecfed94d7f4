package ngl

import (
	"fmt"

	"golang.org/x/image/math/f32"
)

// PixelFormat describes the storage format of a single texture plane.
type PixelFormat uint8

const (
	// PixelFormatRGBA8 is 8-bit RGBA, the default single-plane format.
	PixelFormatRGBA8 PixelFormat = iota

	// PixelFormatBGRA8 is 8-bit BGRA, often used for surface presentation.
	PixelFormatBGRA8

	// PixelFormatR8 is single-channel 8-bit, used for luma planes and masks.
	PixelFormatR8

	// PixelFormatRG8 is two-channel 8-bit, used for interleaved chroma planes.
	PixelFormatRG8

	// PixelFormatRGBA32F is 32-bit float RGBA.
	PixelFormatRGBA32F
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8:
		return "RGBA8"
	case PixelFormatBGRA8:
		return "BGRA8"
	case PixelFormatR8:
		return "R8"
	case PixelFormatRG8:
		return "RG8"
	case PixelFormatRGBA32F:
		return "RGBA32F"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGBA8, PixelFormatBGRA8:
		return 4
	case PixelFormatR8:
		return 1
	case PixelFormatRG8:
		return 2
	case PixelFormatRGBA32F:
		return 16
	default:
		return 4
	}
}

// ImageLayout identifies the plane organization of a logical image.
type ImageLayout uint8

const (
	// ImageLayoutNone marks an uninitialized image.
	ImageLayoutNone ImageLayout = iota

	// ImageLayoutDefault is a single RGBA plane.
	ImageLayoutDefault

	// ImageLayoutMediaCodec is a single platform-opaque plane (external
	// decoder surface).
	ImageLayoutMediaCodec

	// ImageLayoutNV12 is two planes: full-resolution Y and half-resolution
	// interleaved UV.
	ImageLayoutNV12

	// ImageLayoutNV12Rectangle is NV12 backed by rectangle textures
	// (non-normalized coordinates).
	ImageLayoutNV12Rectangle
)

// String returns a human-readable name for the layout.
func (l ImageLayout) String() string {
	switch l {
	case ImageLayoutNone:
		return "None"
	case ImageLayoutDefault:
		return "Default"
	case ImageLayoutMediaCodec:
		return "MediaCodec"
	case ImageLayoutNV12:
		return "NV12"
	case ImageLayoutNV12Rectangle:
		return "NV12Rectangle"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(l))
	}
}

// PlaneCount returns the number of physical planes for the layout.
// The count is a pure function of the layout tag.
func (l ImageLayout) PlaneCount() int {
	switch l {
	case ImageLayoutDefault, ImageLayoutMediaCodec:
		return 1
	case ImageLayoutNV12, ImageLayoutNV12Rectangle:
		return 2
	default:
		return 0
	}
}

// MaxImagePlanes is the maximum number of physical planes an image may carry.
const MaxImagePlanes = 4

// Plane is one physical texture backing a logical image. Backend textures
// and scene texture nodes implement it.
type Plane interface {
	// Width returns the plane width in pixels.
	Width() int

	// Height returns the plane height in pixels.
	Height() int

	// Depth returns the plane depth for 3D textures, or 0 for 2D planes.
	Depth() int

	// Format returns the plane pixel format.
	Format() PixelFormat
}

// Image is a logical texture that may span several physical planes
// (single-plane RGBA by default, or multi-plane YUV layouts such as NV12).
//
// An Image carries a coordinate transform matrix, applied to texture
// coordinates for cropping and orientation, and a color conversion matrix
// for non-RGB color spaces. Both are reset to the identity. Timestamp is
// the presentation time of the current content in seconds.
type Image struct {
	// CoordMatrix transforms texture coordinates (cropping, orientation).
	CoordMatrix f32.Mat4

	// ColorMatrix converts the image color space to RGB.
	ColorMatrix f32.Mat4

	// Timestamp is the presentation time of the current content.
	Timestamp float64

	layout ImageLayout
	planes [MaxImagePlanes]Plane
}

// Identity is the 4x4 identity matrix.
var Identity = f32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Reset clears the image back to its uninitialized state with identity
// coordinate and color matrices.
func (img *Image) Reset() {
	*img = Image{
		CoordMatrix: Identity,
		ColorMatrix: Identity,
	}
}

// Init configures the image for the given layout. The number of planes
// must match the layout's plane count; extra planes are an error, missing
// planes are an error too.
func (img *Image) Init(layout ImageLayout, planes ...Plane) error {
	n := layout.PlaneCount()
	if n == 0 {
		return fmt.Errorf("ngl: cannot init image with layout %s", layout)
	}
	if len(planes) != n {
		return fmt.Errorf("ngl: layout %s requires %d planes, got %d", layout, n, len(planes))
	}
	img.Reset()
	img.layout = layout
	copy(img.planes[:], planes)
	return nil
}

// Layout returns the image layout tag.
func (img *Image) Layout() ImageLayout { return img.layout }

// PlaneCount returns the number of physical planes.
func (img *Image) PlaneCount() int { return img.layout.PlaneCount() }

// Plane returns the i-th physical plane. It panics if i is out of range
// for the current layout.
func (img *Image) Plane(i int) Plane {
	if i < 0 || i >= img.PlaneCount() {
		panic(fmt.Sprintf("ngl: plane index %d out of range for layout %s", i, img.layout))
	}
	return img.planes[i]
}

// MemorySize returns the total GPU memory consumed by all planes, in bytes.
func (img *Image) MemorySize() uint64 {
	var size uint64
	for i := 0; i < img.PlaneCount(); i++ {
		p := img.planes[i]
		if p == nil {
			continue
		}
		depth := p.Depth()
		if depth < 1 {
			depth = 1
		}
		size += uint64(p.Width()) * uint64(p.Height()) * uint64(depth) *
			uint64(p.Format().BytesPerPixel())
	}
	return size
}
