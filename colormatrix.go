package ngl

import (
	"fmt"

	"golang.org/x/image/math/f32"
)

// ColorSpace identifies the YUV color space of decoded video content.
type ColorSpace uint8

const (
	// ColorSpaceUndefined means the content did not declare a color space.
	ColorSpaceUndefined ColorSpace = iota

	// ColorSpaceRGB is already RGB, no conversion needed.
	ColorSpaceRGB

	// ColorSpaceBT601 is ITU-R BT.601 (SD content).
	ColorSpaceBT601

	// ColorSpaceBT709 is ITU-R BT.709 (HD content).
	ColorSpaceBT709

	// ColorSpaceBT2020 is ITU-R BT.2020 (UHD content).
	ColorSpaceBT2020
)

// String returns a human-readable name for the color space.
func (cs ColorSpace) String() string {
	switch cs {
	case ColorSpaceUndefined:
		return "undefined"
	case ColorSpaceRGB:
		return "rgb"
	case ColorSpaceBT601:
		return "bt601"
	case ColorSpaceBT709:
		return "bt709"
	case ColorSpaceBT2020:
		return "bt2020"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(cs))
	}
}

// Limited-range quantization constants for 8-bit content.
const (
	lumaOffset  = 16.0 / 255.0
	lumaScale   = 255.0 / 219.0
	chromaScale = 255.0 / 224.0
)

// yuvToRGBMatrix derives the limited-range YCbCr to RGB conversion matrix
// from the luma coefficients kr and kb. The matrix is column-major and
// expects Y in x, Cb in y, Cr in z, 1 in w.
func yuvToRGBMatrix(kr, kb float32) f32.Mat4 {
	kg := 1 - kr - kb

	y := float32(lumaScale)
	rV := 2 * (1 - kr) * chromaScale
	gU := -2 * kb * (1 - kb) / kg * chromaScale
	gV := -2 * kr * (1 - kr) / kg * chromaScale
	bU := 2 * (1 - kb) * chromaScale

	const chromaOffset = 128.0 / 255.0
	yOff := float32(lumaScale * lumaOffset)

	return f32.Mat4{
		y, y, y, 0, // Y column
		0, gU, bU, 0, // Cb column
		rV, gV, 0, 0, // Cr column
		-(yOff + rV*chromaOffset),
		-(yOff + (gU+gV)*chromaOffset),
		-(yOff + bU*chromaOffset),
		1,
	}
}

// defaultColorSpace is used when content declares no color space or one
// we cannot convert.
const defaultColorSpace = ColorSpaceBT709

// ColorMatrixForSpace returns the YCbCr to RGB conversion matrix for the
// given color space. Undefined or unsupported spaces fall back to BT.709
// with a log message; RGB content gets the identity matrix.
func ColorMatrixForSpace(cs ColorSpace) f32.Mat4 {
	switch cs {
	case ColorSpaceRGB:
		return Identity
	case ColorSpaceBT601:
		return yuvToRGBMatrix(0.299, 0.114)
	case ColorSpaceBT709:
		return yuvToRGBMatrix(0.2126, 0.0722)
	case ColorSpaceBT2020:
		return yuvToRGBMatrix(0.2627, 0.0593)
	case ColorSpaceUndefined:
		Logger().Info("color space unspecified, falling back on default matrix",
			"default", defaultColorSpace)
		return ColorMatrixForSpace(defaultColorSpace)
	default:
		Logger().Warn("unsupported color space, falling back on default matrix",
			"space", cs, "default", defaultColorSpace)
		return ColorMatrixForSpace(defaultColorSpace)
	}
}
