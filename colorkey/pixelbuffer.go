package colorkey

import (
	"fmt"
	"image"
	"image/draw"
)

// PixelBuffer 是解码后的原始 RGBA 光栅：
//
//	连续字节数组，RGBA 顺序，8 bit/通道，按行排列
//	bytesPerRow = Width * 4，不带行填充
//	不变量 len(Pix) == Height * bytesPerRow
type PixelBuffer struct {
	Pix    []uint8
	Width  int
	Height int
}

func (p *PixelBuffer) BytesPerRow() int {
	return p.Width * 4
}

// Validate reports ErrInvalidImage for an empty buffer or a length that does
// not match the stated dimensions.
func (p *PixelBuffer) Validate() error {
	if p == nil || p.Width < 1 || p.Height < 1 {
		return fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if want := p.Height * p.BytesPerRow(); len(p.Pix) != want {
		return fmt.Errorf("%w: buffer length %d, want %d (%dx%d)",
			ErrInvalidImage, len(p.Pix), want, p.Width, p.Height)
	}
	return nil
}

func (p *PixelBuffer) offset(x, y int) int {
	return y*p.BytesPerRow() + x*4
}

// FromImage 把任意 image.Image 展开成无填充的 RGBA 缓冲区
func FromImage(img image.Image) *PixelBuffer {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	// NewNRGBA 保证 Stride == width*4，可以整块接管 Pix
	return &PixelBuffer{
		Pix:    dst.Pix,
		Width:  dst.Bounds().Dx(),
		Height: dst.Bounds().Dy(),
	}
}

// Image 把缓冲区还原为 *image.NRGBA，与底层 Pix 共享存储
func (p *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.Pix,
		Stride: p.BytesPerRow(),
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}
