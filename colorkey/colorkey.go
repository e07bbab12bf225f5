package colorkey

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidImage 输入缓冲区为空或与声明的尺寸不一致
var ErrInvalidImage = errors.New("invalid image buffer")

// Color3 表示一个 RGB 颜色，各通道范围 [0, 255]，无 alpha
type Color3 struct {
	R, G, B float32
}

// Distance 计算两个颜色之间的欧氏距离，范围 [0, 441.7]
func (c Color3) Distance(o Color3) float64 {
	dr := float64(c.R - o.R)
	dg := float64(c.G - o.G)
	db := float64(c.B - o.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Hex returns the color as "#rrggbb" for logging and display.
func (c Color3) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hex()
}

// EstimateBackground 采样四个角像素，取各通道的算术平均作为背景参考色。
// 前提是背景占据全部四个角；主体碰到角或背景多色时估计会偏差。
func EstimateBackground(p *PixelBuffer) (Color3, error) {
	if err := p.Validate(); err != nil {
		return Color3{}, err
	}

	corners := [4][2]int{
		{0, 0},
		{p.Width - 1, 0},
		{0, p.Height - 1},
		{p.Width - 1, p.Height - 1},
	}

	var r, g, b float32
	for _, c := range corners {
		i := p.offset(c[0], c[1])
		r += float32(p.Pix[i])
		g += float32(p.Pix[i+1])
		b += float32(p.Pix[i+2])
	}
	return Color3{R: r / 4, G: g / 4, B: b / 4}, nil
}

// Threshold 把 0-100 的容差线性映射到 0-255 的色距阈值
func Threshold(tolerance float64) float64 {
	return clampTolerance(tolerance) * 2.55
}

func clampTolerance(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 100 {
		return 100
	}
	return t
}

// RemoveBackground 用角采样的参考色做色键抠图：
//
//	与参考色距离 <= tolerance*2.55 的像素四通道全部清零（预乘透明黑）
//	其余像素原样拷贝，alpha 保持不变
//
// 输入不会被修改；输出是同尺寸的新缓冲区。
func RemoveBackground(input *PixelBuffer, tolerance float64) (*PixelBuffer, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("remove background: %w", err)
	}

	ref, err := EstimateBackground(input)
	if err != nil {
		return nil, fmt.Errorf("estimate background: %w", err)
	}
	threshold := Threshold(tolerance)

	out := &PixelBuffer{
		Pix:    make([]uint8, len(input.Pix)),
		Width:  input.Width,
		Height: input.Height,
	}
	copy(out.Pix, input.Pix)

	for i := 0; i < len(out.Pix); i += 4 {
		px := Color3{
			R: float32(out.Pix[i]),
			G: float32(out.Pix[i+1]),
			B: float32(out.Pix[i+2]),
		}
		if ref.Distance(px) <= threshold {
			out.Pix[i] = 0
			out.Pix[i+1] = 0
			out.Pix[i+2] = 0
			out.Pix[i+3] = 0
		}
	}

	return out, nil
}
