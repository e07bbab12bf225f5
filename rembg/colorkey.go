package rembg

import (
	"context"
	"image"
	"log/slog"

	"github.com/chaos-io/swissknife/colorkey"
)

// ColorKey 用 colorkey 核心实现 Remover。纯 CPU 计算，不会因 ctx 中途停下；
// 过期结果由调用方丢弃（见 session 包）。
type ColorKey struct {
	Tolerance float64
}

func NewColorKey(tolerance float64) *ColorKey {
	return &ColorKey{Tolerance: tolerance}
}

func (c *ColorKey) Remove(_ context.Context, img image.Image) (image.Image, error) {
	buf := colorkey.FromImage(img)

	if ref, err := colorkey.EstimateBackground(buf); err == nil {
		slog.Debug("color key removal",
			"reference", ref.Hex(),
			"threshold", colorkey.Threshold(c.Tolerance),
			"size", buf.Width*buf.Height)
	}

	out, err := colorkey.RemoveBackground(buf, c.Tolerance)
	if err != nil {
		return nil, err
	}
	return out.Image(), nil
}
