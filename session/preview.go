package session

import (
	"image"

	"golang.org/x/image/draw"
)

// Preview 生成不超过 maxSize 的预览图（CatmullRom），小图原样返回
func Preview(img image.Image, maxSize int) image.Image {
	if img == nil {
		return nil
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// PreviewResult 当前结果的预览；没有结果时返回 nil
func (s *Session) PreviewResult(maxSize int) image.Image {
	return Preview(s.Snapshot().Result, maxSize)
}
