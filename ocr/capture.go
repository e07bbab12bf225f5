package ocr

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Region 屏幕上的一块矩形区域（虚拟桌面坐标）
type Region struct {
	X, Y, Width, Height int
}

// CaptureRegion 截取屏幕指定区域
func CaptureRegion(r Region) (*image.RGBA, error) {
	if r.Width < 1 || r.Height < 1 {
		return nil, fmt.Errorf("%w: empty region %+v", ErrNoInput, r)
	}

	img, err := screenshot.CaptureRect(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	if err != nil {
		return nil, fmt.Errorf("capture region: %w", err)
	}
	return img, nil
}

// DisplayRegions 枚举所有显示器的整屏区域
func DisplayRegions() []Region {
	n := screenshot.NumActiveDisplays()
	out := make([]Region, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		out = append(out, Region{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()})
	}
	return out
}
