package rembg

import (
	"errors"
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

// ErrNoSubject 抠图结果里没有不透明区域，裁剪无从谈起
var ErrNoSubject = errors.New("no foreground detected")

// TrimToSubject 把移除背景后的图像裁成以主体为中心的正方形：
//
//	用 alpha 通道找主体 bounding box
//	以最长边为边长居中裁剪
//
// alpha 全透明时返回 ErrNoSubject。
func TrimToSubject(img image.Image, threshold float64) (*image.NRGBA, error) {
	src := ToNRGBA(img)

	bbox, err := alphaBBox(src, threshold)
	if err != nil {
		return nil, err
	}

	return cropSquare(src, bbox), nil
}

// HasUsefulAlpha 检查 alpha 通道是否真的包含透明信息
// 只要存在非 255（非完全不透明），就认为已有抠图
func HasUsefulAlpha(img *image.NRGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			return true
		}
	}
	return false
}

// alphaBBox 从 alpha 通道计算主体 bounding box
// 把 alpha > threshold * 255 的像素当作主体，找所有主体像素的坐标
func alphaBBox(img *image.NRGBA, threshold float64) (image.Rectangle, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	th := uint8(threshold * 255)

	minX, minY := w, h
	maxX, maxY := 0, 0
	found := false

	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			a := img.Pix[row+x*4+3]
			if a > th {
				found = true
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if !found {
		return image.Rectangle{}, ErrNoSubject
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), nil
}

// Premultiply 预乘 Alpha，RGB × alpha
// 目的：去除白边 / 透明边缘污染，合成时看到的是干净的主体
func Premultiply(img *image.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		a := float64(img.Pix[i+3]) / 255.0
		img.Pix[i] = uint8(float64(img.Pix[i]) * a)
		img.Pix[i+1] = uint8(float64(img.Pix[i+1]) * a)
		img.Pix[i+2] = uint8(float64(img.Pix[i+2]) * a)
	}
}

// ResizeWithinMax 缩放（最长边 <= maxSize），不放大
func ResizeWithinMax(img *image.NRGBA, maxSize int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)

	if longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
	return ToNRGBA(resized)
}

// ToNRGBA 统一转成 *image.NRGBA，已经是则原样返回
func ToNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// cropSquare 正方形裁剪（中心对齐），用最长边作为正方形边长
func cropSquare(img *image.NRGBA, bbox image.Rectangle) *image.NRGBA {
	cx := (bbox.Min.X + bbox.Max.X) / 2
	cy := (bbox.Min.Y + bbox.Max.Y) / 2
	size := int(math.Max(float64(bbox.Dx()), float64(bbox.Dy())))

	half := size / 2
	rect := image.Rect(
		cx-half, cy-half,
		cx+half, cy+half,
	).Intersect(img.Bounds())

	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}
