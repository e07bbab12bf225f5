package colorkey

import (
	"bytes"
	"errors"
	"testing"
)

func uniform(w, h int, r, g, b, a uint8) *PixelBuffer {
	p := &PixelBuffer{Pix: make([]uint8, w*h*4), Width: w, Height: h}
	for i := 0; i < len(p.Pix); i += 4 {
		p.Pix[i] = r
		p.Pix[i+1] = g
		p.Pix[i+2] = b
		p.Pix[i+3] = a
	}
	return p
}

func setPixel(p *PixelBuffer, x, y int, r, g, b, a uint8) {
	i := p.offset(x, y)
	p.Pix[i] = r
	p.Pix[i+1] = g
	p.Pix[i+2] = b
	p.Pix[i+3] = a
}

func countTransparent(p *PixelBuffer) int {
	n := 0
	for i := 0; i < len(p.Pix); i += 4 {
		if p.Pix[i] == 0 && p.Pix[i+1] == 0 && p.Pix[i+2] == 0 && p.Pix[i+3] == 0 {
			n++
		}
	}
	return n
}

func TestRemoveBackground_UniformWhite(t *testing.T) {
	in := uniform(4, 4, 255, 255, 255, 255)

	out, err := RemoveBackground(in, 10)
	if err != nil {
		t.Fatalf("faild to remove background, %v", err)
	}

	if got := countTransparent(out); got != 16 {
		t.Errorf("transparent pixels = %d, want 16", got)
	}
}

func TestRemoveBackground_BlackCenterSurvives(t *testing.T) {
	// 四角纯白、中心纯黑的 3x3，容差 10（阈值 25.5）：
	// 中心距离 sqrt(3*255^2) ≈ 441.7，远超阈值，应保持不透明
	in := uniform(3, 3, 255, 255, 255, 255)
	setPixel(in, 1, 1, 0, 0, 0, 255)

	out, err := RemoveBackground(in, 10)
	if err != nil {
		t.Fatalf("faild to remove background, %v", err)
	}

	if got := countTransparent(out); got != 8 {
		t.Errorf("transparent pixels = %d, want 8", got)
	}
	i := out.offset(1, 1)
	if out.Pix[i] != 0 || out.Pix[i+1] != 0 || out.Pix[i+2] != 0 || out.Pix[i+3] != 255 {
		t.Errorf("center pixel = %v, want opaque black", out.Pix[i:i+4])
	}
}

func TestRemoveBackground_ToleranceZeroExactMatchOnly(t *testing.T) {
	// 容差 0 时只有与角平均色完全相等的像素算背景
	in := uniform(3, 3, 200, 200, 200, 255)
	setPixel(in, 1, 1, 201, 200, 200, 255) // off by one channel unit

	out, err := RemoveBackground(in, 0)
	if err != nil {
		t.Fatalf("faild to remove background, %v", err)
	}

	if got := countTransparent(out); got != 8 {
		t.Errorf("transparent pixels = %d, want 8", got)
	}
}

func TestRemoveBackground_ToleranceZeroNoMatch(t *testing.T) {
	// 没有任何像素与角平均色完全相等时，容差 0 应该原样输出
	in := uniform(2, 2, 0, 0, 0, 255)
	setPixel(in, 0, 0, 10, 0, 0, 255)
	setPixel(in, 1, 0, 0, 10, 0, 255)
	setPixel(in, 0, 1, 0, 0, 10, 255)
	setPixel(in, 1, 1, 10, 10, 10, 255)
	// corner average = (5, 5, 5); nearest pixel distance ≈ 8.66

	out, err := RemoveBackground(in, 0)
	if err != nil {
		t.Fatalf("faild to remove background, %v", err)
	}

	if !bytes.Equal(out.Pix, in.Pix) {
		t.Errorf("output differs from input at tolerance 0 with no exact match")
	}
}

func TestRemoveBackground_Monotonic(t *testing.T) {
	in := uniform(8, 8, 120, 60, 30, 255)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			setPixel(in, x, y, uint8(120+x*10), uint8(60+y*10), 30, 255)
		}
	}

	prev := -1
	for tol := 0.0; tol <= 100; tol += 5 {
		out, err := RemoveBackground(in, tol)
		if err != nil {
			t.Fatalf("faild to remove background at tolerance %v, %v", tol, err)
		}
		n := countTransparent(out)
		if n < prev {
			t.Fatalf("background set shrank: %d -> %d at tolerance %v", prev, n, tol)
		}
		prev = n
	}
}

func TestRemoveBackground_IdempotentOnOutput(t *testing.T) {
	in := uniform(5, 5, 240, 240, 240, 255)
	setPixel(in, 2, 2, 10, 20, 30, 255)

	first, err := RemoveBackground(in, 15)
	if err != nil {
		t.Fatalf("faild to remove background, %v", err)
	}
	second, err := RemoveBackground(first, 15)
	if err != nil {
		t.Fatalf("faild to remove background on second pass, %v", err)
	}

	// 已清零的像素到任何参考色的“清零状态”不可逆：第二遍仍保持清零
	for i := 0; i < len(first.Pix); i += 4 {
		if first.Pix[i+3] == 0 && second.Pix[i+3] != 0 {
			t.Fatalf("zeroed pixel at byte %d became visible on second pass", i)
		}
	}
}

func TestRemoveBackground_PreservesDimensionsAndInput(t *testing.T) {
	in := uniform(6, 4, 255, 255, 255, 255)
	setPixel(in, 3, 2, 1, 2, 3, 255)
	orig := make([]uint8, len(in.Pix))
	copy(orig, in.Pix)

	out, err := RemoveBackground(in, 50)
	if err != nil {
		t.Fatalf("faild to remove background, %v", err)
	}

	if out.Width != in.Width || out.Height != in.Height || len(out.Pix) != len(in.Pix) {
		t.Errorf("dimensions changed: %dx%d/%d -> %dx%d/%d",
			in.Width, in.Height, len(in.Pix), out.Width, out.Height, len(out.Pix))
	}
	if !bytes.Equal(orig, in.Pix) {
		t.Errorf("input buffer was mutated")
	}
}

func TestRemoveBackground_InvalidImage(t *testing.T) {
	cases := []struct {
		name string
		in   *PixelBuffer
	}{
		{"nil buffer", nil},
		{"zero size", &PixelBuffer{}},
		{"length mismatch", &PixelBuffer{Pix: make([]uint8, 10), Width: 2, Height: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RemoveBackground(tc.in, 10)
			if !errors.Is(err, ErrInvalidImage) {
				t.Errorf("err = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestEstimateBackground_CornerMean(t *testing.T) {
	in := uniform(3, 3, 0, 0, 0, 255)
	setPixel(in, 0, 0, 255, 0, 0, 255)
	setPixel(in, 2, 0, 0, 255, 0, 255)
	setPixel(in, 0, 2, 0, 0, 255, 255)
	setPixel(in, 2, 2, 255, 255, 255, 255)

	ref, err := EstimateBackground(in)
	if err != nil {
		t.Fatalf("faild to estimate background, %v", err)
	}
	want := Color3{R: 127.5, G: 127.5, B: 127.5}
	if ref != want {
		t.Errorf("reference = %+v, want %+v", ref, want)
	}
	if ref.Hex() != "#808080" {
		t.Errorf("hex = %s, want #808080", ref.Hex())
	}
}

func TestThreshold_Clamped(t *testing.T) {
	if got := Threshold(-5); got != 0 {
		t.Errorf("Threshold(-5) = %v, want 0", got)
	}
	if got := Threshold(200); got != 255 {
		t.Errorf("Threshold(200) = %v, want 255", got)
	}
	if got := Threshold(10); got != 25.5 {
		t.Errorf("Threshold(10) = %v, want 25.5", got)
	}
}
