package rembg

import (
	"context"
	"fmt"
	"image"
)

// Remover 背景移除策略：输入解码后的图像，输出同尺寸、带透明背景的图像
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// Mode 选择移除策略，由调用方显式指定
type Mode string

const (
	// ModeColorKey 确定性的色键抠图（角采样 + 色距阈值）
	ModeColorKey Mode = "colorkey"
	// ModeAISegmentation 交给外部推理服务做主体分割
	ModeAISegmentation Mode = "ai"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeColorKey, ModeAISegmentation:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown removal mode %q", s)
}

// ForMode 按模式构造 Remover；tolerance 只对色键模式有效
func ForMode(mode Mode, tolerance float64) (Remover, error) {
	switch mode {
	case ModeColorKey:
		return NewColorKey(tolerance), nil
	case ModeAISegmentation:
		return NewBiRefNet(), nil
	}
	return nil, fmt.Errorf("unknown removal mode %q", mode)
}
