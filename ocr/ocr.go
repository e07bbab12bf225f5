// Package ocr 把截屏区域交给外部视觉模型识别文字。模型是黑盒，
// 本包只负责编码上传和取回文本行。
package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"github.com/chaos-io/swissknife/util"
	nhttp "github.com/chaos-io/swissknife/util/http"
)

const (
	// EnvEndpoint 覆盖识别服务地址
	EnvEndpoint     = "SWISSKNIFE_OCR_URL"
	defaultEndpoint = "http://192.168.4.188:8189/api/ocr"
)

var (
	// ErrNoInput 捕获区域为空或没有可识别内容
	ErrNoInput = errors.New("no input available")
	// ErrNoText 模型没有识别出任何文字
	ErrNoText = errors.New("no text recognized")
)

// Recognizer 图像 → 文本行
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]string, error)
}

// VisionRecognizer 调用 HTTP 视觉模型服务
type VisionRecognizer struct {
	endpoint string
	cli      nhttp.IClient
}

func NewVisionRecognizer() *VisionRecognizer {
	endpoint := os.Getenv(EnvEndpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &VisionRecognizer{
		endpoint: endpoint,
		cli:      nhttp.NewHTTPClient(),
	}
}

type recognizeReq struct {
	Image string `json:"image"` // base64 PNG
}

type recognizeResp struct {
	Lines []string `json:"lines"`
}

func (v *VisionRecognizer) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoInput
	}

	data, err := util.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}

	resp := &recognizeResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: v.endpoint,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": "application/json"},
		Body:       &recognizeReq{Image: base64.StdEncoding.EncodeToString(data)},
		Response:   resp,
	}
	if err := v.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	lines := trimEmpty(resp.Lines)
	if len(lines) == 0 {
		return nil, ErrNoText
	}

	slog.Debug("ocr finished", "lines", len(lines), "bytes", len(data))
	return lines, nil
}

func trimEmpty(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// RecognizeRegion 截取屏幕区域并识别，返回拼接后的文本
func RecognizeRegion(ctx context.Context, rec Recognizer, region Region) (string, error) {
	img, err := CaptureRegion(region)
	if err != nil {
		return "", err
	}

	lines, err := rec.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
