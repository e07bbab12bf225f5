package rembg

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"mime/multipart"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chaos-io/swissknife/util"
	nhttp "github.com/chaos-io/swissknife/util/http"
)

const (
	BiRefNetModel = "BiRefNet"

	// EnvBaseURL 覆盖推理服务地址
	EnvBaseURL     = "SWISSKNIFE_REMBG_URL"
	defaultBaseURL = "http://192.168.4.188:8188/"

	uploadPath  = "api/upload/image"
	promptPath  = "api/prompt"
	historyPath = "api/history/"
	viewPath    = "api/view"

	// 上传前把最长边压到 1024，推理服务不需要更大的图
	maxUploadSize = 1024

	pollInterval = 500 * time.Millisecond
)

// ErrNoResult 推理服务在超时前没有产出输出图像
var ErrNoResult = errors.New("segmentation produced no result")

//go:embed workflow.json
var workflowData string

// BiRefNet 通过 HTTP 调用 BiRefNet 推理服务移除背景。
// 服务本身是黑盒：上传图片 → 提交 workflow → 轮询 history → 拉取输出。
type BiRefNet struct {
	baseURL string
	cli     nhttp.IClient
}

func NewBiRefNet() *BiRefNet {
	base := os.Getenv(EnvBaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &BiRefNet{
		baseURL: base,
		cli:     nhttp.NewHTTPClient(),
	}
}

func (b *BiRefNet) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	upload := ResizeWithinMax(ToNRGBA(img), maxUploadSize)

	name, err := b.uploadImage(ctx, upload)
	if err != nil {
		return nil, err
	}

	promptID, err := b.prompt(ctx, name)
	if err != nil {
		return nil, err
	}

	out, err := b.awaitResult(ctx, promptID)
	if err != nil {
		return nil, err
	}

	slog.Debug("segmentation finished", "prompt_id", promptID, "bounds", out.Bounds())
	return out, nil
}

type uploadImageResp struct {
	Name      string `json:"name"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

/*
	curl -X POST "$BASE_URL/api/upload/image" \
	  -F "image=@my_image.png" \
	  -F "type=input" \
	  -F "overwrite=true"

{"name": "my_image1.png", "subfolder": "", "type": "input"}
*/
func (b *BiRefNet) uploadImage(ctx context.Context, img image.Image) (string, error) {
	data, err := util.EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "input.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}

	_ = writer.WriteField("type", "input")
	_ = writer.WriteField("overwrite", "true")
	_ = writer.Close()

	resp := &uploadImageResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: b.baseURL + uploadPath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   resp,
	}
	if err := b.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	slog.Debug("uploaded image", "name", resp.Name, "type", resp.Type)
	return resp.Name, nil
}

type promptResp struct {
	PromptID string `json:"prompt_id"`
}

/*
	curl -X POST "$BASE_URL/api/prompt" \
	  -H "Content-Type: application/json" \
	  -d '{"prompt": '"$(cat workflow.json)"'}'
*/
func (b *BiRefNet) prompt(ctx context.Context, uploadedName string) (string, error) {
	wkJSON := strings.Replace(workflowData, "MyImage.png", uploadedName, 1)

	wk := map[string]any{}
	if err := json.Unmarshal([]byte(wkJSON), &wk); err != nil {
		return "", fmt.Errorf("unmarshal workflow data: %w", err)
	}

	resp := &promptResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: b.baseURL + promptPath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": "application/json"},
		Body:       map[string]any{"prompt": wk},
		Response:   resp,
	}
	if err := b.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return "", fmt.Errorf("submit prompt: %w", err)
	}
	if resp.PromptID == "" {
		return "", errors.New("submit prompt: empty prompt_id")
	}

	return resp.PromptID, nil
}

type historyImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

type historyEntry struct {
	Outputs map[string]struct {
		Images []historyImage `json:"images"`
	} `json:"outputs"`
}

// awaitResult 轮询 history 直到 workflow 产出图像，再从 view 接口拉回解码
func (b *BiRefNet) awaitResult(ctx context.Context, promptID string) (image.Image, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		history := map[string]historyEntry{}
		reqParam := &nhttp.RequestParam{
			RequestURI: b.baseURL + historyPath + promptID,
			Method:     "GET",
			Response:   &history,
		}
		if err := b.cli.DoHTTPRequest(ctx, reqParam); err != nil {
			return nil, fmt.Errorf("poll history: %w", err)
		}

		if entry, ok := history[promptID]; ok {
			for _, out := range entry.Outputs {
				for _, img := range out.Images {
					return b.fetchImage(img)
				}
			}
			return nil, ErrNoResult
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrNoResult, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (b *BiRefNet) fetchImage(h historyImage) (image.Image, error) {
	q := url.Values{}
	q.Set("filename", h.Filename)
	q.Set("subfolder", h.Subfolder)
	q.Set("type", h.Type)

	img, err := util.DownloadImage(b.baseURL + viewPath + "?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch result image: %w", err)
	}
	return img, nil
}
