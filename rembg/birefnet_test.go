package rembg

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/swissknife/util"
)

// fakeInferenceServer mimics the upload → prompt → history → view flow.
func fakeInferenceServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/upload/image", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(16<<20))
		assert.Equal(t, "input", r.FormValue("type"))
		assert.Equal(t, "true", r.FormValue("overwrite"))

		_, header, err := r.FormFile("image")
		require.NoError(t, err)
		assert.Equal(t, "input.png", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"name": "input_001.png", "subfolder": "", "type": "input",
		})
	})

	mux.HandleFunc("/api/prompt", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt map[string]json.RawMessage `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// workflow 中的占位文件名应当已替换为上传返回的名字
		assert.Contains(t, string(req.Prompt["1"]), "input_001.png")

		_ = json.NewEncoder(w).Encode(map[string]string{"prompt_id": "p-123"})
	})

	mux.HandleFunc("/api/history/p-123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"p-123": {
				"outputs": {
					"3": {"images": [{"filename": "rembg_001.png", "subfolder": "", "type": "output"}]}
				}
			}
		}`))
	})

	mux.HandleFunc("/api/view", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rembg_001.png", r.URL.Query().Get("filename"))

		result := image.NewNRGBA(image.Rect(0, 0, 8, 8))
		result.SetNRGBA(4, 4, color.NRGBA{R: 9, A: 255})
		data, err := util.EncodePNG(result)
		require.NoError(t, err)
		_, _ = w.Write(data)
	})

	return httptest.NewServer(mux)
}

func TestBiRefNet_Remove(t *testing.T) {
	server := fakeInferenceServer(t)
	defer server.Close()
	t.Setenv(EnvBaseURL, server.URL)

	b := NewBiRefNet()
	assert.True(t, strings.HasSuffix(b.baseURL, "/"))

	in := solid(8, 8, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	out, err := b.Remove(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 8, out.Bounds().Dx())
	assert.Equal(t, 8, out.Bounds().Dy())
}

func TestBiRefNet_Remove_Timeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload/image", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "input_001.png"})
	})
	mux.HandleFunc("/api/prompt", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"prompt_id": "p-slow"})
	})
	mux.HandleFunc("/api/history/p-slow", func(w http.ResponseWriter, r *http.Request) {
		// 永远没有输出，迫使调用方靠 ctx 放弃
		_, _ = w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	t.Setenv(EnvBaseURL, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := NewBiRefNet().Remove(ctx, solid(4, 4, color.NRGBA{A: 255}))
	require.Error(t, err)
	ok := errors.Is(err, ErrNoResult) || strings.Contains(err.Error(), "context deadline exceeded")
	assert.True(t, ok, "err = %v", err)
}

func TestBiRefNet_Remove_UploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()
	t.Setenv(EnvBaseURL, server.URL)

	_, err := NewBiRefNet().Remove(context.Background(), solid(4, 4, color.NRGBA{A: 255}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload image")
}
