package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// MaxImageSize bounds how large a single page image may be before a
// Provider refuses to inline it, matching vendor-side request size limits.
const MaxImageSize = 20 * 1024 * 1024 // 20MB

// loadImage resolves an ImageHandle to its raw bytes and a media type,
// sniffing the type from content when not set explicitly.
func loadImage(ctx context.Context, h ImageHandle) ([]byte, string, error) {
	var data []byte

	switch {
	case h.Path != "":
		var err error
		data, err = os.ReadFile(h.Path)
		if err != nil {
			return nil, "", fmt.Errorf("read image %s: %w", h.Path, err)
		}
	case h.URL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
		if err != nil {
			return nil, "", fmt.Errorf("build image request %s: %w", h.URL, err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetch image %s: %w", h.URL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("fetch image %s: status %d", h.URL, resp.StatusCode)
		}
		data, err = io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
		if err != nil {
			return nil, "", fmt.Errorf("read image body %s: %w", h.URL, err)
		}
	default:
		return nil, "", fmt.Errorf("image handle has neither Path nor URL")
	}

	if len(data) > MaxImageSize {
		return nil, "", fmt.Errorf("image exceeds %d byte limit (got %d)", MaxImageSize, len(data))
	}

	mediaType := h.MediaType
	if mediaType == "" {
		mediaType = detectImageMediaType(data)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/jpeg"
	}

	return data, mediaType, nil
}

// dataURL formats bytes as an OpenAI-style base64 data URL.
func dataURL(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64Encode(data))
}

// base64Encode encodes bytes for inline embedding in a vendor request.
func base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
