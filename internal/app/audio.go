package app

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"meeting-insights-go/internal/apperror"
	"meeting-insights-go/internal/types"
)

// SupportedExtensions are the audio containers accepted for upload.
var SupportedExtensions = []string{".mp3", ".wav", ".m4a", ".mp4", ".mpeg", ".mpga", ".webm", ".ogg", ".flac"}

var downloadClient = &http.Client{Timeout: 10 * time.Minute}

// CheckExtension rejects file names outside SupportedExtensions.
func CheckExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return nil
		}
	}
	return apperror.UnsupportedFormat(fmt.Sprintf("unsupported audio format %q", ext))
}

// OpenFile describes a local recording without reading it into memory.
func OpenFile(p string) (types.AudioInput, error) {
	if err := CheckExtension(p); err != nil {
		return types.AudioInput{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return types.AudioInput{}, fmt.Errorf("stat audio: %w", err)
	}
	if st.IsDir() {
		return types.AudioInput{}, fmt.Errorf("%s is a directory", p)
	}
	return types.AudioInput{
		Name:     filepath.Base(p),
		Path:     p,
		Size:     st.Size(),
		MIMEType: mime.TypeByExtension(filepath.Ext(p)),
	}, nil
}

// FromReader buffers an uploaded recording, refusing anything above maxBytes.
func FromReader(name string, r io.Reader, maxBytes int64) (types.AudioInput, error) {
	if err := CheckExtension(name); err != nil {
		return types.AudioInput{}, err
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return types.AudioInput{}, fmt.Errorf("read audio: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return types.AudioInput{}, apperror.UnsupportedInput(
			fmt.Sprintf("upload exceeds %d MB", maxBytes/(1024*1024)), nil)
	}
	return types.AudioInput{
		Name:     filepath.Base(name),
		Data:     data,
		Size:     int64(len(data)),
		MIMEType: mime.TypeByExtension(filepath.Ext(name)),
	}, nil
}

// Fetch downloads a remote recording into memory.
func Fetch(ctx context.Context, rawURL string, maxBytes int64) (types.AudioInput, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return types.AudioInput{}, apperror.InvalidInput("invalid audio url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.AudioInput{}, err
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return types.AudioInput{}, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.AudioInput{}, fmt.Errorf("failed to download audio: %s: %s", resp.Status, b)
	}
	return FromReader(path.Base(u.Path), resp.Body, maxBytes)
}
