// Package images downloads screenshots and shrinks them to a size a vision
// model accepts: the picture is scaled to fit inside 1000×1000 and
// re-encoded as JPEG with decreasing quality until it is at most 2,000,000
// bytes.
package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// Constraint limits applied to every image.
const (
	MaxWidth       = 1000
	MaxHeight      = 1000
	MaxBytes       = 2_000_000
	InitialQuality = 82
	QualityStep    = 2

	// maxDownloadBytes caps how much of a remote body is read.
	maxDownloadBytes = 32 << 20
)

var (
	// ErrDownload is returned when the image URL cannot be fetched.
	ErrDownload = errors.New("images: download failed")
	// ErrDecode is returned when the payload is not a supported image format.
	ErrDecode = errors.New("images: unsupported or corrupt image")
	// ErrTooLarge is returned when even the lowest quality exceeds MaxBytes.
	ErrTooLarge = errors.New("images: cannot encode under size limit")
)

// encodeFunc encodes img as JPEG at quality q.
type encodeFunc func(img image.Image, q int) ([]byte, error)

// Fetcher downloads and constrains images. It is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	encode encodeFunc
	// maxBody caps the downloaded payload.
	maxBody int64
}

// NewFetcher returns a Fetcher using client, or a client with a 10 second
// timeout when client is nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{client: client, encode: encodeJPEG, maxBody: maxDownloadBytes}
}

// FetchBase64 downloads url, constrains the image and returns the JPEG bytes
// base64-encoded (standard alphabet, no data-URI prefix).
func (f *Fetcher) FetchBase64(ctx context.Context, url string) (string, error) {
	raw, err := f.download(ctx, url)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	out, err := constrain(img, f.encode)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrDownload, resp.StatusCode, url)
	}
	// One byte past the cap tells an oversized body from one that fits exactly.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrDownload, err)
	}
	if int64(len(raw)) > f.maxBody {
		return nil, fmt.Errorf("%w: image too large (over %d bytes) from %s", ErrDownload, f.maxBody, url)
	}
	return raw, nil
}

// Constrain fits img inside MaxWidth×MaxHeight and encodes it as JPEG at
// the highest quality in 82, 80, 78, … whose output is at most MaxBytes.
func Constrain(img image.Image) ([]byte, error) {
	return constrain(img, encodeJPEG)
}

func constrain(img image.Image, encode encodeFunc) ([]byte, error) {
	fitted := Fit(img, MaxWidth, MaxHeight)
	for q := InitialQuality; q > 0; q -= QualityStep {
		out, err := encode(fitted, q)
		if err != nil {
			return nil, fmt.Errorf("images: encode at quality %d: %w", q, err)
		}
		if len(out) <= MaxBytes {
			return out, nil
		}
	}
	return nil, ErrTooLarge
}

// Fit scales img, preserving aspect ratio, so that it fits inside w×h with
// at least one side touching the box. Images that already match exactly are
// returned unchanged.
func Fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return img
	}

	scale := min(float64(w)/float64(sw), float64(h)/float64(sh))
	dw := max(1, int(float64(sw)*scale+0.5))
	dh := max(1, int(float64(sh)*scale+0.5))
	if dw == sw && dh == sh {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func encodeJPEG(img image.Image, q int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
