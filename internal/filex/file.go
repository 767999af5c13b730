// Package filex reads local files for upload and prepares local paths.
package filex

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxMediaSize caps what the client will upload in one item.
const MaxMediaSize = 64 << 20

var ErrUnsupportedMedia = errors.New("not an image or video")

// Media is a local file ready to be uploaded.
type Media struct {
	Data        []byte
	ContentType string
	// Kind is the wire media type, "image" or "video".
	Kind string
}

// ReadMedia loads path and classifies it by content sniffing.
func ReadMedia(path string) (*Media, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxMediaSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > MaxMediaSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, MaxMediaSize)
	}

	ct := http.DetectContentType(data)
	kind := ""
	switch {
	case strings.HasPrefix(ct, "image/"):
		kind = "image"
	case strings.HasPrefix(ct, "video/"):
		kind = "video"
	default:
		return nil, fmt.Errorf("%s (%s): %w", path, ct, ErrUnsupportedMedia)
	}
	return &Media{Data: data, ContentType: ct, Kind: kind}, nil
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
