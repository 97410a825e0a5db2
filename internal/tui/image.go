package tui

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/blacktop/go-termimg"
	_ "golang.org/x/image/webp"
)

// Super Chat images are 337x56; terminal cells are about twice as tall as
// they are wide.
const previewAspect = 337.0 / 56.0 / 2.0

var protocols = map[string]termimg.Protocol{
	"auto":       termimg.Auto,
	"kitty":      termimg.Kitty,
	"iterm2":     termimg.ITerm2,
	"sixel":      termimg.Sixel,
	"halfblocks": termimg.Halfblocks,
}

func previewRows(width int) int {
	return max(2, int(float64(width)/previewAspect))
}

func renderImage(data []byte, protocol string, width int) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("error decoding preview: %w", err)
	}
	ti := termimg.New(img).Width(width).Height(previewRows(width))
	if p, ok := protocols[protocol]; ok {
		ti = ti.Protocol(p)
	}
	out, err := ti.Render()
	if err != nil {
		return "", fmt.Errorf("error rendering preview: %w", err)
	}
	return out, nil
}

// refreshImage re-renders the displayed image when it or the pane width
// changed since the last call.
func (m *Model) refreshImage() {
	url := m.tracker.ImageURL()
	width := m.previewWidth()
	if url == "" || width <= 0 || m.protocol == "none" {
		return
	}
	if url == m.renderedURL && width == m.renderedW {
		return
	}
	b, ok := m.blobs.Get(url)
	if !ok {
		return
	}
	m.rendered, m.renderErr = renderImage(b.Data, m.protocol, width)
	if m.renderErr != nil {
		m.logger.Warn("Preview render failed", "err", m.renderErr)
	}
	m.renderedURL, m.renderedW = url, width
}
