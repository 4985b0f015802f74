package components

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/ladle/internal/imagecache"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// halfBlock draws two vertical pixels per cell: foreground on top,
// background below
const halfBlock = "▀"

// DecodeImage decodes PNG, JPEG, GIF or WebP bytes
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// RenderThumbnail scales img to fit cols x rows terminal cells and renders
// it with half blocks. The result always has exactly rows lines of cols
// cells; unused area is left blank.
func RenderThumbnail(img image.Image, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}

	src := img.Bounds()
	pxW, pxH := cols, rows*2
	// Fit preserving aspect ratio; cells are about twice as tall as wide,
	// which the half block split already accounts for
	w, h := pxW, pxW*src.Dy()/max(src.Dx(), 1)
	if h > pxH {
		w, h = pxH*src.Dx()/max(src.Dy(), 1), pxH
	}
	w, h = max(w, 1), max(h, 1)

	dst := image.NewRGBA(image.Rect(0, 0, pxW, pxH))
	offX, offY := (pxW-w)/2, (pxH-h)/2
	draw.CatmullRom.Scale(dst, image.Rect(offX, offY, offX+w, offY+h), img, src, draw.Over, nil)

	lines := make([]string, rows)
	for y := 0; y < rows; y++ {
		var b strings.Builder
		for x := 0; x < cols; x++ {
			top := dst.RGBAAt(x, y*2)
			bottom := dst.RGBAAt(x, y*2+1)
			if top.A == 0 && bottom.A == 0 {
				b.WriteString(" ")
				continue
			}
			b.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom)).
				Render(halfBlock))
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// ThumbnailCache renders image handles once per size
type ThumbnailCache struct {
	registry *imagecache.Registry

	mu       sync.Mutex
	rendered map[string]thumbnail
}

type thumbnail struct {
	handle imagecache.Handle
	text   string
}

// NewThumbnailCache creates a cache reading from registry
func NewThumbnailCache(registry *imagecache.Registry) *ThumbnailCache {
	return &ThumbnailCache{registry: registry, rendered: make(map[string]thumbnail)}
}

// Render returns the rendered handle, or false if the handle is no longer
// registered or cannot be decoded
func (c *ThumbnailCache) Render(h imagecache.Handle, cols, rows int) (string, bool) {
	if c == nil || h.IsZero() {
		return "", false
	}

	data, _, ok := c.registry.Open(h)
	if !ok {
		c.Forget(h.URL)
		return "", false
	}

	key := fmt.Sprintf("%s@%dx%d", h.URL, cols, rows)
	c.mu.Lock()
	if t, ok := c.rendered[key]; ok {
		c.mu.Unlock()
		return t.text, true
	}
	c.mu.Unlock()

	img, err := DecodeImage(data)
	if err != nil {
		return "", false
	}
	out := RenderThumbnail(img, cols, rows)

	c.mu.Lock()
	c.rendered[key] = thumbnail{handle: h, text: out}
	c.mu.Unlock()
	return out, true
}

// Forget drops every rendering of a revoked handle
func (c *ThumbnailCache) Forget(url string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, t := range c.rendered {
		if t.handle.URL == url {
			delete(c.rendered, key)
		}
	}
}

// Prune drops renderings whose handle has been freed
func (c *ThumbnailCache) Prune() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, t := range c.rendered {
		if _, _, ok := c.registry.Open(t.handle); !ok {
			delete(c.rendered, key)
		}
	}
}

// Len returns the number of cached renderings
func (c *ThumbnailCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rendered)
}
