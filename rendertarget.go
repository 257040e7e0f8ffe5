package viewtree

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// renderTexturePool manages reusable offscreen images keyed by power-of-two
// dimensions.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
	inUse   int
}

func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// acquire returns a cleared offscreen image with at least (w, h) pixels.
func (p *renderTexturePool) acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)
	p.inUse++

	if stack := p.buckets[key]; len(stack) > 0 {
		img := stack[len(stack)-1]
		p.buckets[key] = stack[:len(stack)-1]
		img.Clear()
		return img
	}
	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// release returns an image to the pool. It is cleared on the next acquire.
func (p *renderTexturePool) release(img *ebiten.Image) {
	if img == nil {
		return
	}
	p.inUse--
	b := img.Bounds()
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	key := poolKey(b.Dx(), b.Dy())
	p.buckets[key] = append(p.buckets[key], img)
}

// purge deallocates every pooled image that is not in use.
func (p *renderTexturePool) purge() {
	for key, stack := range p.buckets {
		for _, img := range stack {
			img.Deallocate()
		}
		delete(p.buckets, key)
	}
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

// AllocateRenderTexture returns an offscreen image of at least w x h pixels
// from the stage pool. Release it with ReleaseRenderTexture.
func (s *Stage) AllocateRenderTexture(w, h float64) *ebiten.Image {
	img := s.rtPool.acquire(int(math.Ceil(w)), int(math.Ceil(h)))
	if s.opts.Debug {
		logger.Debug("render texture allocated", "w", w, "h", h, "inUse", s.rtPool.inUse)
	}
	return img
}

// ReleaseRenderTexture returns an image obtained from AllocateRenderTexture.
func (s *Stage) ReleaseRenderTexture(img *ebiten.Image) {
	s.rtPool.release(img)
}

// RenderTexturesInUse returns the number of pooled images currently handed
// out.
func (s *Stage) RenderTexturesInUse() int { return s.rtPool.inUse }

// PurgeRenderTextures frees pooled images that are not in use.
func (s *Stage) PurgeRenderTextures() { s.rtPool.purge() }

// applyFilters runs a chain on src, ping-ponging between two scratch images
// from the pool. src is never written. It returns the image holding the
// final result; if it differs from src the caller owns it and must release
// it to the pool.
func applyFilters(s *Stage, filters []Filter, src *ebiten.Image) *ebiten.Image {
	if len(filters) == 0 {
		return src
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	var ping [2]*ebiten.Image
	current := src
	for i, f := range filters {
		dst := ping[i%2]
		if dst == nil {
			dst = s.rtPool.acquire(w, h)
			ping[i%2] = dst
		} else {
			dst.Clear()
		}
		f.Apply(current, dst)
		current = dst
	}
	for _, img := range ping {
		if img != nil && img != current {
			s.rtPool.release(img)
		}
	}
	return current
}
