package viewtree

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
)

// LoadCallback completes a texture load. It must be called on the control
// thread; asynchronous loaders hand completions to Stage.Post.
type LoadCallback func(img *ebiten.Image, err error)

// Loader produces the image of a texture source.
type Loader interface {
	Load(src *TextureSource, done LoadCallback)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(src *TextureSource, done LoadCallback)

// Load calls f.
func (f LoaderFunc) Load(src *TextureSource, done LoadCallback) { f(src, done) }

// ImageLoader completes synchronously with an in-memory image.
func ImageLoader(img *ebiten.Image) Loader {
	return LoaderFunc(func(_ *TextureSource, done LoadCallback) {
		if img == nil {
			done(nil, fmt.Errorf("nil image"))
			return
		}
		done(img, nil)
	})
}

// FileLoader decodes image files on a background goroutine. The decoded
// pixels are uploaded and delivered on the control thread during the next
// Stage.Update.
type FileLoader struct {
	// Dir is prepended to relative source ids.
	Dir   string
	stage *Stage
}

// NewFileLoader creates a loader that completes through s.
func NewFileLoader(s *Stage, dir string) *FileLoader {
	return &FileLoader{Dir: dir, stage: s}
}

// Load implements Loader.
func (l *FileLoader) Load(src *TextureSource, done LoadCallback) {
	path := src.ID()
	if !filepath.IsAbs(path) && l.Dir != "" {
		path = filepath.Join(l.Dir, path)
	}
	go func() {
		decoded, err := decodeImageFile(path)
		l.stage.Post(func() {
			if err != nil {
				done(nil, err)
				return
			}
			done(ebiten.NewImageFromImage(decoded), nil)
		})
	}()
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
