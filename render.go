package viewtree

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// drawCommand is one textured quad emitted by the draw walk, or a group of
// commands belonging to a z-index context.
type drawCommand struct {
	image    *ebiten.Image
	vertices [4]ebiten.Vertex
	shader   *KageShader

	clip    image.Rectangle
	clipped bool

	zIndex    int
	treeOrder int // assigned during the walk for stable sort

	group []drawCommand
}

var quadIndices = []uint16{0, 1, 2, 1, 3, 2}

// drawContext collects commands for one target.
type drawContext struct {
	stage     *Stage
	treeOrder int
	sortBuf   []drawCommand
	quads     int
}

// Draw renders the enabled part of the tree to screen. Views draw their
// displayed texture stretched over their render size with their corner
// colors; z-index contexts sort their descendants by z-index; clipping
// views clip their descendants to their bounds; render-to-texture views
// capture their subtree first and draw the result.
func (s *Stage) Draw(screen *ebiten.Image) {
	cmds := s.drawCommands()
	d := drawContext{stage: s}
	d.submit(screen, cmds)
	s.flushScreenshots(screen)
}

// drawCommands runs the collection walk, capturing texturized subtrees as a
// side effect.
func (s *Stage) drawCommands() []drawCommand {
	if s.root == nil || !s.root.enabled {
		return nil
	}
	d := drawContext{stage: s}
	var out []drawCommand
	d.emit(s.root.core, identityTransform, 1, image.Rectangle{}, false, &out)
	return out
}

func (d *drawContext) emit(c *ViewCore, base [6]float64, alphaBase float64, clip image.Rectangle, clipped bool, out *[]drawCommand) {
	if !c.view.enabled {
		return
	}
	if c.renderToTextureEnabled {
		d.emitTexturized(c, base, alphaBase, clip, clipped, out)
		return
	}
	d.emitNode(c, base, alphaBase, clip, clipped, out)
}

// emitNode emits the own quad of c followed by its children. A z-index
// context collects its children into a sorted group.
func (d *drawContext) emitNode(c *ViewCore, base [6]float64, alphaBase float64, clip image.Rectangle, clipped bool, out *[]drawCommand) {
	d.treeOrder++
	order := d.treeOrder

	var own []drawCommand
	if c.view.active {
		if src := c.displayedTextureSource; src != nil && src.Image() != nil {
			cmd := d.quad(c, src.Image(), base, alphaBase, c.colorsArray())
			cmd.tcoords(c.tx1, c.ty1, c.tx2, c.ty2, src.Image())
			cmd.clip, cmd.clipped = clip, clipped
			cmd.treeOrder = order
			if ks, ok := c.shader.(*KageShader); ok && !ks.UseDefault() {
				cmd.shader = ks
			}
			own = append(own, cmd)
		}
	}

	childClip, childClipped := clip, clipped
	if c.clipping {
		r := boundsRect(multiplyAffine(base, c.worldTransform), c.rw, c.rh)
		if clipped {
			r = r.Intersect(clip)
		}
		childClip, childClipped = r, true
	}

	if !c.ZContext() {
		*out = append(*out, own...)
		for _, ch := range c.children {
			d.emit(ch, base, alphaBase, childClip, childClipped, out)
		}
		return
	}

	var children []drawCommand
	for _, ch := range c.children {
		d.emit(ch, base, alphaBase, childClip, childClipped, &children)
	}
	d.sortCommands(children)
	group := append(own, children...)
	if len(group) == 0 {
		return
	}
	*out = append(*out, drawCommand{group: group, zIndex: c.zIndex, treeOrder: order})
}

// emitTexturized captures the subtree of c when needed and emits the result
// quad unless the result is hidden.
func (d *drawContext) emitTexturized(c *ViewCore, base [6]float64, alphaBase float64, clip image.Rectangle, clipped bool, out *[]drawCommand) {
	t := c.Texturizer()
	if t.MustRenderToTexture() && c.rw > 0 && c.rh > 0 {
		rt := t.RenderTexture()
		rt.Clear()
		inner := drawContext{stage: d.stage}
		var cmds []drawCommand
		inner.emitNode(c, invertAffine(c.worldTransform), max(c.worldAlpha, 1e-14), image.Rectangle{}, false, &cmds)
		inner.submit(rt, cmds)
		t.Empty = inner.quads == 0
		t.FilterResultCached = false
		t.ApplyFilters()
		t.updateResultTexture()
	}

	if t.hideResult || !c.view.active {
		return
	}
	img := t.ResultTexture()
	if img == nil {
		return
	}
	colors := [4]Color{ColorWhite, ColorWhite, ColorWhite, ColorWhite}
	if t.colorize {
		colors = c.colorsArray()
	}
	d.treeOrder++
	cmd := d.quad(c, img, base, alphaBase, colors)
	b := img.Bounds()
	cmd.tcoords(0, 0, c.rw/float64(b.Dx()), c.rh/float64(b.Dy()), img)
	cmd.clip, cmd.clipped = clip, clipped
	cmd.zIndex = c.zIndex
	cmd.treeOrder = d.treeOrder
	*out = append(*out, cmd)
}

func (c *ViewCore) colorsArray() [4]Color {
	return [4]Color{c.colorUl, c.colorUr, c.colorBl, c.colorBr}
}

// quad builds the vertices of c's render rectangle, ordered ul, ur, bl, br.
func (d *drawContext) quad(c *ViewCore, img *ebiten.Image, base [6]float64, alphaBase float64, colors [4]Color) drawCommand {
	m := multiplyAffine(base, c.worldTransform)
	alpha := c.worldAlpha / alphaBase
	pts := [4][2]float64{{0, 0}, {c.rw, 0}, {0, c.rh}, {c.rw, c.rh}}
	cmd := drawCommand{image: img}
	for i, p := range pts {
		x, y := transformPoint(m, p[0], p[1])
		r, g, b, a := colors[i].Floats()
		cmd.vertices[i] = ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			ColorR: float32(r),
			ColorG: float32(g),
			ColorB: float32(b),
			ColorA: float32(a * alpha),
		}
	}
	return cmd
}

// tcoords sets source pixel coordinates from normalized texture coordinates.
func (cmd *drawCommand) tcoords(tx1, ty1, tx2, ty2 float64, img *ebiten.Image) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	xs := [4]float64{tx1, tx2, tx1, tx2}
	ys := [4]float64{ty1, ty1, ty2, ty2}
	for i := range cmd.vertices {
		cmd.vertices[i].SrcX = float32(float64(b.Min.X) + xs[i]*w)
		cmd.vertices[i].SrcY = float32(float64(b.Min.Y) + ys[i]*h)
	}
}

// boundsRect returns the integer axis-aligned bounds of a w x h rectangle
// under m.
func boundsRect(m [6]float64, w, h float64) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		x, y := transformPoint(m, p[0], p[1])
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// submit draws commands in order, descending into groups.
func (d *drawContext) submit(target *ebiten.Image, cmds []drawCommand) {
	for i := range cmds {
		cmd := &cmds[i]
		if cmd.group != nil {
			d.submit(target, cmd.group)
			continue
		}
		dst := target
		if cmd.clipped {
			r := cmd.clip.Intersect(target.Bounds())
			if r.Empty() {
				continue
			}
			dst = target.SubImage(r).(*ebiten.Image)
		}
		d.quads++
		if cmd.shader != nil {
			sh, err := cmd.shader.Compile()
			if err != nil {
				logger.Warn("shader", "err", err)
			} else if sh != nil {
				var op ebiten.DrawTrianglesShaderOptions
				op.Images[0] = cmd.image
				op.Uniforms = cmd.shader.Uniforms
				dst.DrawTrianglesShader(cmd.vertices[:], quadIndices, sh, &op)
				continue
			}
		}
		dst.DrawTriangles(cmd.vertices[:], quadIndices, cmd.image, nil)
	}
}

// --- Merge sort ---

// commandLessOrEqual returns true if a should sort before or at the same
// position as b. Using <= for treeOrder ensures stability.
func commandLessOrEqual(a, b *drawCommand) bool {
	if a.zIndex != b.zIndex {
		return a.zIndex < b.zIndex
	}
	return a.treeOrder <= b.treeOrder
}

// sortCommands sorts cmds in place by z-index, keeping tree order for equal
// z-indexes. Bottom-up merge sort using d.sortBuf as scratch space.
func (d *drawContext) sortCommands(cmds []drawCommand) {
	n := len(cmds)
	if n <= 1 {
		return
	}
	if cap(d.sortBuf) < n {
		d.sortBuf = make([]drawCommand, n)
	}
	buf := d.sortBuf[:n]

	a, b := cmds, buf
	swapped := false
	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}
	if swapped {
		copy(cmds, buf)
	}
	clear(buf)
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []drawCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(&src[i], &src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], src[i:mid])
	copy(dst[k:], src[j:hi])
}
