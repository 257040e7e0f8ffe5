package viewtree

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// updateLocalTransform pushes scale and rotation into the core, then
// refreshes the translation which depends on them through the pivot.
func (v *View) updateLocalTransform() {
	if v.rotation != 0 && math.Mod(v.rotation, 2*math.Pi) != 0 {
		sr, cr := math.Sincos(v.rotation)
		v.core.setLocalTransform(
			cr*v.scaleX,
			-sr*v.scaleY,
			sr*v.scaleX,
			cr*v.scaleY,
		)
	} else {
		v.core.setLocalTransform(v.scaleX, 0, 0, v.scaleY)
	}
	v.updateLocalTranslate()
}

// updateLocalTranslate recomputes the translation so that scale and
// rotation happen around the pivot and the mount point sits at (x, y).
func (v *View) updateLocalTranslate() {
	c := v.core
	pivotXMul := v.pivotX * c.rw
	pivotYMul := v.pivotY * c.rh
	px := v.x - (pivotXMul*c.localTa + pivotYMul*c.localTb) + pivotXMul
	py := v.y - (pivotXMul*c.localTc + pivotYMul*c.localTd) + pivotYMul
	px -= v.mountX * v.RenderWidth()
	py -= v.mountY * v.RenderHeight()
	c.setLocalTranslate(px, py)
}

func (v *View) updateLocalTranslateDelta(dx, dy float64) {
	v.core.addLocalTranslate(dx, dy)
}

func (v *View) updateLocalAlpha() {
	if v.visible {
		v.core.setLocalAlpha(v.alpha)
	} else {
		v.core.setLocalAlpha(0)
	}
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this view's local space,
// using the world transform of the last Stage.Update.
func (v *View) WorldToLocal(wx, wy float64) (lx, ly float64) {
	inv := invertAffine(v.core.worldTransform)
	return transformPoint(inv, wx, wy)
}

// LocalToWorld converts a local-space point to world space.
func (v *View) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return transformPoint(v.core.worldTransform, lx, ly)
}
