package mapview

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Preview colours.
var (
	backgroundColor  = color.RGBA{0xf1, 0xf5, 0xf9, 0xff}
	routeColor       = color.RGBA{0x3b, 0x82, 0xf6, 0xff}
	originColor      = color.RGBA{0x16, 0xa3, 0x4a, 0xff}
	destinationColor = color.RGBA{0xdc, 0x26, 0x26, 0xff}
)

const (
	// supersample renders at this multiple of the target size and scales down.
	supersample  = 2
	previewPad   = 0.08
	lineWidth    = 3.0
	markerRadius = 6.0
)

// RenderPreview draws a static picture of the route in m: the polyline and
// the two markers projected into the route bounds. Models without bounds
// produce a blank image.
func RenderPreview(m Model, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)
	if m.Bounds == nil || width <= 0 || height <= 0 {
		return dst
	}

	sw, sh := width*supersample, height*supersample
	big := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.Draw(big, big.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	proj := newProjection(*m.Bounds, sw, sh)
	z := vector.NewRasterizer(sw, sh)

	if len(m.Polyline) >= 2 {
		z.Reset(sw, sh)
		half := float32(lineWidth * supersample / 2)
		for i := 1; i < len(m.Polyline); i++ {
			strokeSegment(z, proj.point(m.Polyline[i-1]), proj.point(m.Polyline[i]), half)
		}
		z.Draw(big, big.Bounds(), image.NewUniform(routeColor), image.Point{})
	}

	for _, mk := range m.Markers {
		c := destinationColor
		if mk.Kind == MarkerOrigin {
			c = originColor
		}
		z.Reset(sw, sh)
		fillCircle(z, proj.point(mk.Position), float32(markerRadius*supersample))
		z.Draw(big, big.Bounds(), image.NewUniform(c), image.Point{})
	}

	draw.CatmullRom.Scale(dst, dst.Bounds(), big, big.Bounds(), draw.Src, nil)
	return dst
}

type point struct{ x, y float32 }

// projection maps lat/lon linearly into pixel space, keeping the aspect ratio
// of the route and compensating longitude for latitude.
type projection struct {
	minLon, maxLat float64
	scale          float64
	lonFactor      float64
	offX, offY     float64
}

func newProjection(b Bounds, w, h int) projection {
	midLat := (b.SouthWest.Lat() + b.NorthEast.Lat()) / 2
	lonFactor := math.Cos(midLat * math.Pi / 180)

	spanX := (b.NorthEast.Lon() - b.SouthWest.Lon()) * lonFactor
	spanY := b.NorthEast.Lat() - b.SouthWest.Lat()
	const minSpan = 1e-6
	spanX = math.Max(spanX, minSpan)
	spanY = math.Max(spanY, minSpan)

	usableW := float64(w) * (1 - 2*previewPad)
	usableH := float64(h) * (1 - 2*previewPad)
	scale := math.Min(usableW/spanX, usableH/spanY)

	return projection{
		minLon:    b.SouthWest.Lon(),
		maxLat:    b.NorthEast.Lat(),
		scale:     scale,
		lonFactor: lonFactor,
		offX:      (float64(w) - spanX*scale) / 2,
		offY:      (float64(h) - spanY*scale) / 2,
	}
}

func (p projection) point(ll LatLng) point {
	x := p.offX + (ll.Lon()-p.minLon)*p.lonFactor*p.scale
	y := p.offY + (p.maxLat-ll.Lat())*p.scale
	return point{float32(x), float32(y)}
}

// strokeSegment adds a rectangle of half-width half around a-b.
func strokeSegment(z *vector.Rasterizer, a, b point, half float32) {
	dx, dy := b.x-a.x, b.y-a.y
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		fillCircle(z, a, half)
		return
	}
	nx, ny := -dy/l*half, dx/l*half
	// Same winding as fillCircle so overlaps accumulate instead of cancel.
	z.MoveTo(a.x-nx, a.y-ny)
	z.LineTo(b.x-nx, b.y-ny)
	z.LineTo(b.x+nx, b.y+ny)
	z.LineTo(a.x+nx, a.y+ny)
	z.ClosePath()
	// Round joins.
	fillCircle(z, b, half)
}

func fillCircle(z *vector.Rasterizer, c point, r float32) {
	const steps = 24
	z.MoveTo(c.x+r, c.y)
	for i := 1; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		z.LineTo(c.x+r*float32(math.Cos(a)), c.y+r*float32(math.Sin(a)))
	}
	z.ClosePath()
}
