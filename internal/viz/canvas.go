package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Braille pixel grid of Width x Height cells, each cell holding
// 2 x 4 sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel at (x, y). Out-of-range points are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Bounds is a data-space rectangle mapped onto the canvas.
type Bounds struct {
	XMin, XMax, YMin, YMax float64
}

// Fit returns bounds covering ys with a small margin, over [xmin, xmax].
func Fit(xmin, xmax float64, ys []float64) Bounds {
	b := Bounds{XMin: xmin, XMax: xmax, YMin: math.Inf(1), YMax: math.Inf(-1)}
	for _, y := range ys {
		b.YMin = math.Min(b.YMin, y)
		b.YMax = math.Max(b.YMax, y)
	}
	if len(ys) == 0 {
		b.YMin, b.YMax = 0, 1
	}
	pad := 0.05 * (b.YMax - b.YMin)
	if pad == 0 {
		pad = 0.5 * math.Max(math.Abs(b.YMax), 1)
	}
	b.YMin -= pad
	b.YMax += pad
	return b
}

func (c *Canvas) project(b Bounds, x, y float64) (int, int) {
	pw, ph := c.Width*2, c.Height*4
	px := int(math.Round((x - b.XMin) / (b.XMax - b.XMin) * float64(pw-1)))
	py := int(math.Round((b.YMax - y) / (b.YMax - b.YMin) * float64(ph-1)))
	return px, py
}

// Scatter plots (xs[i], ys[i]) within b.
func (c *Canvas) Scatter(b Bounds, xs, ys []float64) {
	for i := range xs {
		c.Set(c.project(b, xs[i], ys[i]))
	}
}

// VLine draws a full-height marker at data coordinate x.
func (c *Canvas) VLine(b Bounds, x float64) {
	px, _ := c.project(b, x, b.YMin)
	for y := 0; y < c.Height*4; y += 2 {
		c.Set(px, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}
