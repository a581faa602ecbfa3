package cell_views

import (
	"fmt"
	"html/template"
	"math"

	"gridplan/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// ValueFunction shows the value function as an isometric projection of the surface (col, row, value).
type ValueFunction struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewValueFunction(
	done <-chan struct{},
	boards <-chan Board,
) (vf *ValueFunction) {
	vf = &ValueFunction{id: "valuefunction"}
	vf.updates = channerics.Convert(done, boards, vf.onUpdate)
	return
}

func (vf *ValueFunction) Updates() <-chan []fastview.EleUpdate {
	return vf.updates
}

const (
	cellDim = 80            // cell height/width in pixels
	xyscale = cellDim       // pixels per row or col unit
	zscale  = cellDim * 1.5 // pixels per value unit
	ang     = math.Pi / 6   // angle of the row and col axes
)

var sinAng, cosAng = math.Sin(ang), math.Cos(ang)

// project applies an isometric projection to a point of the surface.
func project(x, y, z float64) (float64, float64) {
	sx := (x - y) * cosAng * xyscale
	sy := (x+y)*sinAng*xyscale - z*zscale
	return sx, sy
}

// funcPolygon is the projection of the surface between four adjacent cells:
// a is bottom left, b top left, c top right and d bottom right.
type funcPolygon struct {
	Id     string
	ax, ay float64
	bx, by float64
	cx, cy float64
	dx, dy float64
}

func makeFuncPolygon(id string, cellA, cellB, cellC, cellD Cell) (fp *funcPolygon) {
	fp = &funcPolygon{Id: id}
	fp.ax, fp.ay = project(float64(cellA.Col), float64(cellA.Row), cellA.Value)
	fp.bx, fp.by = project(float64(cellB.Col), float64(cellB.Row), cellB.Value)
	fp.cx, fp.cy = project(float64(cellC.Col), float64(cellC.Row), cellC.Value)
	fp.dx, fp.dy = project(float64(cellD.Col), float64(cellD.Row), cellD.Value)
	return
}

func getPolyPoints(cellA, cellB, cellC, cellD Cell) string {
	return makeFuncPolygon("", cellA, cellB, cellC, cellD).String()
}

func polygonId(cell Cell) string {
	return fmt.Sprintf("%d-%d-value-polygon", cell.Row, cell.Col)
}

// String returns the svg polygon 'points' attribute, truncated to ints.
func (fp *funcPolygon) String() string {
	return fmt.Sprintf("%d,%d %d,%d %d,%d %d,%d",
		int(fp.ax), int(fp.ay),
		int(fp.bx), int(fp.by),
		int(fp.cx), int(fp.cy),
		int(fp.dx), int(fp.dy),
	)
}

func (fp *funcPolygon) bounds() (xmin, ymin, xmax, ymax float64) {
	xmin = math.Min(math.Min(fp.ax, fp.bx), math.Min(fp.cx, fp.dx))
	ymin = math.Min(math.Min(fp.ay, fp.by), math.Min(fp.cy, fp.dy))
	xmax = math.Max(math.Max(fp.ax, fp.bx), math.Max(fp.cx, fp.dx))
	ymax = math.Max(math.Max(fp.ay, fp.by), math.Max(fp.cy, fp.dy))
	return
}

// Returns the set of view updates needed for the view to reflect current values.
func (vf *ValueFunction) onUpdate(board Board) (ops []fastview.EleUpdate) {
	cells := board.Cells
	if len(cells) < 2 || len(cells[0]) < 2 {
		return
	}

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	for _, row := range cells {
		for _, cell := range row {
			minVal = math.Min(minVal, cell.Value)
			maxVal = math.Max(maxVal, cell.Value)
		}
	}

	// Build the polygons first to find the extent of the projection, for centering.
	xmin, ymin := math.MaxFloat64, math.MaxFloat64
	xmax, ymax := -math.MaxFloat64, -math.MaxFloat64
	for ri, row := range cells[:len(cells)-1] {
		for ci, cell := range row[:len(row)-1] {
			cellA := cells[ri+1][ci]
			cellB := cells[ri][ci]
			cellC := cells[ri][ci+1]
			cellD := cells[ri+1][ci+1]
			polygon := makeFuncPolygon(polygonId(cell), cellA, cellB, cellC, cellD)

			pxmin, pymin, pxmax, pymax := polygon.bounds()
			xmin, ymin = math.Min(xmin, pxmin), math.Min(ymin, pymin)
			xmax, ymax = math.Max(xmax, pxmax), math.Max(ymax, pymax)

			avgVal := (cellA.Value + cellB.Value + cellC.Value + cellD.Value) / 4
			ops = append(ops, fastview.EleUpdate{
				EleId: polygon.Id,
				Ops: []fastview.Op{
					{Key: "points", Value: polygon.String()},
					{Key: "fill", Value: getRGBFill(avgVal, minVal, maxVal)},
				},
			})
		}
	}

	// Shrink the plot to fit the canvas, but never enlarge it.
	width := float64(len(cells[0])) * cellDim * 2
	height := float64(len(cells)) * cellDim * 2
	scaler := 1.0
	if xmax > xmin && ymax > ymin {
		scaler = math.Min(math.Min(width/(xmax-xmin), height/(ymax-ymin)), 1.0)
	}

	ops = append(ops, fastview.EleUpdate{
		EleId: vf.id + "-group",
		Ops: []fastview.Op{
			{
				Key:   "transform",
				Value: fmt.Sprintf("scale(%f) translate(%d %d)", scaler, int(-xmin), int(-ymin)),
			},
		},
	})
	return
}

// getRGBFill shades from blue at minVal to red at maxVal.
func getRGBFill(avgVal, minVal, maxVal float64) string {
	redPct := 50
	if maxVal > minVal {
		redPct = int(100 * (avgVal - minVal) / (maxVal - minVal))
	}
	return fmt.Sprintf("rgb(%d%%,0%%,%d%%)", redPct, 100-redPct)
}

// Parse defines an svg of polygons plotting the value surface. Polygons are drawn back to
// front so nearer ones obscure farther ones.
func (vf *ValueFunction) Parse(
	t *template.Template,
) (name string, err error) {
	name = vf.id
	_, err = t.Funcs(template.FuncMap{
		"getPolyPoints": getPolyPoints,
		"polygonId":     polygonId,
	}).Parse(
		`{{ define "` + name + `" }}
		<div style="padding:40px;">
			{{ $cells := .Cells }}
			{{ $rows := len $cells }}
			{{ $cols := len (index $cells 0) }}
			{{ $num_row_polys := sub $rows 1 }}
			{{ $num_col_polys := sub $cols 1 }}
			{{ $width := mult ` + fmt.Sprintf("%d", int(cellDim)) + ` $cols }}
			{{ $height := mult ` + fmt.Sprintf("%d", int(cellDim)) + ` $rows }}
			<svg id="` + vf.id + `" xmlns='http://www.w3.org/2000/svg'
				width="{{ mult $width 2 }}px"
				height="{{ mult $height 2 }}px"
				style="shape-rendering: crispEdges; stroke: lightgrey; stroke-opacity: 1.0; stroke-width: 3;">
				<g id="` + vf.id + `-group" transform="translate({{ $width }} {{ $height }})">
				{{ range $ri, $row := $cells }}
					{{ if lt $ri $num_row_polys }}
						{{ range $j, $unused := $row }}
							{{ $ci := sub (sub (len $row) $j) 1 }}
							{{ if lt $ci $num_col_polys }}
								{{ $cell := index $row $ci }}
								<polygon id="{{ polygonId $cell }}"
									fill="black" fill-opacity="1.0"
									points="{{ getPolyPoints (index $cells (add $ri 1) $ci) $cell (index $cells $ri (add $ci 1)) (index $cells (add $ri 1) (add $ci 1)) }}" />
							{{ end }}
						{{ end }}
					{{ end }}
				{{ end }}
				</g>
			</svg>
		</div>
		{{ end }}`)
	return
}
