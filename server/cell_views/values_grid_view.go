package cell_views

import (
	"fmt"
	"html/template"

	"gridplan/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// ValuesGrid shows each cell's value and its favored actions, like the console view.
type ValuesGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewValuesGrid(
	done <-chan struct{},
	boards <-chan Board,
) (vg *ValuesGrid) {
	vg = &ValuesGrid{id: "valuesgrid"}
	vg.updates = channerics.Convert(done, boards, vg.onUpdate)
	return
}

func (vg *ValuesGrid) Updates() <-chan []fastview.EleUpdate {
	return vg.updates
}

func valueTextId(cell Cell) string {
	return fmt.Sprintf("%d-%d-value-text", cell.Row, cell.Col)
}

func arrowsTextId(cell Cell) string {
	return fmt.Sprintf("%d-%d-policy-arrows", cell.Row, cell.Col)
}

// Returns the set of view updates needed for the view to reflect the current board.
func (vg *ValuesGrid) onUpdate(board Board) (ops []fastview.EleUpdate) {
	ops = append(ops, fastview.EleUpdate{
		EleId: vg.id + "-sweep",
		Ops: []fastview.Op{
			{Key: "textContent", Value: fmt.Sprintf("sweep %d", board.Sweep)},
		},
	})
	for _, row := range board.Cells {
		for _, cell := range row {
			ops = append(ops,
				fastview.EleUpdate{
					EleId: valueTextId(cell),
					Ops: []fastview.Op{
						{Key: "textContent", Value: fmt.Sprintf("%.2f", cell.Value)},
					},
				},
				fastview.EleUpdate{
					EleId: arrowsTextId(cell),
					Ops: []fastview.Op{
						{Key: "textContent", Value: cell.Arrows},
					},
				})
		}
	}
	return
}

// Parse defines the grid of cells as an svg.
func (vg *ValuesGrid) Parse(
	t *template.Template,
) (name string, err error) {
	name = vg.id
	_, err = t.Funcs(template.FuncMap{
		"valueTextId":  valueTextId,
		"arrowsTextId": arrowsTextId,
	}).Parse(
		`{{ define "` + name + `" }}
		<div id="state_values">
			<h3 id="` + vg.id + `-sweep">sweep {{ .Sweep }}</h3>
			{{ $rows := len .Cells }}
			{{ $cols := len (index .Cells 0) }}
			{{ $cell_width := 100 }}
			{{ $cell_height := $cell_width }}
			{{ $width := mult $cell_width $cols }}
			{{ $height := mult $cell_height $rows }}
			{{ $half_height := div $cell_height 2 }}
			{{ $half_width := div $cell_width 2 }}
			<svg id="` + vg.id + `"
				width="{{ add $width 1 }}px"
				height="{{ add $height 1 }}px"
				style="shape-rendering: crispEdges;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
					<g>
						<rect
							x="{{ mult $cell.Col $cell_width }}"
							y="{{ mult $cell.Row $cell_height }}"
							width="{{ $cell_width }}"
							height="{{ $cell_height }}"
							fill="{{ $cell.Fill }}"
							stroke="black"
							stroke-width="1"/>
						<text id="{{ valueTextId $cell }}"
							x="{{ add (mult $cell.Col $cell_width) $half_width }}"
							y="{{ add (mult $cell.Row $cell_height) (sub $half_height 10) }}"
							stroke="blue"
							dominant-baseline="text-top" text-anchor="middle"
							>{{ printf "%.2f" $cell.Value }}</text>
						<text id="{{ arrowsTextId $cell }}"
							x="{{ add (mult $cell.Col $cell_width) $half_width }}"
							y="{{ add (mult $cell.Row $cell_height) (add $half_height 20) }}"
							stroke="blue" stroke-width="1"
							dominant-baseline="central" text-anchor="middle"
							>{{ $cell.Arrows }}</text>
					</g>
					{{ end }}
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
