package root_view

import (
	"context"
	"html/template"
	"strings"

	"gridplan/grid_world"
	"gridplan/planning"
	"gridplan/server/cell_views"
	"gridplan/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// RootView is the main page: the container of the view components, the websocket
// bootstrap, and the planner controls.
type RootView struct {
	views    []fastview.ViewComponent
	updates  <-chan []fastview.EleUpdate
	controls []string
	convert  func(planning.Snapshot) cell_views.Board
}

// NewRootView builds the page's views over a stream of planner snapshots.
// Each control is rendered as a button posting to /api/{control}.
func NewRootView(
	ctx context.Context,
	world *grid_world.GridWorld,
	snapshots <-chan planning.Snapshot,
	controls []string,
) (*RootView, error) {
	convert := cell_views.Converter(world)
	views, err := fastview.NewViewBuilder[planning.Snapshot, cell_views.Board]().
		WithContext(ctx).
		WithModel(snapshots, convert).
		WithView(func(
			done <-chan struct{},
			boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewValuesGrid(done, boards)
		}).
		WithView(func(
			done <-chan struct{},
			boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewValueFunction(done, boards)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:    views,
		updates:  fanIn(ctx.Done(), views),
		controls: controls,
		convert:  convert,
	}, nil
}

// Board converts a snapshot to the view-model the page template is executed with.
func (rv *RootView) Board(snap planning.Snapshot) cell_views.Board {
	return rv.convert(snap)
}

// Updates returns the ele-updates of every view.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse defines the main page and returns its name. It also sets up the func-map
// the child components depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
			"div":  func(i, j int) int { return i / j },
		})

	var bodySpec strings.Builder
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec.WriteString(`{{ template "` + tname + `" . }}`)
	}

	var buttons strings.Builder
	for _, control := range rv.controls {
		control = template.HTMLEscapeString(control)
		buttons.WriteString(`<button onclick="post('` + control + `')">` + control + `</button>`)
	}

	name = "mainpage"
	_, err = rt.Parse(`
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws");
				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// The server pushes element updates; apply each to the element with its id.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data);
					for (const update of items) {
						const ele = document.getElementById(update.EleId);
						if (!ele) {
							continue;
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value);
							}
						}
					}
				};

				function post(op) {
					fetch("/api/" + op, { method: "POST" })
						.then(resp => { if (!resp.ok) { resp.text().then(console.log); } });
				}
			</script>
		</head>
		<body>
		<div id="controls">` + buttons.String() + `</div>
		` + bodySpec.String() + `
		</body></html>
	{{ end }}
	`)
	return
}

// fanIn merges the views' ele-update channels.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return channerics.Merge(done, inputs...)
}
