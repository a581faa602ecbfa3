package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gridplan/grid_world"
	"gridplan/planning"

	. "github.com/smartystreets/goconvey/convey"
)

// wireSnapshot is a snapshot as encoded on the wire, with actions by name.
type wireSnapshot struct {
	Sweep   int
	Values  [][]float64
	Actions [][][]string
}

type wireMove struct {
	Action  string
	Actions []string
}

func newTestServer(ctx context.Context, planner planning.Planner) *Server {
	srv, err := NewServer(ctx, ":0", grid_world.Default(), planner, planning.SolveOptions{})
	So(err, ShouldBeNil)
	return srv
}

func do(srv *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(rec *httptest.ResponseRecorder, v interface{}) {
	So(json.NewDecoder(rec.Body).Decode(v), ShouldBeNil)
}

func TestServer(t *testing.T) {
	Convey("When serving a policy iteration planner", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pi, err := planning.NewPolicyIteration(grid_world.Default(), 0.9, planning.NewSampler(3))
		So(err, ShouldBeNil)
		srv := newTestServer(ctx, pi)

		Convey("The index page renders the views and the controls", func() {
			rec := do(srv, http.MethodGet, "/")
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := rec.Body.String()
			So(body, ShouldContainSubstring, `id="valuesgrid"`)
			So(body, ShouldContainSubstring, `id="valuefunction"`)
			So(body, ShouldContainSubstring, `post('evaluate')`)
			So(body, ShouldNotContainSubstring, `post('iterate')`)
		})

		Convey("An evaluation sweep advances the sweep count", func() {
			rec := do(srv, http.MethodPost, "/api/evaluate")
			So(rec.Code, ShouldEqual, http.StatusOK)
			snap := wireSnapshot{}
			decode(rec, &snap)
			So(snap.Sweep, ShouldEqual, 1)
			So(snap.Values[2][3], ShouldEqual, 0.25)
			So(snap.Actions[2][2], ShouldBeEmpty)
			So(snap.Actions[0][0], ShouldResemble, []string{"up", "down", "left", "right"})
		})

		Convey("Value iteration operations are rejected", func() {
			rec := do(srv, http.MethodPost, "/api/iterate")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown operations are not found", func() {
			rec := do(srv, http.MethodPost, "/api/sarsa")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Solving converges and reset restores the initial tables", func() {
			rec := do(srv, http.MethodPost, "/api/solve")
			So(rec.Code, ShouldEqual, http.StatusOK)
			snap := wireSnapshot{}
			decode(rec, &snap)
			So(snap.Sweep, ShouldBeGreaterThan, 0)
			So(snap.Values[2][3], ShouldEqual, 1.0)

			rec = do(srv, http.MethodPost, "/api/reset")
			So(rec.Code, ShouldEqual, http.StatusOK)
			snap = wireSnapshot{}
			decode(rec, &snap)
			So(snap.Sweep, ShouldEqual, 0)
			So(snap.Values[2][3], ShouldEqual, 0.0)

			rec = do(srv, http.MethodGet, "/api/snapshot")
			So(rec.Code, ShouldEqual, http.StatusOK)
			latest := wireSnapshot{}
			decode(rec, &latest)
			So(latest, ShouldResemble, snap)
		})
	})

	Convey("When serving a value iteration planner", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		vi, err := planning.NewValueIteration(grid_world.Default(), 0.9)
		So(err, ShouldBeNil)
		srv := newTestServer(ctx, vi)
		So(Controls(vi), ShouldResemble, []string{OP_ITERATE, OP_SOLVE, OP_RESET})

		Convey("Moves follow the solved values", func() {
			So(do(srv, http.MethodPost, "/api/solve").Code, ShouldEqual, http.StatusOK)

			rec := do(srv, http.MethodGet, "/api/move?row=0&col=0")
			So(rec.Code, ShouldEqual, http.StatusOK)
			move := wireMove{}
			decode(rec, &move)
			So(move.Action, ShouldEqual, "down")
			So(move.Actions, ShouldResemble, []string{"down", "right"})

			rec = do(srv, http.MethodGet, "/api/move?row=2&col=2")
			So(rec.Code, ShouldEqual, http.StatusOK)
			move = wireMove{}
			decode(rec, &move)
			So(move.Action, ShouldEqual, "none")
		})

		Convey("Moves outside the grid are rejected", func() {
			for _, query := range []string{"row=9&col=0", "row=-1&col=0", "row=a&col=0", "row=1"} {
				rec := do(srv, http.MethodGet, "/api/move?"+query)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("Iterating advances the sweep count", func() {
			snap, err := srv.Apply(ctx, OP_ITERATE)
			So(err, ShouldBeNil)
			So(snap.Sweep, ShouldEqual, 1)
			So(strings.Contains(do(srv, http.MethodGet, "/").Body.String(), "sweep 1"), ShouldBeTrue)
		})
	})
}
