package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"gridplan/grid_world"
	"gridplan/models"
	"gridplan/planning"
	"gridplan/server/fastview"
	"gridplan/server/root_view"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

// Planner operations exposed as POST /api/{op}.
const (
	OP_EVALUATE = "evaluate"
	OP_IMPROVE  = "improve"
	OP_ITERATE  = "iterate"
	OP_SOLVE    = "solve"
	OP_RESET    = "reset"
)

const shutdownGracePeriod = 5 * time.Second

var (
	// ErrUnknownOp is returned for an operation name not listed above.
	ErrUnknownOp = errors.New("unknown operation")
	// ErrUnsupportedOp is returned for an operation the planner's algorithm does not have.
	ErrUnsupportedOp = errors.New("operation not supported by planner")
)

// Server drives a single planner through http requests and streams its snapshots
// to a single browser page over a websocket. Requests are serialized, so the
// planner is only ever touched by one goroutine at a time.
type Server struct {
	addr   string
	router *mux.Router

	mu      sync.Mutex
	planner planning.Planner
	opts    planning.SolveOptions
	sweep   int
	last    planning.Snapshot

	snapshots chan planning.Snapshot
	rootView  *root_view.RootView
}

// NewServer builds the views over world and returns a server driving planner.
// The view pipelines stop when ctx is done.
func NewServer(
	ctx context.Context,
	addr string,
	world *grid_world.GridWorld,
	planner planning.Planner,
	opts planning.SolveOptions,
) (*Server, error) {
	srv := &Server{
		addr:      addr,
		planner:   planner,
		opts:      opts,
		snapshots: make(chan planning.Snapshot, 1),
	}

	rootView, err := root_view.NewRootView(ctx, world, srv.snapshots, Controls(planner))
	if err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}
	srv.rootView = rootView
	srv.last = planning.TakeSnapshot(planner, 0)

	router := mux.NewRouter()
	router.HandleFunc("/", srv.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", srv.serveWebsocket)
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", srv.serveSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/move", srv.serveMove).Methods(http.MethodGet)
	api.HandleFunc("/{op}", srv.serveOp).Methods(http.MethodPost)
	srv.router = router

	return srv, nil
}

// Controls returns the operations available for the planner's algorithm.
func Controls(planner planning.Planner) []string {
	if _, ok := planner.(*planning.PolicyIteration); ok {
		return []string{OP_EVALUATE, OP_IMPROVE, OP_SOLVE, OP_RESET}
	}
	return []string{OP_ITERATE, OP_SOLVE, OP_RESET}
}

// Handler returns the server's router.
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// Serve listens until ctx is done, then shuts down gracefully.
func (srv *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    srv.addr,
		Handler: srv.router,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Println("serving on", srv.addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// Apply runs a single operation on the planner and publishes the resulting snapshot.
func (srv *Server) Apply(ctx context.Context, op string) (planning.Snapshot, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	switch op {
	case OP_RESET:
		srv.planner.Reset()
		srv.sweep = 0
	case OP_EVALUATE, OP_IMPROVE:
		pi, ok := srv.planner.(*planning.PolicyIteration)
		if !ok {
			return srv.last, fmt.Errorf("%w: %s", ErrUnsupportedOp, op)
		}
		if op == OP_EVALUATE {
			pi.PolicyEvaluation()
			srv.sweep++
		} else {
			pi.PolicyImprovement()
		}
	case OP_ITERATE:
		vi, ok := srv.planner.(*planning.ValueIteration)
		if !ok {
			return srv.last, fmt.Errorf("%w: %s", ErrUnsupportedOp, op)
		}
		vi.ValueIteration()
		srv.sweep++
	case OP_SOLVE:
		base := srv.sweep
		result, err := planning.Solve(ctx, srv.planner, srv.opts,
			func(_ context.Context, snap planning.Snapshot) {
				snap.Sweep += base
				srv.publish(snap)
			})
		if result != nil {
			srv.sweep = base + result.Sweeps
			log.Printf("solve: %d sweeps, %d improvements, converged=%t",
				result.Sweeps, result.Improvements, result.Converged)
		}
		if err != nil {
			srv.publish(planning.TakeSnapshot(srv.planner, srv.sweep))
			return srv.last, err
		}
	default:
		return srv.last, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}

	srv.publish(planning.TakeSnapshot(srv.planner, srv.sweep))
	return srv.last, nil
}

// publish records snap and offers it to the views, replacing any snapshot they have not
// yet taken. Callers must hold mu.
func (srv *Server) publish(snap planning.Snapshot) {
	srv.last = snap
	select {
	case srv.snapshots <- snap:
		return
	default:
	}
	select {
	case <-srv.snapshots:
	default:
	}
	select {
	case srv.snapshots <- snap:
	default:
	}
}

// Snapshot returns the latest published snapshot.
func (srv *Server) Snapshot() planning.Snapshot {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.last
}

func (srv *Server) serveOp(w http.ResponseWriter, r *http.Request) {
	op := mux.Vars(r)["op"]
	snap, err := srv.Apply(r.Context(), op)
	switch {
	case errors.Is(err, ErrUnknownOp):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrUnsupportedOp):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Println(op+":", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

func (srv *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, srv.Snapshot())
}

// Move is the planner's choice at a state, along with every action it favors there.
type Move struct {
	State   models.State
	Action  models.Action
	Actions []models.Action
}

func (srv *Server) serveMove(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	row, rowErr := strconv.Atoi(query.Get("row"))
	col, colErr := strconv.Atoi(query.Get("col"))
	if rowErr != nil || colErr != nil {
		http.Error(w, "row and col must be integers", http.StatusBadRequest)
		return
	}
	state := models.State{Row: row, Col: col}

	srv.mu.Lock()
	action, err := srv.planner.Choose(state)
	var actions []models.Action
	if err == nil {
		actions, err = srv.planner.Actions(state)
	}
	srv.mu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, Move{State: state, Action: action, Actions: actions})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Println("encode:", err)
	}
}

// serveWebsocket publishes view updates to the client. Only one client is served at a time;
// concurrent clients split the updates between them.
func (srv *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(srv.rootView.Updates(), w, r)
	if err != nil {
		log.Println(err)
		return
	}

	if err := cli.Sync(); err != nil {
		log.Println("sync:", err)
	}
}

// Serve the index.html main page, rendered from the latest snapshot.
func (srv *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	board := srv.rootView.Board(srv.Snapshot())
	if err := renderTemplate(w, srv.rootView, board); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}
	return t.Execute(w, data)
}
