package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"dsq/internal/exec"
	"dsq/internal/format"
	"dsq/internal/ops"
	"dsq/internal/value"
)

// RunRecord is one iteration of an interactive watch loop: a correlation ID,
// the value produced, and how long the run took.
type RunRecord struct {
	ID      string
	Value   value.Value
	Elapsed time.Duration
	Error   error
}

// Watch polls the filter source and every input path for mtime changes and
// re-runs the filter each time one changes, emitting a RunRecord per run
// until ctx is cancelled. filterPath may be empty when the filter came from
// the command line rather than -f; in that case only the inputs are
// watched. poll is the polling interval (callers default it to 500ms).
func Watch(ctx context.Context, executor *exec.Executor, filterSource string, filterPath string, inputPaths []string, mode ops.ErrorMode, poll time.Duration, emit func(RunRecord)) error {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	g, ctx := errgroup.WithContext(ctx)

	runOnce := func() RunRecord {
		start := time.Now()
		rec := RunRecord{ID: uuid.NewString()}
		source := filterSource
		if filterPath != "" {
			if data, err := os.ReadFile(filterPath); err == nil {
				source = string(data)
			}
		}
		var last value.Value
		if len(inputPaths) == 0 {
			last = value.Null()
		} else {
			v, _, err := ReadInput(inputPaths[len(inputPaths)-1], "")
			if err != nil {
				rec.Error = err
				rec.Elapsed = time.Since(start)
				return rec
			}
			last = v
		}
		outs, err := executor.ExecuteStr(ctx, source, last, mode)
		rec.Elapsed = time.Since(start)
		if err != nil {
			rec.Error = err
			return rec
		}
		rec.Value = value.Array(outs)
		return rec
	}

	g.Go(func() error {
		emit(runOnce())
		mtimes := snapshotMtimes(filterPath, inputPaths)
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				next := snapshotMtimes(filterPath, inputPaths)
				if mtimesChanged(mtimes, next) {
					mtimes = next
					emit(runOnce())
				}
			}
		}
	})
	return g.Wait()
}

func snapshotMtimes(filterPath string, inputPaths []string) map[string]time.Time {
	m := make(map[string]time.Time, len(inputPaths)+1)
	if filterPath != "" {
		if info, err := os.Stat(filterPath); err == nil {
			m[filterPath] = info.ModTime()
		}
	}
	for _, p := range inputPaths {
		if info, err := os.Stat(p); err == nil {
			m[p] = info.ModTime()
		}
	}
	return m
}

func mtimesChanged(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return true
	}
	for k, v := range a {
		if !b[k].Equal(v) {
			return true
		}
	}
	return false
}

// wsUpgrader upgrades a loopback-only HTTP connection for the --interactive
// remote stats stream; origin checking is intentionally permissive since the
// listener only ever binds to localhost.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeStatsSocket serves websocket connections at /stats; each connection
// streams one JSON frame per RunRecord it receives from the shared records
// channel. It blocks until ctx is cancelled (returning nil) or the server
// fails to listen.
func ServeStatsSocket(ctx context.Context, addr string, records <-chan RunRecord) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-records:
				if !ok {
					return
				}
				msg := fmt.Sprintf(`{"id":%q,"elapsed_ms":%d,"error":%q}`, rec.ID, rec.Elapsed.Milliseconds(), errString(rec.Error))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
					return
				}
			}
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RenderRunValue JSON-encodes a RunRecord's value for terminal display,
// since Value.String() is a debug summary, not the textual representation
// interactive mode's output should show.
func RenderRunValue(v value.Value) (string, error) {
	jsonFmt, _ := format.Get(format.JSON)
	data, err := jsonFmt.Write(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
