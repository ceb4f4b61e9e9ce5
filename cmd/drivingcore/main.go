// Command drivingcore reads a scenario.Scenario JSON from a file argument (or stdin),
// runs the driving core to completion, and writes the resulting scenario.Log JSON to
// stdout. Generalized from the teacher's cmd/cli/main.go (cxd309-tms-engine), which reads
// a SimulationInput and writes a SimulationLog the same way.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/traffline/drivingcore/internal/scenario"
	"github.com/traffline/drivingcore/internal/simconfig"
	"github.com/traffline/drivingcore/internal/view"
	"github.com/traffline/drivingcore/internal/viewstream"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := simconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger()

	var data []byte
	if args := flag.Args(); len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading scenario: %v\n", err)
		os.Exit(1)
	}

	sc, err := scenario.ParseJSON(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scenario error: %v\n", err)
		os.Exit(1)
	}

	built, err := scenario.Build(sc, cfg.DrivingConfig(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build error: %v\n", err)
		os.Exit(1)
	}

	sink, stopStream := startViewStream(cfg.ViewStreamAddr, log)
	defer stopStream()

	rng := rand.New(rand.NewSource(cfg.RNGSeed))
	result, err := scenario.Run(built, sc.Meta, rng, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation error: %v\n", err)
		os.Exit(1)
	}

	out, err := json.Marshal(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshaling output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// broadcaster fans out draw frames from the single simulation loop to every connected
// viewstream.Client, dropping frames for a subscriber whose buffer is full rather than
// blocking the tick loop.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan view.DrawFrame]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan view.DrawFrame]struct{})}
}

func (b *broadcaster) publish(frame view.DrawFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (b *broadcaster) subscribe() chan view.DrawFrame {
	ch := make(chan view.DrawFrame, 4)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *broadcaster) unsubscribe(ch chan view.DrawFrame) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// startViewStream starts an HTTP server publishing draw-input over websocket at addr, if
// addr is non-empty (§10.6). It returns the sink scenario.Run should feed each tick's
// frame to, and a stop function to call once the run completes.
func startViewStream(addr string, log logrus.FieldLogger) (func(view.DrawFrame), func()) {
	if addr == "" {
		return nil, func() {}
	}

	b := newBroadcaster()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ch := b.subscribe()
		defer b.unsubscribe(ch)
		client, err := viewstream.NewClient(ch, w, r)
		if err != nil {
			log.WithError(err).Warn("viewstream: client upgrade failed")
			return
		}
		if err := client.Sync(); err != nil {
			log.WithError(err).Debug("viewstream: client disconnected")
		}
	})
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("viewstream: server exited")
		}
	}()

	return b.publish, func() { _ = server.Close() }
}
