//go:build js && wasm

// Command wasm exposes the driving core to the browser via WebAssembly. After loading, it
// registers a global JavaScript function:
//
//	runScenario(jsonString) -> jsonString
//
// The input and output are JSON-encoded scenario.Scenario and scenario.Log respectively,
// matching the same contract used by the CLI. Generalized from the teacher's
// cmd/wasm/main.go (cxd309-tms-engine), which exposes runSimulation the same way.
package main

import (
	"encoding/json"
	"math/rand"
	"syscall/js"

	"github.com/traffline/drivingcore/internal/driving"
	"github.com/traffline/drivingcore/internal/scenario"
)

func main() {
	js.Global().Set("runScenario", js.FuncOf(runScenario))
	select {} // keep the WASM module alive until the page is closed
}

func runScenario(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return map[string]any{"error": "no input provided"}
	}

	sc, err := scenario.ParseJSON([]byte(args[0].String()))
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	built, err := scenario.Build(sc, driving.DefaultConfig(), nil)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	rng := rand.New(rand.NewSource(1))
	result, err := scenario.Run(built, sc.Meta, rng, nil)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	out, err := json.Marshal(result)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return string(out)
}
