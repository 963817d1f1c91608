package execenv

import (
	"math/rand"
	"runtime"
	"time"
)

// Initialize initializes the execution environment required to run marabud
func Initialize() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Outbound peer selection shuffles the peer table.
	rand.Seed(time.Now().UnixNano())
}
