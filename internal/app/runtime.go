package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "GESTION_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether binaries should stop after wiring, without
// binding ports or starting background listeners.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads GESTION_TEST_MODE.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
