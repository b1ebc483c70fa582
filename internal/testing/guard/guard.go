// Package guard switches binaries into test mode. Test packages that build
// the app wiring import it for its side effect.
package guard

import (
	"os"
	"sync"
)

// Env is the variable read by app.InTestMode.
const Env = "VOUCHERDESK_TEST_MODE"

var once sync.Once

func init() {
	Enable()
}

// Enable sets the test mode flag and points the PDF renderer at an
// unroutable address unless one is configured.
func Enable() {
	once.Do(func() {
		if os.Getenv(Env) == "" {
			_ = os.Setenv(Env, "1")
		}
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}
