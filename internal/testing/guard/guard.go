// Package guard flips the runtime into test mode as soon as any test
// package imports it, so mains skip side effects under go test.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("GRANTLINE_TEST_MODE") == "" {
			_ = os.Setenv("GRANTLINE_TEST_MODE", "1")
		}
	})
}
