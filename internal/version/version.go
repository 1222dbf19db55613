package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/bnema/amplify-rest-cli/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

// UserAgent is sent with every REST request.
func UserAgent() string {
	return fmt.Sprintf("amprest/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
