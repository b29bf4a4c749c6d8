package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X".
var (
	NAME     = "orka-go"
	VERSION  = "unknown"
	REVISION = "HEAD"
)

// UserAgent identifies this client in request headers.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s/%s)", NAME, VERSION, REVISION, runtime.GOOS, runtime.GOARCH)
}
