package version

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "orka-go/unknown (HEAD; ") {
		t.Errorf("unexpected user agent %q", ua)
	}
}
