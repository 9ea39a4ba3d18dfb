package version

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	full, base := GetVersion(), GetBaseVersion()
	if !strings.HasPrefix(full, base+".") {
		t.Fatalf("full version %q does not extend base version %q", full, base)
	}
	if strings.Count(full, ".") != 2 {
		t.Errorf("expected major.minor.patch, got %q", full)
	}
}
