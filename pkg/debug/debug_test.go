package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoggingGatedByEnabled(t *testing.T) {
	var buf bytes.Buffer
	prev := Enabled()
	defer SetEnabled(prev)

	SetEnabled(true)
	SetOutput(&buf)

	Log("rebuild %d", 3)
	LogIf(false, "hidden")
	LogTiming("apply", 2*time.Millisecond)
	Section("drop")

	out := buf.String()
	for _, want := range []string{"rebuild 3", "apply took 2ms", "=== drop ==="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("LogIf(false) wrote output")
	}

	buf.Reset()
	SetEnabled(false)
	Log("silent")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}
