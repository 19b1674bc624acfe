package ui

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetQuietMode(false)
	})
	return &buf
}

type recordingSender struct {
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return r.err
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Resuming from checkpoint", "page 3")
	PrintWarning("Slow upstream", "retrying")
	PrintSuccess("done")

	out := buf.String()
	assert.Contains(t, out, "Resuming from checkpoint")
	assert.Contains(t, out, "page 3")
	assert.Contains(t, out, "Slow upstream: retrying")
	assert.Contains(t, out, "done")
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)
	assert.True(t, IsQuietMode())

	PrintInfo("hidden", "value")
	PrintHighlight("hidden too")
	PrintError("failed to load checkpoint", errors.New("unexpected EOF"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "failed to load checkpoint: unexpected EOF")
}

func TestProgressDisplay(t *testing.T) {
	buf := captureOutput(t)

	p := NewProgressDisplay("730", 10, false)
	p.SetStart(2, 40)
	p.CompletePage(3, 100, 25, "2024-11-30", "2024-11-28")

	line := buf.String()
	assert.Contains(t, line, "page 3/10")
	assert.Contains(t, line, "65 admitted")
	assert.Contains(t, line, "2024-11-28")

	buf.Reset()
	p.Complete("StartBoundaryCrossed", 25, 4)
	out := buf.String()
	assert.Contains(t, out, "StartBoundaryCrossed")
	assert.Contains(t, out, "25 reviews admitted over 1 pages")
	assert.Contains(t, out, "40 reviews carried over")
	assert.Contains(t, out, "4 days in report")
}

func TestProgressDisplayDebugMode(t *testing.T) {
	buf := captureOutput(t)

	p := NewProgressDisplay("730", 10, true)
	p.ScanningPage(1)
	p.CompletePage(1, 50, 50, "2024-11-05", "2024-11-05")

	out := buf.String()
	assert.Contains(t, out, "Fetching page 1")
	assert.Contains(t, out, "page 1 • 50 reviews • 50 admitted")
}

func TestNotifier(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{err: errors.New("notify-send not found")}
	n := NewNotifierWithSender(sender)

	n.SendSuccess("Review collection finished", "AllDaysSaturated: 1 days written")
	n.SendError("Review collection finished", "FetchFailed")

	assert.Equal(t, []string{"Review collection finished", "Review collection finished"}, sender.titles)
	assert.Contains(t, buf.String(), "AllDaysSaturated")
	assert.Contains(t, buf.String(), "FetchFailed")

	// a platform without a sender still prints
	NewNotifierWithSender(nil).SendNotification("title", "console only")
	assert.Contains(t, buf.String(), "console only")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}

func TestNotifierQuoting(t *testing.T) {
	assert.Equal(t, `"plain"`, appleScriptString("plain"))
	assert.Equal(t, `"say \"hi\" C:\\dir"`, appleScriptString(`say "hi" C:\dir`))

	script := toastScript("Run <done>", "FetchFailed & 3 days")
	assert.Contains(t, script, "Run &lt;done&gt;")
	assert.Contains(t, script, "FetchFailed &amp; 3 days")
	assert.Contains(t, script, "$xml = @'")
}
