package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/khanhnv2901/hapi-cli/internal/application/assessment"
)

// consoleProgress prints one line when a check starts and one when it ends.
type consoleProgress struct {
	mu    sync.Mutex
	out   io.Writer
	index int
}

func newConsoleProgress(out io.Writer) *consoleProgress {
	return &consoleProgress{out: out}
}

func (p *consoleProgress) CheckStarted(name, title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index++
	fmt.Fprintf(p.out, "%s Running %s module...\n", colorInfo(fmt.Sprintf("[%d]", p.index)), name)
}

func (p *consoleProgress) CheckFinished(exec *assessment.Execution) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := formatStatusWithColor(string(exec.Status()))
	line := fmt.Sprintf("    %s: %s in %.2fs, %d findings", exec.Title(), status, exec.Duration().Seconds(), exec.Rows())
	if err := exec.Err(); err != nil {
		line = fmt.Sprintf("    %s: %s in %.2fs (%v)", exec.Title(), status, exec.Duration().Seconds(), err)
	}
	fmt.Fprintln(p.out, line)
}
