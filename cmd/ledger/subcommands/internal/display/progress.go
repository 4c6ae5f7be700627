// Package display renders command outputs: task progress, tables and JSON.
package display

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/docker/go-units"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/tasks"
)

const pollBar pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{string . "status"}}{{with string . "suffix"}} {{.}}{{end}}`

// Progress shows one line per polled task.
type Progress struct {
	w    io.Writer
	mu   sync.Mutex
	bars map[string]*pb.ProgressBar
}

func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w, bars: map[string]*pb.ProgressBar{}}
}

// Elapsed formats the duration for humans, like "About a minute".
func Elapsed(d time.Duration) string {
	if d < time.Second {
		return "less than a second"
	}
	return units.HumanDuration(d)
}

// Hook updates the line of the task. Pass it to analytics.WithProgress.
//
// The line is finished when the task reaches a terminal status.
func (p *Progress) Hook(ev tasks.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[ev.TaskID]
	if !ok {
		bar = pollBar.New(-1)
		bar.SetWriter(p.w)
		bar.Set("prefix", fmt.Sprintf("%s:", ev.Label))
		bar.Start()
		p.bars[ev.TaskID] = bar
	}
	bar.Set("status", ev.Status.String())
	bar.Set("suffix", fmt.Sprintf("(%s)", Elapsed(ev.Elapsed)))

	if ev.Status.IsTerminal() {
		bar.Finish()
		delete(p.bars, ev.TaskID)
	}
}

// Finish finishes lines of tasks which have not ended, e.g. on timeout.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, bar := range p.bars {
		bar.Finish()
		delete(p.bars, id)
	}
}
