package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"

	"tunegrab/internal/logging"
	"tunegrab/internal/pipeline"
)

const progressLabelWidth = 40

// progressRenderer prints one line per meaningful pipeline event. Download
// progress is sampled per request so a batch stays readable.
type progressRenderer struct {
	out      io.Writer
	colorize bool
	total    int
	position map[string]int
	labels   map[string]string
	samplers map[string]*logging.ProgressSampler
}

func newProgressRenderer(out io.Writer, reqs []pipeline.Request, colorize bool) *progressRenderer {
	r := &progressRenderer{
		out:      out,
		colorize: colorize,
		total:    len(reqs),
		position: make(map[string]int, len(reqs)),
		labels:   make(map[string]string, len(reqs)),
		samplers: make(map[string]*logging.ProgressSampler, len(reqs)),
	}
	for i, req := range reqs {
		r.position[req.ID] = i + 1
		r.labels[req.ID] = text.Snip(displayLabel(req), progressLabelWidth, "~")
	}
	return r
}

// consume renders events until the channel is closed.
func (r *progressRenderer) consume(events <-chan pipeline.Event) {
	for ev := range events {
		if line := r.render(ev); line != "" {
			fmt.Fprintln(r.out, line)
		}
	}
}

func (r *progressRenderer) render(ev pipeline.Event) string {
	prefix := fmt.Sprintf("[%d/%d] %s", r.position[ev.RequestID], r.total, r.labels[ev.RequestID])
	switch ev.Kind {
	case pipeline.EventToolStatus:
		if ev.ToolStatus == "already_installed" {
			return ""
		}
		return paint(fmt.Sprintf("%s: %s %s", prefix, ev.Tool, ev.Message), ansiBlue, r.colorize)
	case pipeline.EventProgress:
		sampler, ok := r.samplers[ev.RequestID]
		if !ok {
			sampler = logging.NewProgressSampler(25)
			r.samplers[ev.RequestID] = sampler
		}
		if !sampler.ShouldLog(ev.Percent, ev.Message) {
			return ""
		}
		return fmt.Sprintf("%s: %s %3.0f%%", prefix, ev.Message, ev.Percent)
	case pipeline.EventCompleted:
		return paint(fmt.Sprintf("%s: saved %s", prefix, ev.Path), ansiGreen, r.colorize)
	case pipeline.EventFailed:
		return paint(fmt.Sprintf("%s: failed in %s: %s", prefix, ev.Stage, ev.Error), ansiRed, r.colorize)
	default:
		return ""
	}
}

func displayLabel(req pipeline.Request) string {
	if req.OriginalText != "" {
		return req.OriginalText
	}
	return req.Label()
}
