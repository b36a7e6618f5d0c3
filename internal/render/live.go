package render

import (
	"path"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"firefly/cli/internal/browser"
	"firefly/cli/internal/notify"
)

// Braille spinner frames similar to docker CLI.
var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Live follows a model in a pterm area while a fetch runs.
type Live struct {
	model    *browser.Model
	progress *ProgressState
	state    *RenderState

	conn notify.Connection
	area *pterm.AreaPrinter
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewLive subscribes to model's data notifications. Call Start to draw and
// Stop to tear the area down.
func NewLive(model *browser.Model) *Live {
	l := &Live{
		model:    model,
		progress: NewProgressState(),
		state:    &RenderState{},
	}
	l.conn = model.DataChanged().Connect(func(row int) {
		total := 0
		if row < 0 {
			total = model.Len()
		}
		l.progress.Apply(row, total)
	})
	return l
}

// Progress exposes the tracked progress.
func (l *Live) Progress() *ProgressState { return l.progress }

// Start opens the area and redraws it every 120ms.
func (l *Live) Start() error {
	if l.area != nil {
		return nil
	}
	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		return err
	}
	l.area = area
	l.stop = make(chan struct{})
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				l.update()
			case <-l.stop:
				return
			}
		}
	}()
	return nil
}

// Stop removes the area and disconnects from the model.
func (l *Live) Stop() {
	l.conn.Disconnect()
	if l.area == nil {
		return
	}
	close(l.stop)
	l.wg.Wait()
	l.area.Stop()
	l.area = nil
	cursor.Show()
}

func (l *Live) update() {
	frame := frames[l.state.IncrementFrame()%len(frames)]
	text := l.state.FormatLines(l.Lines(frame))
	if l.state.Changed(text) {
		l.area.Update(text)
	}
}

// Lines builds the area content: a status line followed by the most
// recently enriched domains.
func (l *Live) Lines(frame string) []string {
	updated, total := l.progress.Counts()
	lines := []string{statusLine(frame, l.model.State(), l.model.Options().Folder, updated, total)}
	for _, i := range l.progress.RecentRows() {
		rec, ok := l.model.Row(i)
		if !ok {
			continue
		}
		lines = append(lines, "  "+pterm.FgGreen.Sprint("✓")+" "+path.Base(rec.Name)+pterm.FgGray.Sprintf("  %d attributes", len(rec.Attributes)))
	}
	return lines
}
