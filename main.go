package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/eiannone/keyboard"

	"git.lost.host/meutraa/recut/internal/audio"
	"git.lost.host/meutraa/recut/internal/config"
	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/edit"
	"git.lost.host/meutraa/recut/internal/history"
	"git.lost.host/meutraa/recut/internal/render"
	"git.lost.host/meutraa/recut/internal/session"
	"git.lost.host/meutraa/recut/internal/theme"
	"git.lost.host/meutraa/recut/internal/timeline"
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

func run() error {
	c, err := config.Parse(os.Args[1:])
	if nil != err {
		return err
	}

	// With -v everything is logged as it happens, otherwise warnings are
	// shown once the command is done.
	var logger *log.Logger
	if c.Debug {
		logger = log.New(os.Stderr, "", log.Ltime)
	}
	d := diag.New("", logger, diag.Debug)

	// Ensure our Default implementations are used as interfaces
	var r render.Renderer = &render.TextRenderer{Theme: &theme.DefaultTheme{}}
	var backend audio.Backend = &audio.DefaultBackend{Diag: d}

	s := session.New(backend, d, session.Options{
		DefaultTempo: c.DefaultTempo,
		Edit: edit.Options{
			FadeIn:    c.FadeIn,
			FadeOut:   c.FadeOut,
			Crossfade: c.Crossfade.Seconds(),
		},
	})
	if !c.Debug {
		defer func() { r.Diagnostics(d.Filter(diag.Warn)) }()
	}
	if err := s.Load(c.Score, c.TempoMap); nil != err {
		return err
	}
	if !c.Debug {
		r.Diagnostics(d.Filter(diag.Warn))
		d.Reset()
	}

	if !c.NoHistory && (c.Command == config.Render || c.Command == config.Shell || c.Command == config.History) {
		j, err := history.Open(c.History)
		if nil != err {
			return err
		}
		defer func() {
			if err := j.Close(); nil != err {
				log.Println("unable to close edit history", err)
			}
		}()
		s.Journal = j
	}

	switch c.Command {
	case config.Analyze:
		return analyze(s, r)
	case config.Plan:
		return plan(s, r, c.Edit)
	case config.Render:
		result, err := renderEdit(s, r, c.Audio, c.Edit, c.Output)
		if nil != err {
			return err
		}
		if c.Preview {
			return preview(result.clip.Duration().Seconds(), func(stop <-chan struct{}) error {
				return backend.Preview(result.clip, stop)
			})
		}
		return nil
	case config.Shell:
		return shell(s, r, backend, c.Audio, c.Output, c.Debug)
	case config.History:
		return listHistory(s)
	}
	return fmt.Errorf("unknown command %s", c.Command)
}

func analyze(s *session.Session, r render.Renderer) error {
	score := s.Score()
	source := s.Source()
	fmt.Printf("%s\n", score.Title)
	fmt.Printf("%d measures, %v, ends at %s\n", source.MeasureCount(), source.Kind, render.Clock(source.End()))
	if source.Kind == timeline.ExternalBeatMap {
		fmt.Printf("Tempo %s over %d measured bars, first beat at %s, %d downbeats\n",
			source.Beats.TempoRange(), len(source.Beats.TempoChanges()), render.Clock(source.Beats.InitialOffset), len(source.Beats.StrongBeats()))
	}
	timings := s.Timings()
	r.Sections(timings)
	r.StructureBar(timings, nil)
	return nil
}

func plan(s *session.Session, r render.Renderer, text string) error {
	result, err := s.Plan(text, 0)
	if nil != err {
		return err
	}
	show(s, r, result)
	return nil
}

func show(s *session.Session, r render.Renderer, result *session.Result) {
	timings := s.Timings()
	removed := []string{}
	for _, t := range result.Actions.Removed(timings) {
		removed = append(removed, t.Name)
	}
	r.StructureBar(timings, removed)
	r.Plan(result.Cuts)
	r.Contract(result.Contract)
}

type rendered struct {
	*session.Result
	clip *audio.Clip
}

// renderEdit splices the recording, saves it and, when the session is
// timed by a tempo map, writes the edited tempo map next to it.
func renderEdit(s *session.Session, r render.Renderer, audioPath, text, output string) (*rendered, error) {
	result, clip, err := s.Render(audioPath, text)
	if nil != err {
		return nil, err
	}
	show(s, r, result)

	if err := s.Backend.Save(output, clip); nil != err {
		return nil, err
	}
	size := ""
	if info, err := os.Stat(output); nil == err {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Printf("Wrote %s (%s, %s)\n", output, render.Clock(clip.Duration().Seconds()), size)

	if beats := s.RemappedBeats(result); len(beats) > 0 {
		mapPath := strings.TrimSuffix(output, filepath.Ext(output)) + ".tsv"
		f, err := os.Create(mapPath)
		if nil != err {
			return nil, fmt.Errorf("unable to create %s: %w", mapPath, err)
		}
		if err := timeline.WriteBeatMap(f, beats); nil != err {
			f.Close()
			return nil, fmt.Errorf("unable to write %s: %w", mapPath, err)
		}
		if err := f.Close(); nil != err {
			return nil, fmt.Errorf("unable to write %s: %w", mapPath, err)
		}
		fmt.Printf("Wrote %s (%d beats)\n", mapPath, len(beats))
	}

	if err := s.Record(result, output); nil != err {
		log.Println("unable to record edit", err)
	}
	return &rendered{Result: result, clip: clip}, nil
}

// preview runs play until it returns or Esc is pressed.
func preview(seconds float64, play func(stop <-chan struct{}) error) error {
	keyChannel, err := keyboard.GetKeys(16)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard", err)
		}
	}()

	fmt.Printf("Playing %s, Esc or q stops\n", render.Clock(seconds))
	stop := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case key := <-keyChannel:
				if key.Key == keyboard.KeyEsc || key.Key == keyboard.KeyCtrlC || key.Rune == 'q' {
					close(stop)
					return
				}
			case <-done:
				return
			}
		}
	}()
	return play(stop)
}

func listHistory(s *session.Session) error {
	if nil == s.Journal {
		return fmt.Errorf("edit history is disabled")
	}
	entries, err := s.Journal.List(s.ScoreSum())
	if nil != err {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No edits recorded for this score")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%4d  %-14s  %-8s  %-40q  %s -> %s\n",
			e.ID, humanize.Time(e.CreatedAt), e.Session.String()[:8], e.Command, strings.Join(e.Kept, ", "), e.Output)
	}
	return nil
}
