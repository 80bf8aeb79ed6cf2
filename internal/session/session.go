package session

import (
	"strings"

	"github.com/google/uuid"

	"git.lost.host/meutraa/recut/internal/audio"
	"git.lost.host/meutraa/recut/internal/command"
	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/edit"
	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/history"
	"git.lost.host/meutraa/recut/internal/music"
	"git.lost.host/meutraa/recut/internal/parser"
	"git.lost.host/meutraa/recut/internal/section"
	"git.lost.host/meutraa/recut/internal/timeline"
)

const stage = "session"

type Options struct {
	DefaultTempo float64
	Edit         edit.Options
}

// Session runs the whole pipeline for one score and recording. It is not
// safe for concurrent use.
type Session struct {
	ID          uuid.UUID
	Parser      parser.Parser // Chosen by file extension when nil
	Backend     audio.Backend
	Interpreter command.Interpreter
	Journal     *history.Journal // Optional
	Diag        *diag.Collector
	Options     Options

	score    *music.Score
	sum      string
	source   timeline.Source
	resolver *section.Resolver
}

// Result is one planned edit.
type Result struct {
	Command  string
	Actions  edit.Actions
	Cuts     []edit.CutPoint
	Contract *edit.Contract
}

func New(backend audio.Backend, d *diag.Collector, opts Options) *Session {
	id := uuid.New()
	if nil != d && d.Session == "" {
		d.Session = id.String()[:8]
	}
	return &Session{
		ID:          id,
		Backend:     backend,
		Interpreter: &command.KeywordInterpreter{Diag: d},
		Diag:        d,
		Options:     opts,
	}
}

func (s *Session) clear() {
	s.score, s.sum, s.source, s.resolver = nil, "", timeline.Source{}, nil
}

// Load parses the score and, when tempoMap is not empty, the beat map that
// then becomes the timing source.
func (s *Session) Load(scorePath, tempoMapPath string) error {
	s.clear()
	p := s.Parser
	if nil == p {
		var err error
		if p, err = parser.ForFile(scorePath); nil != err {
			return err
		}
	}
	score, err := p.Parse(scorePath)
	if nil != err {
		return err
	}
	var beats *timeline.BeatTimeline
	if tempoMapPath != "" {
		if beats, err = timeline.LoadBeatTimeline(tempoMapPath); nil != err {
			return err
		}
	}
	return s.LoadScore(score, beats)
}

// LoadScore rebuilds every derived structure from a parsed score. A beat
// map wins over the score's own tempo markings.
func (s *Session) LoadScore(score *music.Score, beats *timeline.BeatTimeline) error {
	s.clear()
	if nil == score {
		return errs.New(errs.ScoreSource, "no score")
	}

	var source timeline.Source
	if nil != beats {
		source = timeline.FromBeats(beats)
		s.Diag.Debugf(stage, "using the tempo map, %d measures, %s, offset %.3fs, adjusted duration %.3fs",
			len(beats.Measures), beats.TempoRange(), beats.InitialOffset, beats.AdjustedDuration())
	} else {
		tempo := s.Options.DefaultTempo
		if tempo <= 0 {
			tempo = timeline.DefaultTempo
		}
		changes := timeline.TempoChanges(score.Measures, tempo)
		kind := timeline.ConstantTempo
		if timeline.HasTempoChanges(changes) {
			kind = timeline.ScoreTempoMap
		}
		tl, err := timeline.BuildTempoTimeline(score.Measures, score.Signature, changes)
		if nil != err {
			return err
		}
		if tl.Countdown {
			s.Diag.Debugf(stage, "measure 1 is a countdown, content starts at measure %d", tl.FirstContentMeasure())
		}
		source = timeline.FromTempo(kind, tl)
		s.Diag.Debugf(stage, "using the %v, %d tempo changes, %s, %.2fs", kind, len(changes), tl.Signature, tl.Duration())
	}

	s.Diag.Debugf(stage, "score %q declares %s", score.Title, strings.Join(score.SectionNames(), ", "))
	s.score = score
	s.sum = history.HashScore(score)
	s.source = source
	s.resolver = section.NewResolver(source, score.Sections, s.Diag)
	return nil
}

func (s *Session) Score() *music.Score {
	return s.score
}

// ScoreSum identifies the loaded score in the edit history.
func (s *Session) ScoreSum() string {
	return s.sum
}

func (s *Session) Source() timeline.Source {
	return s.source
}

// Timings is empty until a score is loaded.
func (s *Session) Timings() section.Timings {
	if nil == s.resolver {
		return section.Timings{}
	}
	return s.resolver.ResolveAll()
}

// Plan interprets a command and plans the edit. total is the length of the
// recording in seconds, zero when unknown.
func (s *Session) Plan(text string, total float64) (*Result, error) {
	if nil == s.resolver {
		return nil, errs.New(errs.ScoreSource, "no score loaded")
	}
	timings := s.resolver.ResolveAll()
	actions, err := s.Interpreter.Interpret(text, timings.Names())
	if nil != err {
		return nil, err
	}
	result, err := s.Edit(actions, total)
	if nil != err {
		return nil, err
	}
	result.Command = text
	return result, nil
}

// Edit plans already validated actions.
func (s *Session) Edit(actions edit.Actions, total float64) (*Result, error) {
	if nil == s.resolver {
		return nil, errs.New(errs.ScoreSource, "no score loaded")
	}
	timings := s.resolver.ResolveAll()
	cuts, err := (&edit.Planner{Diag: s.Diag}).Plan(actions, timings)
	if nil != err {
		return nil, err
	}
	opts := s.Options.Edit
	opts.TotalDuration = total
	contract, err := edit.BuildContract(actions, timings, s.source, opts)
	if nil != err {
		return nil, err
	}
	return &Result{Actions: actions, Cuts: cuts, Contract: contract}, nil
}

// Render decodes the recording, plans the command against its length and
// splices it.
func (s *Session) Render(audioPath, text string) (*Result, *audio.Clip, error) {
	if nil == s.Backend {
		return nil, nil, errs.New(errs.AudioBackend, "no audio backend")
	}
	clip, err := s.Backend.Load(audioPath)
	if nil != err {
		return nil, nil, err
	}
	result, err := s.Plan(text, clip.Duration().Seconds())
	if nil != err {
		return nil, nil, err
	}
	edited, err := s.Backend.Splice(clip, result.Contract)
	if nil != err {
		return nil, nil, err
	}
	return result, edited, nil
}

// RemappedBeats is the tempo map of the edited recording, nil unless the
// session is timed by a tempo map.
func (s *Session) RemappedBeats(result *Result) []music.BeatSample {
	if s.source.Kind != timeline.ExternalBeatMap || nil == s.source.Beats || nil == result {
		return nil
	}
	return s.source.Beats.RemapBeats(result.Contract.Spans())
}

// Record journals an applied edit. Without a journal it does nothing.
func (s *Session) Record(result *Result, output string) error {
	if nil == s.Journal || nil == result {
		return nil
	}
	kept := make([]string, len(result.Contract.Intervals))
	for i, iv := range result.Contract.Intervals {
		kept[i] = iv.Section
	}
	return s.Journal.Record(&history.Entry{
		Session:  s.ID,
		ScoreSum: s.sum,
		Command:  result.Command,
		Kept:     kept,
		Cuts:     result.Cuts,
		Output:   output,
	})
}
