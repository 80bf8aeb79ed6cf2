package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/recut/internal/errs"
	"git.lost.host/meutraa/recut/internal/history"
)

const (
	Analyze = "analyze"
	Plan    = "plan"
	Render  = "render"
	Shell   = "shell"
	History = "history"
)

// Defaults is the optional YAML file read before the command line. Flags
// always win over it.
type Defaults struct {
	Crossfade time.Duration `yaml:"crossfade"`
	FadeIn    bool          `yaml:"fade_in"`
	FadeOut   bool          `yaml:"fade_out"`
	Tempo     float64       `yaml:"tempo"`
	History   string        `yaml:"history"`
	Debug     bool          `yaml:"debug"`
}

var builtin = Defaults{
	Crossfade: 20 * time.Millisecond,
	Tempo:     80,
	History:   history.DefaultPath,
}

type Config struct {
	Command string

	Score    string
	TempoMap string
	Audio    string
	Output   string
	Edit     string

	FadeIn       bool
	FadeOut      bool
	Crossfade    time.Duration
	DefaultTempo float64
	Preview      bool

	History   string
	NoHistory bool
	Debug     bool
}

// LoadDefaults reads a defaults file. A missing file is not an error.
func LoadDefaults(path string) (Defaults, error) {
	d := builtin
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return d, nil
	}
	if nil != err {
		return d, errs.Wrap(errs.Config, err, "unable to read %s", path)
	}
	if err := yaml.Unmarshal(data, &d); nil != err {
		return d, errs.Wrap(errs.Config, err, "unable to decode %s", path)
	}
	return d, nil
}

// configPath finds --config before kingpin runs, so the file can supply
// flag defaults.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(a, "--config=") {
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return "recut.yaml"
}

func boolDefault(b bool) string {
	return strconv.FormatBool(b)
}

// Parse builds the command line application and parses args, without the
// program name.
func Parse(args []string) (*Config, error) {
	defaults, err := LoadDefaults(configPath(args))
	if nil != err {
		return nil, err
	}

	c := &Config{}
	app := kingpin.New("recut", "Cut and reorder the sections of a score and its recording.")
	app.Version("0.3.0")
	app.HelpFlag.Short('h')

	app.Flag("config", "YAML file with default flag values").Default("recut.yaml").String()
	app.Flag("debug", "Print pipeline diagnostics").Default(boolDefault(defaults.Debug)).Short('v').BoolVar(&c.Debug)
	app.Flag("tempo-map", "Tab separated beat, time, type file").Short('t').ExistingFileVar(&c.TempoMap)
	app.Flag("default-tempo", "Tempo used when the score has no marking").Default(strconv.FormatFloat(defaults.Tempo, 'f', -1, 64)).Float64Var(&c.DefaultTempo)
	app.Flag("history", "Edit history database").Default(defaults.History).StringVar(&c.History)
	app.Flag("no-history", "Do not record edits").BoolVar(&c.NoHistory)

	editFlags := func(cmd *kingpin.CmdClause) {
		cmd.Flag("command", "Edit command, for example \"remove Intro and Verse 2\"").Short('c').Required().StringVar(&c.Edit)
		cmd.Flag("fade-in", "Widen the first kept section and fade it in").Default(boolDefault(defaults.FadeIn)).BoolVar(&c.FadeIn)
		cmd.Flag("fade-out", "Widen the last kept section and fade it out").Default(boolDefault(defaults.FadeOut)).BoolVar(&c.FadeOut)
		cmd.Flag("crossfade", "Crossfade between joined sections").Default(defaults.Crossfade.String()).DurationVar(&c.Crossfade)
	}

	analyze := app.Command(Analyze, "Show the sections and their timing")
	analyze.Arg("score", "MIDI or YAML score").Required().ExistingFileVar(&c.Score)

	plan := app.Command(Plan, "Show the cuts an edit command would make")
	plan.Arg("score", "MIDI or YAML score").Required().ExistingFileVar(&c.Score)
	editFlags(plan)

	render := app.Command(Render, "Apply an edit command to a recording")
	render.Arg("score", "MIDI or YAML score").Required().ExistingFileVar(&c.Score)
	render.Arg("audio", "wav, mp3 or ogg recording").Required().ExistingFileVar(&c.Audio)
	render.Flag("output", "Where to write the edited wav").Short('o').Default("edited.wav").StringVar(&c.Output)
	render.Flag("preview", "Play the result, Esc stops").Short('p').BoolVar(&c.Preview)
	editFlags(render)

	shell := app.Command(Shell, "Edit interactively")
	shell.Arg("score", "MIDI or YAML score").Required().ExistingFileVar(&c.Score)
	shell.Arg("audio", "wav, mp3 or ogg recording").ExistingFileVar(&c.Audio)
	shell.Flag("output", "Where to write the edited wav").Short('o').Default("edited.wav").StringVar(&c.Output)
	shell.Flag("fade-in", "Widen the first kept section and fade it in").Default(boolDefault(defaults.FadeIn)).BoolVar(&c.FadeIn)
	shell.Flag("fade-out", "Widen the last kept section and fade it out").Default(boolDefault(defaults.FadeOut)).BoolVar(&c.FadeOut)
	shell.Flag("crossfade", "Crossfade between joined sections").Default(defaults.Crossfade.String()).DurationVar(&c.Crossfade)

	hist := app.Command(History, "List the edits recorded for a score")
	hist.Arg("score", "MIDI or YAML score").Required().ExistingFileVar(&c.Score)

	cmd, err := app.Parse(args)
	if nil != err {
		return nil, errs.Wrap(errs.Config, err, "invalid arguments")
	}
	c.Command = cmd

	if c.DefaultTempo <= 0 {
		return nil, errs.New(errs.Config, "default tempo must be positive, got %v", c.DefaultTempo)
	}
	if c.Crossfade < 0 {
		return nil, errs.New(errs.Config, "crossfade must not be negative, got %v", c.Crossfade)
	}
	return c, nil
}
