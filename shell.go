package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"git.lost.host/meutraa/recut/internal/audio"
	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/render"
	"git.lost.host/meutraa/recut/internal/session"
	"git.lost.host/meutraa/recut/internal/timeline"
)

const shellHelp = `  sections              show the sections and their timing
  plan <command>        show the cuts, for example "plan remove intro and verse 2"
  render <command>      apply the command to the recording and save it
  play [n]              play the last render, or 5s around its nth join, Esc stops
  beat <n>              where beat n and its downbeat are in the recording
  output <file>         change where renders are written
  help                  this text
  quit                  leave the shell
A line without a keyword is planned.`

// shell reads edit commands until EOF. Errors from a command are printed
// and the loop carries on.
func shell(s *session.Session, r render.Renderer, backend audio.Backend, audioPath, output string, verbose bool) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "recut> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("sections"),
			readline.PcItem("plan"),
			readline.PcItem("render"),
			readline.PcItem("play"),
			readline.PcItem("beat"),
			readline.PcItem("output"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if nil != err {
		return fmt.Errorf("unable to open shell: %w", err)
	}
	defer rl.Close()

	var last *rendered
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if nil != err {
			return fmt.Errorf("unable to read command: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		word, rest := line, ""
		if i := strings.IndexByte(line, ' '); i > 0 {
			word, rest = line[:i], strings.TrimSpace(line[i+1:])
		}

		switch strings.ToLower(word) {
		case "quit", "exit":
			return nil
		case "help", "?":
			fmt.Println(shellHelp)
		case "sections":
			timings := s.Timings()
			r.Sections(timings)
			r.StructureBar(timings, nil)
		case "plan":
			err = plan(s, r, rest)
		case "render":
			if audioPath == "" {
				err = fmt.Errorf("no recording given, start the shell with a score and an audio file")
				break
			}
			var result *rendered
			if result, err = renderEdit(s, r, audioPath, rest, output); nil == err {
				last = result
			}
		case "play":
			if nil == last {
				err = fmt.Errorf("nothing rendered yet")
				break
			}
			err = play(backend, last, rest)
		case "beat":
			err = locateBeat(s, rest)
		case "output":
			if rest == "" {
				fmt.Println(output)
				break
			}
			output = rest
		default:
			err = plan(s, r, line)
		}
		if nil != err {
			s.Diag.Errorf("shell", "%v", err)
		}
		if !verbose {
			r.Diagnostics(append(s.Diag.Filter(diag.Warn), s.Diag.Filter(diag.Error)...))
		}
		s.Diag.Reset()
	}
}

// play previews the whole render, or the window around one join when n
// is given.
func play(backend audio.Backend, last *rendered, n string) error {
	if n == "" {
		return preview(last.clip.Duration().Seconds(), func(stop <-chan struct{}) error {
			return backend.Preview(last.clip, stop)
		})
	}
	joins := last.Contract.JoinPoints()
	i, err := strconv.Atoi(n)
	if nil != err || i < 1 || i > len(joins) {
		return fmt.Errorf("join %q not found, the render has %d", n, len(joins))
	}
	fmt.Printf("Join %d at %s\n", i, render.Clock(joins[i-1]))
	return preview(audio.PreviewWindow, func(stop <-chan struct{}) error {
		return backend.PreviewAt(last.clip, joins[i-1], audio.PreviewWindow, stop)
	})
}

func locateBeat(s *session.Session, n string) error {
	source := s.Source()
	if source.Kind != timeline.ExternalBeatMap {
		return fmt.Errorf("beats are only known with a tempo map")
	}
	beat, err := strconv.ParseFloat(n, 64)
	if nil != err {
		return fmt.Errorf("invalid beat %q", n)
	}
	b := source.Beats
	at, ok := b.BeatTime(beat)
	if !ok {
		return fmt.Errorf("beat %v is not in the tempo map", beat)
	}
	fmt.Printf("Beat %v at %s", beat, render.Clock(at+b.InitialOffset))
	if down, ok := b.NearestStrongBeat(beat); ok {
		downAt, _ := b.BeatTime(down)
		fmt.Printf(", nearest downbeat %v at %s", down, render.Clock(downAt+b.InitialOffset))
	}
	fmt.Println()
	return nil
}
