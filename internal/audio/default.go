package audio

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"

	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/edit"
	"git.lost.host/meutraa/recut/internal/errs"
)

const stage = "audio"

// PreviewWindow is how many seconds around an edit point are played.
const PreviewWindow = 5.0

type DefaultBackend struct {
	Diag *diag.Collector
}

func (b *DefaultBackend) Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, errs.Wrap(errs.AudioBackend, errors.WithStack(err), "unable to open %s", path)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, errs.New(errs.AudioBackend, "unsupported audio file %s, use wav, mp3 or ogg", path)
	}
	if nil != err {
		f.Close()
		return nil, errs.Wrap(errs.AudioBackend, errors.WithStack(err), "unable to decode %s", path)
	}
	defer streamer.Close()

	clip := &Clip{Format: format}
	buf := make([][2]float64, 4096)
	for {
		n, ok := streamer.Stream(buf)
		clip.Samples = append(clip.Samples, buf[:n]...)
		if !ok {
			break
		}
	}
	if err := streamer.Err(); nil != err {
		return nil, errs.Wrap(errs.AudioBackend, errors.WithStack(err), "unable to decode %s", path)
	}
	b.Diag.Debugf(stage, "loaded %s, %v at %d Hz", path, clip.Duration(), format.SampleRate)
	return clip, nil
}

// EqualPower returns the gains of the outgoing and incoming signal at
// step i of an n step crossfade. The squares always sum to one.
func EqualPower(i, n int) (out, in float64) {
	if n <= 0 {
		return 0, 1
	}
	t := float64(i) / float64(n) * math.Pi / 2
	return math.Cos(t), math.Sin(t)
}

func fadeIn(samples [][2]float64, n int) {
	if n > len(samples) {
		n = len(samples)
	}
	for i := 0; i < n; i++ {
		g := float64(i) / float64(n)
		samples[i][0] *= g
		samples[i][1] *= g
	}
}

func fadeOut(samples [][2]float64, n int) {
	if n > len(samples) {
		n = len(samples)
	}
	start := len(samples) - n
	for i := 0; i < n; i++ {
		g := float64(n-i-1) / float64(n)
		samples[start+i][0] *= g
		samples[start+i][1] *= g
	}
}

func (b *DefaultBackend) Splice(clip *Clip, contract *edit.Contract) (*Clip, error) {
	if nil == contract || len(contract.Intervals) == 0 {
		return nil, errs.New(errs.EmptyEdit, "nothing to splice")
	}
	sr := clip.Format.SampleRate
	samplesOf := func(seconds float64) int {
		return sr.N(time.Duration(seconds * float64(time.Second)))
	}

	pieces := make([][][2]float64, len(contract.Intervals))
	for i, iv := range contract.Intervals {
		from, to := clip.Index(iv.StartTime), clip.Index(iv.EndTime)
		if to <= from {
			return nil, errs.New(errs.AudioBackend, "section %s at %.3fs-%.3fs is outside the %v of audio",
				iv.Section, iv.StartTime, iv.EndTime, clip.Duration())
		}
		pieces[i] = make([][2]float64, to-from)
		copy(pieces[i], clip.Samples[from:to])
	}
	if nil != contract.FadeIn {
		fadeIn(pieces[0], samplesOf(contract.FadeIn.Duration))
	}
	if nil != contract.FadeOut {
		fadeOut(pieces[len(pieces)-1], samplesOf(contract.FadeOut.Duration))
	}

	out := pieces[0]
	for i, piece := range pieces[1:] {
		n := 0
		if i < len(contract.Crossfades) {
			n = samplesOf(contract.Crossfades[i].Duration)
		}
		if n > len(out) {
			n = len(out)
		}
		if n > len(piece) {
			n = len(piece)
		}
		tail := out[len(out)-n:]
		for j := 0; j < n; j++ {
			g0, g1 := EqualPower(j, n)
			tail[j][0] = tail[j][0]*g0 + piece[j][0]*g1
			tail[j][1] = tail[j][1]*g0 + piece[j][1]*g1
		}
		out = append(out, piece[n:]...)
	}

	spliced := &Clip{Format: clip.Format, Samples: out}
	b.Diag.Debugf(stage, "spliced %d intervals into %v", len(pieces), spliced.Duration())
	return spliced, nil
}

func (b *DefaultBackend) Save(path string, clip *Clip) error {
	f, err := os.Create(path)
	if nil != err {
		return errs.Wrap(errs.AudioBackend, errors.WithStack(err), "unable to create %s", path)
	}
	format := clip.Format
	if format.NumChannels == 0 {
		format.NumChannels = 2
	}
	if format.Precision == 0 {
		format.Precision = 2
	}
	if err := wav.Encode(f, clip.Streamer(), format); nil != err {
		f.Close()
		return errs.Wrap(errs.AudioBackend, errors.WithStack(err), "unable to encode %s", path)
	}
	if err := f.Close(); nil != err {
		return errs.Wrap(errs.AudioBackend, errors.WithStack(err), "unable to write %s", path)
	}
	return nil
}

func (b *DefaultBackend) PreviewAt(clip *Clip, position, window float64, stop <-chan struct{}) error {
	if window <= 0 {
		window = PreviewWindow
	}
	part := clip.Window(position, window)
	if part.Len() == 0 {
		return errs.New(errs.AudioBackend, "nothing to play around %.2fs", position)
	}
	b.Diag.Debugf(stage, "previewing %v around %.2fs", part.Duration(), position)
	return b.Preview(part, stop)
}

func (b *DefaultBackend) Preview(clip *Clip, stop <-chan struct{}) error {
	sr := clip.Format.SampleRate
	if err := speaker.Init(sr, sr.N(time.Second/10)); nil != err {
		return errs.Wrap(errs.AudioBackend, errors.WithStack(err), "unable to open speaker")
	}

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: beep.Seq(clip.Streamer(), beep.Callback(func() {
		close(done)
	}))}
	speaker.Play(ctrl)

	select {
	case <-done:
	case <-stop:
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
	}
	return nil
}
