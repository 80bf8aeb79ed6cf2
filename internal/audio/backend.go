package audio

import (
	"git.lost.host/meutraa/recut/internal/edit"
)

// Backend does the sample work the edit contract describes.
type Backend interface {
	Load(path string) (*Clip, error)
	Splice(clip *Clip, contract *edit.Contract) (*Clip, error)
	Save(path string, clip *Clip) error
	// Preview blocks until playback ends or stop is closed.
	Preview(clip *Clip, stop <-chan struct{}) error
	// PreviewAt plays window seconds centred on position.
	PreviewAt(clip *Clip, position, window float64, stop <-chan struct{}) error
}
