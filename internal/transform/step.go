package transform

import (
	"image"

	"github.com/nmoreau/go-image-pipeline/models"
)

// State is the value threaded through the step chain: the in-memory image and
// the encoding quality chosen so far. Steps never mutate their input.
type State struct {
	Image image.Image
	// Quality is the output encoding quality for lossy formats; 0 means the
	// encoder default.
	Quality int
}

// Step is one pure image operation. Apply returns the new state and a
// descriptor of what was done; a failing step aborts the whole chain.
type Step interface {
	Name() string
	Apply(s State) (State, models.Transformation, error)
}

// Config holds the fixed parameters of the transformation chain.
type Config struct {
	TargetWidth int
	Quality     int
	CropX       int
	CropY       int
	CropWidth   int
	CropHeight  int
}

func DefaultConfig() Config {
	return Config{
		TargetWidth: 800,
		Quality:     80,
		CropX:       50,
		CropY:       50,
		CropWidth:   300,
		CropHeight:  300,
	}
}
