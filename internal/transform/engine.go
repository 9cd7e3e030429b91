package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/rs/zerolog/log"

	// webp originals are decodable; there is no pure-Go webp encoder, so
	// processed output for webp input is encoded as JPEG.
	_ "golang.org/x/image/webp"

	"github.com/nmoreau/go-image-pipeline/internal/storage"
	"github.com/nmoreau/go-image-pipeline/models"
)

var (
	ErrCorruptImage = errors.New("corrupt or unreadable image")
	ErrFailed       = errors.New("transformation failed")
)

// Handle references the processed binary written by the engine.
type Handle struct {
	StorageKey string
	MimeType   string
	SizeBytes  int64
}

// Engine applies the fixed, ordered transformation chain to a stored original
// and writes the result to the processed storage area. The chain order is
// semantically significant; each step operates on the previous step's output.
type Engine struct {
	originals storage.BlobStore
	processed storage.BlobStore
	steps     []Step
}

func NewEngine(originals, processed storage.BlobStore, cfg Config) *Engine {
	return &Engine{
		originals: originals,
		processed: processed,
		steps: []Step{
			Resize{Width: cfg.TargetWidth},
			Greyscale{},
			Sepia{},
			Rotate{},
			Quality{Level: cfg.Quality},
			Crop{X: cfg.CropX, Y: cfg.CropY, Width: cfg.CropWidth, Height: cfg.CropHeight},
		},
	}
}

// Transform reads the original by storage key, runs every step in order and
// persists the result under the derived processed key. On any failure the
// processed area is left without a partial file; the original may remain as
// an orphan, which is a documented limitation rather than cleaned up here.
func (e *Engine) Transform(ctx context.Context, originalKey string) (*Handle, models.Transformations, error) {
	rc, err := e.originals.Get(ctx, originalKey)
	if err != nil {
		return nil, nil, fmt.Errorf("reading original %s: %w", originalKey, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("reading original %s: %w", originalKey, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrCorruptImage, err)
	}

	state := State{Image: img}
	applied := make(models.Transformations, 0, len(e.steps))
	for _, step := range e.steps {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		next, descriptor, err := step.Apply(state)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %s", ErrFailed, step.Name(), err)
		}
		state = next
		applied = append(applied, descriptor)
	}

	encoded, mimeType, err := encode(state, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encoding %s output: %s", ErrFailed, format, err)
	}

	processedKey := storage.ProcessedKey(originalKey)
	if err := e.processed.Put(ctx, processedKey, mimeType, bytes.NewReader(encoded)); err != nil {
		// best effort: never leave a partial processed blob visible
		if delErr := e.processed.Delete(context.WithoutCancel(ctx), processedKey); delErr != nil {
			log.Warn().Err(delErr).Str("key", processedKey).Msg("could not clean up processed blob")
		}
		return nil, nil, fmt.Errorf("storing processed %s: %w", processedKey, err)
	}

	log.Info().
		Str("originalKey", originalKey).
		Str("processedKey", processedKey).
		Str("mimeType", mimeType).
		Int("steps", len(applied)).
		Msg("image transformed")

	return &Handle{
		StorageKey: processedKey,
		MimeType:   mimeType,
		SizeBytes:  int64(len(encoded)),
	}, applied, nil
}

// encode re-encodes in the original format where possible; webp falls back to
// JPEG. Quality only applies to lossy output.
func encode(s State, format string) ([]byte, string, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, s.Image); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	case "gif":
		if err := gif.Encode(&buf, s.Image, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/gif", nil
	case "jpeg", "webp":
		quality := s.Quality
		if quality == 0 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(&buf, s.Image, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		return nil, "", fmt.Errorf("unsupported image format %q", format)
	}
}
