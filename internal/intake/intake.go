package intake

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nmoreau/go-image-pipeline/internal/storage"
)

// FieldName is the only multipart field accepted for uploads.
const FieldName = "imageFile"

// parseMemoryLimit bounds how much of the multipart body is held in memory
// before spilling to a temp file; it is not the upload size limit.
const parseMemoryLimit = 32 << 20

var (
	ErrNoFile               = errors.New("no file provided")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFileTooLarge         = errors.New("file too large")
)

// Handle references an uploaded original in the originals storage area.
type Handle struct {
	StorageKey       string
	MimeType         string
	SizeBytes        int64
	OriginalFileName string
}

// Intake validates a multipart upload and persists the accepted original.
// It never touches the metadata store.
type Intake struct {
	originals storage.BlobStore
	maxBytes  int64
	allowed   map[string]bool
}

func New(originals storage.BlobStore, maxBytes int64, allowedMimeTypes []string) *Intake {
	allowed := make(map[string]bool, len(allowedMimeTypes))
	for _, t := range allowedMimeTypes {
		allowed[t] = true
	}
	return &Intake{originals: originals, maxBytes: maxBytes, allowed: allowed}
}

// Ingest accepts exactly one file part named FieldName, validates its declared
// MIME type and size, and writes the raw bytes to the originals area under a
// freshly generated key. Validation happens before any durable write, so a
// rejected upload leaves zero bytes in storage.
func (i *Intake) Ingest(r *http.Request) (*Handle, error) {
	if err := r.ParseMultipartForm(parseMemoryLimit); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoFile, "request is not a valid multipart form")
	}

	files := r.MultipartForm.File[FieldName]
	if len(files) != 1 {
		return nil, ErrNoFile
	}
	header := files[0]

	mimeType := header.Header.Get("Content-Type")
	if !i.allowed[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mimeType)
	}
	if header.Size > i.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, header.Size)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening uploaded file: %w", err)
	}
	defer file.Close()

	key := storage.NewKey(FieldName, header.Filename)
	if err := i.originals.Put(r.Context(), key, mimeType, file); err != nil {
		return nil, fmt.Errorf("storing original: %w", err)
	}

	log.Info().
		Str("key", key).
		Str("mimeType", mimeType).
		Int64("sizeBytes", header.Size).
		Msg("original stored")

	return &Handle{
		StorageKey:       key,
		MimeType:         mimeType,
		SizeBytes:        header.Size,
		OriginalFileName: header.Filename,
	}, nil
}
