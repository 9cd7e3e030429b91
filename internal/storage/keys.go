package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"
)

// ProcessedKeyPrefix derives the processed key from the original key, keeping
// the 1:1 relationship discoverable while staying globally unique.
const ProcessedKeyPrefix = "processed-"

// NewKey generates a globally unique storage key for an uploaded file:
// "<field>-<unix millis>-<64 random bits, hex><original extension>".
// The random component makes collisions between uploads landing in the same
// millisecond negligible; user input only contributes the extension.
func NewKey(field, originalName string) string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixMilli(), hex.EncodeToString(buf[:]), ext)
}

func ProcessedKey(originalKey string) string {
	return ProcessedKeyPrefix + originalKey
}
