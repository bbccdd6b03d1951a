// Package ingest implements the message ingestion pipeline: stable identity
// hashing, normalization of raw transport records into canonical rows, and
// the normalize → hash → store sequence shared by backfill and live paths.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MessageKey returns the deduplication key for a message: the hex-encoded
// SHA-256 of "<message id>_<chat id>_<text>". Platform message ids are only
// unique within a chat, so the chat id is part of the identity; the text is
// included so an edited redelivery counts as a distinct message.
func MessageKey(messageID, chatID int64, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d_%d_%s", messageID, chatID, text)))
	return hex.EncodeToString(sum[:])
}
