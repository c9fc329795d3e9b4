package services

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const (
	photoIDPrefix     = "pht_"
	eventIDPrefix     = "evt_"
	idHexLength       = 12
	shareTokenLength  = 8
	maxFilenameLength = 80
	maxKeySegment     = 64
	defaultFilename   = "photo.jpg"
)

// NewPhotoID returns a fresh photo identifier.
func NewPhotoID() string {
	return photoIDPrefix + randomHex(idHexLength)
}

// NewEventID returns a fresh event identifier.
func NewEventID() string {
	return eventIDPrefix + randomHex(idHexLength)
}

// NewShareToken returns a fresh public share token.
func NewShareToken() string {
	return randomHex(shareTokenLength)
}

func randomHex(n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:n]
}

// ObjectKeyGenerator mints collision-free blob keys for one server node.
type ObjectKeyGenerator struct {
	node *snowflake.Node
}

// NewObjectKeyGenerator constructs a generator for node id 0..1023.
func NewObjectKeyGenerator(nodeID int64) (*ObjectKeyGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}
	return &ObjectKeyGenerator{node: node}, nil
}

// Next returns events/{event}/photos/{device}/{unix_ms}-{sequence}-{filename}.
func (g *ObjectKeyGenerator) Next(eventID, deviceID, filename string, now time.Time) string {
	return fmt.Sprintf("events/%s/photos/%s/%d-%s-%s",
		keySegment(eventID),
		keySegment(deviceID),
		now.UnixMilli(),
		g.node.Generate().Base36(),
		SanitizeFilename(filename),
	)
}

// SanitizeFilename reduces a client filename to a safe object key suffix.
func SanitizeFilename(filename string) string {
	return sanitize(filename, defaultFilename)
}

func sanitize(value, fallback string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(value), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return fallback
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	cleaned := strings.Trim(b.String(), "-.")
	if cleaned == "" {
		return fallback
	}
	if len(cleaned) > maxFilenameLength {
		ext := path.Ext(cleaned)
		if len(ext) > 10 {
			ext = ""
		}
		cleaned = cleaned[:maxFilenameLength-len(ext)] + ext
	}
	return cleaned
}

func keySegment(value string) string {
	segment := sanitize(value, "unknown")
	if len(segment) > maxKeySegment {
		segment = segment[:maxKeySegment]
	}
	return segment
}
