// Package gitarmor implements the armored PGP-adjacent Git timestamp
// format: a base64-encoded bare Timestamp body between literal delimiter
// lines, rooted at SHA256 of the commit/tag text with the embedded
// timestamp block itself excluded.
package gitarmor

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

const (
	beginLine = "-----BEGIN OPENTIMESTAMPS GIT TIMESTAMP-----"
	endLine   = "-----END OPENTIMESTAMPS GIT TIMESTAMP-----"
)

// ErrNoBlock is returned when text carries no armored timestamp block.
var ErrNoBlock = errors.New("gitarmor: no OPENTIMESTAMPS GIT TIMESTAMP block found")

// ErrMalformedBlock is returned when a begin delimiter is found with no
// matching end delimiter, or the enclosed body is not valid base64.
var ErrMalformedBlock = errors.New("gitarmor: malformed timestamp block")

// CommitDigest computes the root msg for a commit/tag text: SHA256 of the
// text with any existing armored block (and its delimiter lines)
// stripped, excluding the embedded timestamp block itself.
func CommitDigest(text string) [32]byte {
	stripped := stripBlock(text)
	return sha256.Sum256([]byte(stripped))
}

// Armor renders ts as a delimited, base64-encoded block suitable for
// appending to commit/tag text.
func Armor(ts *ots.Timestamp) (string, error) {
	body, err := ots.EncodeTimestamp(ts)
	if err != nil {
		return "", fmt.Errorf("gitarmor: encode: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(body)

	var b strings.Builder
	b.WriteString(beginLine)
	b.WriteByte('\n')
	for len(encoded) > 0 {
		n := 64
		if n > len(encoded) {
			n = len(encoded)
		}
		b.WriteString(encoded[:n])
		b.WriteByte('\n')
		encoded = encoded[n:]
	}
	b.WriteString(endLine)
	b.WriteByte('\n')
	return b.String(), nil
}

// Extract locates the armored block in text, decodes it against msg (the
// CommitDigest of the enclosing text), and returns the reconstructed
// Timestamp.
func Extract(text string, msg []byte) (*ots.Timestamp, error) {
	body, err := extractBody(text)
	if err != nil {
		return nil, err
	}
	return ots.DecodeTimestamp(msg, body)
}

func extractBody(text string) ([]byte, error) {
	start := strings.Index(text, beginLine)
	if start < 0 {
		return nil, ErrNoBlock
	}
	rest := text[start+len(beginLine):]
	end := strings.Index(rest, endLine)
	if end < 0 {
		return nil, ErrMalformedBlock
	}
	encoded := strings.Join(strings.Fields(rest[:end]), "")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlock, err)
	}
	return decoded, nil
}

func stripBlock(text string) string {
	start := strings.Index(text, beginLine)
	if start < 0 {
		return text
	}
	rest := text[start+len(beginLine):]
	end := strings.Index(rest, endLine)
	if end < 0 {
		return text
	}
	var b bytes.Buffer
	b.WriteString(text[:start])
	b.WriteString(strings.TrimPrefix(rest[end+len(endLine):], "\n"))
	return b.String()
}
