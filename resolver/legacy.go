// ABOUTME: This file implements the offline decoder for the older binary identifier format
// ABOUTME: Pure byte slicing over the base64-decoded identifier, no network I/O
package resolver

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
)

var (
	legacyPayloadPrefix = []byte{0x08, 0x13, 0x22}
	legacyPayloadSuffix = []byte{0xd2, 0x01, 0x00}
)

// LegacyDecoder decodes identifiers in the pre-RPC format, where the target
// URL is embedded as a length-prefixed string inside the base64 payload.
type LegacyDecoder struct {
	logger *slog.Logger
}

func NewLegacyDecoder(logger *slog.Logger) *LegacyDecoder {
	return &LegacyDecoder{logger: logger}
}

func (d *LegacyDecoder) Name() string {
	return "legacy"
}

func (d *LegacyDecoder) Attempt(_ context.Context, rc *ResolutionContext) (string, error) {
	return d.Decode(rc.Identifier), nil
}

// Decode returns the embedded URL or "" when the identifier is not in the
// legacy format. Identifiers carrying the current-format marker are rejected
// outright; they can only be resolved through the RPC path.
func (d *LegacyDecoder) Decode(identifier string) string {
	if strings.HasPrefix(identifier, currentFormatMarker) {
		return ""
	}

	raw, err := decodeBase64Lenient(identifier)
	if err != nil {
		return ""
	}

	raw = bytes.TrimPrefix(raw, legacyPayloadPrefix)
	raw = bytes.TrimSuffix(raw, legacyPayloadSuffix)
	if len(raw) == 0 {
		return ""
	}

	// Length-prefixed string field: a first byte with the continuation bit
	// set means the header is two bytes wide.
	length := int(raw[0])
	offset := 1
	if length >= 0x80 {
		offset = 2
	}
	if offset+length > len(raw) {
		return ""
	}

	candidate := string(raw[offset : offset+length])
	if !isValidCandidate(candidate) {
		return ""
	}

	d.logger.Debug("decoded legacy identifier", "url", candidate)
	return candidate
}

// decodeBase64Lenient tries standard then URL-safe base64, tolerating
// missing padding in both alphabets.
func decodeBase64Lenient(s string) ([]byte, error) {
	trimmed := strings.TrimRight(s, "=")

	raw, err := base64.RawStdEncoding.DecodeString(trimmed)
	if err == nil {
		return raw, nil
	}

	return base64.RawURLEncoding.DecodeString(trimmed)
}
