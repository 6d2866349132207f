// Package datauri converts file content to and from RFC 2397 data URIs,
// the self-describing text form attachments are persisted in.
package datauri

import (
	"encoding/base64"
	"mime"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/statistics102/course-monitor/internal/errors"
)

// Codec turns bytes into a text form and back. The attachment store only
// depends on this interface.
type Codec interface {
	Encode(data []byte, mediaType string) (string, error)
	Decode(text string) ([]byte, string, error)
}

const (
	scheme       = "data:"
	base64Suffix = ";base64"

	// DefaultMediaType applies to URIs whose header names no type.
	DefaultMediaType = "text/plain;charset=US-ASCII"
)

// Base64Codec writes data:<mediatype>;base64,<payload> URIs and reads both
// base64 and percent-encoded URIs.
type Base64Codec struct{}

// NewBase64Codec returns a Base64Codec.
func NewBase64Codec() Base64Codec {
	return Base64Codec{}
}

// Encode renders data as a base64 data URI. An empty or unparsable
// mediaType is replaced by the type sniffed from the content. Encoding
// itself never fails.
func (Base64Codec) Encode(data []byte, mediaType string) (string, error) {
	mt := headerType(data, mediaType)

	var b strings.Builder
	b.Grow(len(scheme) + len(mt) + len(base64Suffix) + 1 + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(scheme)
	b.WriteString(mt)
	b.WriteString(base64Suffix)
	b.WriteByte(',')
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), nil
}

// Decode returns the content and media type carried by a data URI.
func (Base64Codec) Decode(text string) ([]byte, string, error) {
	if !strings.HasPrefix(text, scheme) {
		return nil, "", apperrors.New(apperrors.ErrDecodeFailed, "not a data URI")
	}
	rest := text[len(scheme):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, "", apperrors.New(apperrors.ErrDecodeFailed, "data URI has no payload separator")
	}
	header, payload := rest[:comma], rest[comma+1:]

	isBase64 := false
	if strings.HasSuffix(strings.ToLower(header), base64Suffix) {
		isBase64 = true
		header = header[:len(header)-len(base64Suffix)]
	}
	mediaType := header
	if mediaType == "" {
		mediaType = DefaultMediaType
	}

	if !isBase64 {
		raw, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrDecodeFailed, "invalid percent-encoding", err)
		}
		return []byte(raw), mediaType, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some producers drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrDecodeFailed, "invalid base64 payload", err)
		}
	}
	return data, mediaType, nil
}

// headerType normalizes mediaType for use in a data URI header. The
// header must never contain the payload separator, so parameters are
// dropped when any of them would need quoting.
func headerType(data []byte, mediaType string) string {
	base, params, err := mime.ParseMediaType(strings.TrimSpace(mediaType))
	if err != nil {
		base, params, _ = mime.ParseMediaType(mimetype.Detect(data).String())
	}
	if base == "" {
		return "application/octet-stream"
	}

	full := strings.ReplaceAll(mime.FormatMediaType(base, params), "; ", ";")
	if full == "" || strings.ContainsAny(full, `,"`) {
		return base
	}
	return full
}
