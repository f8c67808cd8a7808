package schema

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// ParseDataURI splits an RFC 2397 data URI into its media type and payload.
// The media type defaults to text/plain when omitted.
func ParseDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("expected data: URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URI missing ',' separator")
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta = m
		isBase64 = true
	}
	mediaType, _, _ = strings.Cut(meta, ";")
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, errors.New("data URI has invalid base64 payload")
		}
		return mediaType, data, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, errors.New("data URI has invalid percent-encoding")
	}
	return mediaType, []byte(decoded), nil
}
