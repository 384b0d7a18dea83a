package util

import "errors"

var (
	ErrEngineUnavailable = errors.New("extraction engine unavailable")
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
)
