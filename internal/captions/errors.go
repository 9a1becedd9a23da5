package captions

import "errors"

var (
	// ErrGeneratorUnavailable indicates no generative model has been configured.
	ErrGeneratorUnavailable = errors.New("caption generator unavailable")
	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("caption generator returned an empty response")
)
