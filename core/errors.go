package core

import "errors"

// Startup and run failures. Callers wrap them with the failing resource.
var (
	// ErrInputNotFound: the input file does not exist.
	ErrInputNotFound = errors.New("input not found")
	// ErrFormatMismatch: a file has an unexpected extension or encoding name.
	ErrFormatMismatch = errors.New("format mismatch")
	// ErrConfigMissingSection: a required configuration section is absent.
	ErrConfigMissingSection = errors.New("config section missing")
	// ErrConfigMissingKey: a required configuration key is absent.
	ErrConfigMissingKey = errors.New("config key missing")
	// ErrConfigInvalid: configuration values break a field map invariant.
	ErrConfigInvalid = errors.New("config invalid")
	// ErrTaggerInit: the lemmatizer model could not be loaded.
	ErrTaggerInit = errors.New("tagger initialization failed")
	// ErrSinkWrite: writing to the output sink failed.
	ErrSinkWrite = errors.New("sink write failed")
	// ErrNormalize: a value could not be normalized.
	ErrNormalize = errors.New("normalization failed")
)
