package models

import "errors"

// Common validation errors for models.
var (
	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrStreamURLRequired indicates a required stream URL field is empty.
	ErrStreamURLRequired = errors.New("stream_url is required")

	// ErrInvalidChannelType indicates an unrecognized channel type value.
	ErrInvalidChannelType = errors.New("invalid channel type: must be 'live', 'vod', 'series' or 'unknown'")

	// ErrGroupNameRequired indicates a required group name field is empty.
	ErrGroupNameRequired = errors.New("group name is required")
)
