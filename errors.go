package main

import (
	"errors"
	"fmt"
)

// Error kinds surfaced at the API edge. Handlers map these to
// machine-readable codes, everything else becomes a generic internal error.
var ErrValidation = errors.New("validation error")
var ErrUnauthenticated = errors.New("unauthenticated")
var ErrFeedUnavailable = errors.New("feed unavailable: all providers and cached data exhausted")
var ErrCacheUnavailable = errors.New("cache unavailable")

var ErrTopicCapExceeded = fmt.Errorf("%w: at most %d topics can be selected", ErrValidation, MAX_TOPIC_SELECTIONS)
var ErrTopicAlreadySelected = fmt.Errorf("%w: topic already selected", ErrValidation)
var ErrUnknownTopic = fmt.Errorf("%w: unknown topic", ErrValidation)
var ErrUnknownEnhancementKind = fmt.Errorf("%w: unknown enhancement kind", ErrValidation)
var ErrEmptyText = fmt.Errorf("%w: text must not be empty", ErrValidation)
