package transcript

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide whether to retry.
type Kind string

const (
	KindRateLimited              Kind = "rate_limited"
	KindUpstreamStructureChanged Kind = "upstream_structure_changed"
	KindNotPlayable              Kind = "not_playable"
	KindNoCaptions               Kind = "no_captions"
	KindUnsupportedProtection    Kind = "unsupported_protection"
	KindEmptyUpstreamResponse    Kind = "empty_upstream_response"
	KindInvalidIdentifier        Kind = "invalid_identifier"
	KindUpstream                 Kind = "upstream_error"
	KindNotFound                 Kind = "not_found"
	KindInvalidQuery             Kind = "invalid_query"
	KindInvalidArgument          Kind = "invalid_argument"
	KindOutOfRange               Kind = "out_of_range"
	KindInternal                 Kind = "internal"
)

// Retryable reports whether the same request may succeed later.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindEmptyUpstreamResponse, KindUpstream:
		return true
	}
	return false
}

// Error is a classified failure tied to a video.
type Error struct {
	Kind    Kind
	VideoID string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	var s string
	if e.VideoID != "" {
		s = fmt.Sprintf("%s [%s]: %s", e.Kind, e.VideoID, e.Msg)
	} else {
		s = fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.VideoID == "" || t.VideoID == e.VideoID)
}

// Errorf builds a classified error without a cause.
func Errorf(kind Kind, videoID, format string, args ...any) *Error {
	return &Error{Kind: kind, VideoID: videoID, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind.
func Wrap(kind Kind, videoID, msg string, cause error) *Error {
	return &Error{Kind: kind, VideoID: videoID, Msg: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
