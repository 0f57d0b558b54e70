package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindSiteNotSupported
	KindInvalidArgument
	KindFetch
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindSiteNotSupported:
		return "SiteNotSupported"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindFetch:
		return "FetchError"
	case KindParse:
		return "ParseError"
	default:
		return "BooruError"
	}
}

// Error is the single error family returned to callers. Branch on Kind, unwrap for the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrSiteNotSupported = &Error{Kind: KindSiteNotSupported, Message: "site not supported"}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrFetch            = &Error{Kind: KindFetch, Message: "fetch failed"}
	ErrParse            = &Error{Kind: KindParse, Message: "parse failed"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("booru: %s: %v", e.Message, e.Err)
	}
	return "booru: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause satisfies github.com/pkg/errors' causer.
func (e *Error) Cause() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func SiteNotSupported(site string) error {
	return newError(KindSiteNotSupported, nil, "site not supported: %q", site)
}

func InvalidArgument(format string, args ...any) error {
	return newError(KindInvalidArgument, nil, format, args...)
}

func InvalidArgumentErr(cause error, format string, args ...any) error {
	return newError(KindInvalidArgument, cause, format, args...)
}

func FetchError(cause error, format string, args ...any) error {
	return newError(KindFetch, cause, format, args...)
}

func ParseError(cause error, format string, args ...any) error {
	return newError(KindParse, cause, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
