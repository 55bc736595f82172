package analysis

import "errors"

// Kind classifies an analysis failure.
type Kind string

const (
	KindNoAssets          Kind = "no_assets"
	KindInvalidMedium     Kind = "invalid_medium"
	KindMissingCredential Kind = "missing_credential"
	KindInvalidOutput     Kind = "invalid_output"
	KindInvalidKey        Kind = "invalid_key"
	KindRateLimited       Kind = "rate_limited"
	KindEmptyResponse     Kind = "empty_response"
	KindUpstream          Kind = "upstream"
	KindTransport         Kind = "transport"
)

// Error carries a localized, display-ready message alongside the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or the empty string when err is not an
// analysis error.
func KindOf(err error) Kind {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return ""
}
