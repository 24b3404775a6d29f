package services

import (
	"errors"
	"fmt"
)

// Error kinds recorded as the prefix of a failed upload's error text.
const (
	ErrorKindParsing     = "ParsingError"
	ErrorKindImageFetch  = "ImageFetchError"
	ErrorKindPersistence = "PersistenceError"
	ErrorKindDispatch    = "DispatchError"
	ErrorKindUnexpected  = "UnexpectedError"
)

const (
	ParsingReasonMalformed     = "malformed document"
	ParsingReasonMissingItems  = "missing item structure"
	ParsingReasonInvalidField  = "invalid field"
	ParsingReasonFieldRequired = "field required"
)

// ParsingError reports a document that could not be normalized into item records.
type ParsingError struct {
	Reason string
	// Field is the source tag, set when Reason is ParsingReasonInvalidField.
	Field string
	// Item is the 1-based position of the offending item.
	Item int
	Err  error
}

func (e *ParsingError) Error() string {
	if e.Field != "" {
		detail := ParsingReasonFieldRequired
		if e.Err != nil {
			detail = e.Err.Error()
		}
		return fmt.Sprintf("%s %s in item %d: %s", e.Reason, e.Field, e.Item, detail)
	}
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ParsingError) Unwrap() error {
	return e.Err
}

// ImageFetchError reports an image that could not be downloaded or stored.
type ImageFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ImageFetchError) Error() string {
	msg := "unable to download image from " + e.URL
	switch {
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	case e.StatusCode != 0:
		msg += fmt.Sprintf(": unexpected status %d", e.StatusCode)
	}
	return msg
}

func (e *ImageFetchError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed atomic save of an upload's items.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "failed to save feed items: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies err into one of the ErrorKind constants.
func ErrorKind(err error) string {
	var parsingErr *ParsingError
	var imageErr *ImageFetchError
	var persistenceErr *PersistenceError

	switch {
	case errors.As(err, &parsingErr):
		return ErrorKindParsing
	case errors.As(err, &imageErr):
		return ErrorKindImageFetch
	case errors.As(err, &persistenceErr):
		return ErrorKindPersistence
	default:
		return ErrorKindUnexpected
	}
}

// FailureMessage renders the error text stored on a failed upload.
func FailureMessage(err error) string {
	return ErrorKind(err) + ": " + err.Error()
}
