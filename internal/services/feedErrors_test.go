package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"parsing", &ParsingError{Reason: ParsingReasonMalformed}, ErrorKindParsing},
		{"image", &ImageFetchError{URL: "http://x/a.jpg", StatusCode: 404}, ErrorKindImageFetch},
		{"persistence", &PersistenceError{Err: errors.New("deadlock")}, ErrorKindPersistence},
		{"wrapped parsing", fmt.Errorf("normalize: %w", &ParsingError{Reason: ParsingReasonMissingItems}), ErrorKindParsing},
		{"other", errors.New("boom"), ErrorKindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t,
		"ParsingError: invalid field g:id in item 2: field required",
		FailureMessage(&ParsingError{Reason: ParsingReasonInvalidField, Field: "g:id", Item: 2}),
	)
	assert.Equal(t,
		"ImageFetchError: unable to download image from http://img/a.png: unexpected status 500",
		FailureMessage(&ImageFetchError{URL: "http://img/a.png", StatusCode: 500}),
	)
	assert.Equal(t,
		"ParsingError: malformed document: XML syntax error on line 1: unexpected EOF",
		FailureMessage(&ParsingError{
			Reason: ParsingReasonMalformed,
			Err:    errors.New("XML syntax error on line 1: unexpected EOF"),
		}),
	)
}

func TestImageFetchError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := &ImageFetchError{URL: "http://img/a.png", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "unable to download image from http://img/a.png: timeout", err.Error())
}
