package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the root of every fatal configuration error.
// Configuration errors are reported immediately and never retried.
var ErrConfiguration = errors.New("configuration error")

var (
	// ErrIndexUnavailable signals a missing or unreadable index artifact or registry record.
	ErrIndexUnavailable = configError("index unavailable")
	// ErrVocabularyMismatch signals vectors built against a different vocabulary version.
	ErrVocabularyMismatch = configError("vocabulary version mismatch")
	// ErrEmptyTraining signals an attempt to train an index with zero vectors.
	ErrEmptyTraining = configError("cannot train index on zero vectors")
	// ErrCorruptArtifact signals an index artifact or ordinal table that fails validation.
	ErrCorruptArtifact = configError("corrupt index artifact")
)

var (
	// ErrNotFound signals a missing catalog resource.
	ErrNotFound = errors.New("not found")
	// ErrDataUnavailable signals that the item store kept failing after bounded retries.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrNotTrained signals an add or search against an untrained index.
	ErrNotTrained = errors.New("index not trained")
	// ErrInvalidItem signals a catalog record that fails validation.
	ErrInvalidItem = errors.New("invalid catalog item")
)

// kindError is a sentinel that also matches its parent kind via errors.Is.
type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }

func configError(msg string) error {
	return &kindError{msg: msg, parent: ErrConfiguration}
}

// IsConfiguration reports whether err is a fatal configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// VocabularyMismatchError carries both versions involved in a mismatch.
type VocabularyMismatchError struct {
	Want string
	Got  string
}

func (e *VocabularyMismatchError) Error() string {
	return fmt.Sprintf("%s: want %q, got %q", ErrVocabularyMismatch.Error(), e.Want, e.Got)
}

func (e *VocabularyMismatchError) Unwrap() error { return ErrVocabularyMismatch }

// NewVocabularyMismatch creates a vocabulary mismatch error.
func NewVocabularyMismatch(want, got string) error {
	return &VocabularyMismatchError{Want: want, Got: got}
}
