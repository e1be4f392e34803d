package oneview

import (
	"errors"
	"fmt"
)

// ErrCodeResourceNotFound is the OneView errorCode for a missing resource.
const ErrCodeResourceNotFound = "RESOURCE_NOT_FOUND"

// ErrorKind classifies backend failures for the Redfish error translator.
type ErrorKind int

const (
	// KindInternal covers every failure that is not a classified backend condition.
	KindInternal ErrorKind = iota
	// KindNotFound means OneView reported the requested resource as absent.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	default:
		return "Internal"
	}
}

// Error is the error body returned by the OneView REST API.
type Error struct {
	Code               string   `json:"errorCode"`
	Message            string   `json:"message"`
	Details            string   `json:"details,omitempty"`
	RecommendedActions []string `json:"recommendedActions,omitempty"`

	// StatusCode is the HTTP status OneView answered with, zero when unknown.
	StatusCode int `json:"-"`
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("oneview: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("oneview: %s: %s", e.Code, e.Message)
}

// Kind maps the OneView errorCode to an ErrorKind.
func (e *Error) Kind() ErrorKind {
	if e.Code == ErrCodeResourceNotFound {
		return KindNotFound
	}
	return KindInternal
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) ErrorKind {
	var ovErr *Error
	if errors.As(err, &ovErr) {
		return ovErr.Kind()
	}
	return KindInternal
}
