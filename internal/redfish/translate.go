package redfish

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/oneview"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/subscription"
)

var (
	// ErrMalformedJSON wraps request body decoding failures.
	ErrMalformedJSON = errors.New("malformed JSON request body")

	// ErrMethodNotAllowed is reported for a known path requested with an unsupported method.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// ResourceNotFoundError is reported for request paths that map to no resource.
type ResourceNotFoundError struct {
	URI string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found", e.URI)
}

// ErrorResponse maps any error raised while serving a request to the HTTP status and
// Redfish error document sent back to the client. Only classified conditions carry
// their own message; everything else gets the fixed internal error text.
func ErrorResponse(err error) (int, *RedfishError) {
	var (
		ovErr   *oneview.Error
		valErr  *subscription.ValidationError
		missErr *ResourceNotFoundError
	)

	switch {
	case errors.As(err, &ovErr):
		switch ovErr.Kind() {
		case oneview.KindNotFound:
			return http.StatusNotFound, NewRedfishError(MsgGeneralError, ovErr.Message).
				AddExtendedInfo(MsgGeneralError)
		default:
			return internalError()
		}

	case errors.As(err, &valErr):
		return http.StatusBadRequest, validationError(valErr)

	case errors.Is(err, ErrMalformedJSON):
		return http.StatusBadRequest, NewRedfishError(MsgGeneralError, ErrMalformedJSON.Error()).
			AddExtendedInfo(MsgMalformedJSON)

	case errors.As(err, &missErr):
		return http.StatusNotFound, NewRedfishError(MsgGeneralError, missErr.Error()).
			AddExtendedInfo(MsgResourceMissingAtURI, missErr.URI)

	case errors.Is(err, subscription.ErrNotFound):
		return http.StatusNotFound, NewRedfishError(MsgGeneralError, err.Error()).
			AddExtendedInfo(MsgGeneralError)

	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, NewRedfishError(MsgGeneralError, err.Error()).
			AddExtendedInfo(MsgGeneralError)

	default:
		return internalError()
	}
}

func internalError() (int, *RedfishError) {
	return http.StatusInternalServerError, NewRedfishError(MsgInternalError, internalMessage).
		AddExtendedInfo(MsgInternalError)
}

func validationError(e *subscription.ValidationError) *RedfishError {
	re := NewRedfishError(MsgGeneralError, e.Error())
	switch {
	case e.Missing:
		return re.AddExtendedInfo(MsgPropertyMissing, e.Property)
	case e.Format:
		return re.AddExtendedInfo(MsgPropertyValueFormatError, e.Value, e.Property)
	default:
		return re.AddExtendedInfo(MsgPropertyValueNotInList, e.Value, e.Property)
	}
}
