package redfish

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	messageType     = "#Message.v1_0_5.Message"
	baseRegistry    = "Base.1.1"
	internalMessage = "The request failed due to an internal service error. The service is still operational."
)

// Redfish Base message ids used by the gateway.
const (
	MsgGeneralError             = "GeneralError"
	MsgInternalError            = "InternalError"
	MsgMalformedJSON            = "MalformedJSON"
	MsgPropertyMissing          = "PropertyMissing"
	MsgPropertyValueNotInList   = "PropertyValueNotInList"
	MsgPropertyValueFormatError = "PropertyValueFormatError"
	MsgResourceMissingAtURI     = "ResourceMissingAtURI"
)

type baseMessage struct {
	text       string
	severity   string
	resolution string
}

var baseMessages = map[string]baseMessage{
	MsgGeneralError: {
		text:       "A general error has occurred. See ExtendedInfo for more information.",
		severity:   "Critical",
		resolution: "See ExtendedInfo for more information.",
	},
	MsgInternalError: {
		text:       internalMessage,
		severity:   "Critical",
		resolution: "Resubmit the request. If the problem persists, consider resetting the service.",
	},
	MsgMalformedJSON: {
		text:       "The request body submitted was malformed JSON and could not be parsed by the receiving service.",
		severity:   "Critical",
		resolution: "Ensure that the request body is valid JSON and resubmit the request.",
	},
	MsgPropertyMissing: {
		text:       "The property %1 is a required property and must be included in the request.",
		severity:   "Warning",
		resolution: "Ensure that the property is in the request body and has a valid value and resubmit the request if the operation failed.",
	},
	MsgPropertyValueNotInList: {
		text:       "The value %1 for the property %2 is not in the list of acceptable values.",
		severity:   "Warning",
		resolution: "Choose a value from the enumeration list that the implementation can support and resubmit the request if the operation failed.",
	},
	MsgPropertyValueFormatError: {
		text:       "The value %1 for the property %2 is of a different format than the property can accept.",
		severity:   "Warning",
		resolution: "Correct the value for the property in the request body and resubmit the request if the operation failed.",
	},
	MsgResourceMissingAtURI: {
		text:       "The resource at the URI %1 was not found.",
		severity:   "Critical",
		resolution: "Place a valid resource at the URI or correct the URI and resubmit the request.",
	},
}

// RedfishError is the error document returned for every failed request.
type RedfishError struct {
	Error RedfishErrorBody `json:"error"`
}

type RedfishErrorBody struct {
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	ExtendedInfo []Message `json:"@Message.ExtendedInfo"`
}

// Message is one @Message.ExtendedInfo entry.
type Message struct {
	ODataType   string   `json:"@odata.type"`
	MessageID   string   `json:"MessageId"`
	Message     string   `json:"Message"`
	MessageArgs []string `json:"MessageArgs"`
	Severity    string   `json:"Severity,omitempty"`
	Resolution  string   `json:"Resolution,omitempty"`
}

var errNoExtendedInfo = errors.New("redfish error has no extended info")

func NewRedfishError(code, message string) *RedfishError {
	return &RedfishError{
		Error: RedfishErrorBody{
			Code:         code,
			Message:      message,
			ExtendedInfo: []Message{},
		},
	}
}

// AddExtendedInfo appends a Base registry message. %1..%n in the registry text are
// replaced by args. Unknown ids are added with the id as message.
func (e *RedfishError) AddExtendedInfo(messageID string, args ...string) *RedfishError {
	if args == nil {
		args = []string{}
	}
	m := Message{
		ODataType:   messageType,
		MessageID:   baseRegistry + "." + messageID,
		Message:     messageID,
		MessageArgs: args,
	}
	if bm, ok := baseMessages[messageID]; ok {
		m.Message = expandArgs(bm.text, args)
		m.Severity = bm.severity
		m.Resolution = bm.resolution
	}
	e.Error.ExtendedInfo = append(e.Error.ExtendedInfo, m)
	return e
}

// Serialize encodes the error document.
func (e *RedfishError) Serialize() ([]byte, error) {
	return json.Marshal(e)
}

// ParseRedfishError decodes an error document and checks it carries extended info.
func ParseRedfishError(data []byte) (*RedfishError, error) {
	e := &RedfishError{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decoding redfish error: %w", err)
	}
	if len(e.Error.ExtendedInfo) == 0 {
		return nil, errNoExtendedInfo
	}
	return e, nil
}

func expandArgs(text string, args []string) string {
	for i := len(args); i > 0; i-- {
		text = strings.ReplaceAll(text, fmt.Sprintf("%%%d", i), args[i-1])
	}
	return text
}
