package redfish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedfishError_RoundTrip(t *testing.T) {
	orig := NewRedfishError("InternalError", internalMessage).AddExtendedInfo(MsgInternalError)

	data, err := orig.Serialize()
	require.NoError(t, err)

	parsed, err := ParseRedfishError(data)
	require.NoError(t, err)
	assert.Equal(t, orig.Error.Code, parsed.Error.Code)
	assert.Equal(t, orig.Error.Message, parsed.Error.Message)
	require.NotEmpty(t, parsed.Error.ExtendedInfo)
	assert.Equal(t, orig, parsed)
}

func TestParseRedfishError_RequiresExtendedInfo(t *testing.T) {
	data, err := NewRedfishError("GeneralError", "x").Serialize()
	require.NoError(t, err)

	_, err = ParseRedfishError(data)
	assert.ErrorIs(t, err, errNoExtendedInfo)

	_, err = ParseRedfishError([]byte("not json"))
	assert.Error(t, err)
}

func TestAddExtendedInfo(t *testing.T) {
	e := NewRedfishError("GeneralError", "bad request").
		AddExtendedInfo(MsgPropertyValueNotInList, "Reboot", "EventTypes").
		AddExtendedInfo("SomethingElse")

	require.Len(t, e.Error.ExtendedInfo, 2)

	first := e.Error.ExtendedInfo[0]
	assert.Equal(t, "#Message.v1_0_5.Message", first.ODataType)
	assert.Equal(t, "Base.1.1.PropertyValueNotInList", first.MessageID)
	assert.Equal(t, "The value Reboot for the property EventTypes is not in the list of acceptable values.", first.Message)
	assert.Equal(t, []string{"Reboot", "EventTypes"}, first.MessageArgs)
	assert.Equal(t, "Warning", first.Severity)

	second := e.Error.ExtendedInfo[1]
	assert.Equal(t, "Base.1.1.SomethingElse", second.MessageID)
	assert.Equal(t, "SomethingElse", second.Message)
	assert.Equal(t, []string{}, second.MessageArgs)
}

func TestNewRedfishError_SerializesEmptyExtendedInfoAsArray(t *testing.T) {
	data, err := NewRedfishError("GeneralError", "x").Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"GeneralError","message":"x","@Message.ExtendedInfo":[]}}`, string(data))
}
