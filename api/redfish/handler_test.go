package redfish

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/config"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/oneview"
	rf "github.com/mpramodhpe/oneview-redfish-toolkit/internal/redfish"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	chassisID        = "30303437-3034-4D32-3230-313133364752"
	networkAdapters  = "/redfish/v1/Chassis/" + chassisID + "/NetworkAdapters/"
	subscriptionsURI = "/redfish/v1/EventService/EventSubscriptions/"
	internalMessage  = "The request failed due to an internal service error. The service is still operational."
)

type mockHardware struct {
	mock.Mock
}

func (m *mockHardware) ServerHardware(ctx context.Context, id string) (oneview.Resource, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(oneview.Resource)
	return r, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) All(ctx context.Context) ([]subscription.Subscription, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]subscription.Subscription)
	return s, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id string) (subscription.Subscription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(subscription.Subscription), args.Error(1)
}

func (m *mockStore) Add(ctx context.Context, req subscription.Request) (subscription.Subscription, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(subscription.Subscription), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id string) (subscription.Subscription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(subscription.Subscription), args.Error(1)
}

type fixture struct {
	handler  http.Handler
	hardware *mockHardware
	store    *mockStore
}

func newFixture(t *testing.T, schemas ...config.Schema) *fixture {
	t.Helper()

	cfg := &config.Config{
		Redfish: config.RedfishConfig{SchemaBaseURL: "http://redfish.dmtf.org/schemas/v1/"},
		Log:     logr.Discard(),
	}
	f := &fixture{
		hardware: &mockHardware{},
		store:    &mockStore{},
	}
	f.handler = New(cfg, config.NewSchemaRegistry(schemas...), f.hardware, f.store)

	t.Cleanup(func() {
		f.hardware.AssertExpectations(t)
		f.store.AssertExpectations(t)
	})
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func mockup(t *testing.T, name string) []byte {
	t.Helper()
	d, err := os.ReadFile("../../mockups/" + name)
	require.NoError(t, err)
	return d
}

func mediaType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	mt, _, err := mime.ParseMediaType(w.Header().Get("Content-Type"))
	require.NoError(t, err)
	return mt
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *rf.RedfishError {
	t.Helper()
	assert.Equal(t, "application/json", mediaType(t, w))
	e, err := rf.ParseRedfishError(w.Body.Bytes())
	require.NoError(t, err)
	return e
}

func TestGetMetadata(t *testing.T) {
	f := newFixture(t,
		config.Schema{Name: "ComputerSystemCollection", File: "ComputerSystemCollection.json"},
		config.Schema{Name: "ComputerSystem", File: "ComputerSystem.v1_4_0.json"},
	)

	w := f.do(http.MethodGet, "/redfish/v1/$metadata", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/xml", mediaType(t, w))
	assert.Equal(t, string(mockup(t, "redfish/Metadata.xml")), w.Body.String())
}

func TestGetNetworkAdapterCollection(t *testing.T) {
	f := newFixture(t)

	var sh oneview.Resource
	require.NoError(t, json.Unmarshal(mockup(t, "oneview/ServerHardware.json"), &sh))
	f.hardware.On("ServerHardware", mock.Anything, chassisID).Return(sh, nil)

	w := f.do(http.MethodGet, networkAdapters, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", mediaType(t, w))

	var got, want any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NoError(t, json.Unmarshal(mockup(t, "redfish/NetworkAdapterCollection.json"), &want))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NetworkAdapterCollection mismatch (-want +got):\n%s", diff)
	}
}

func TestGetNetworkAdapterCollection_NotFound(t *testing.T) {
	f := newFixture(t)
	f.hardware.On("ServerHardware", mock.Anything, chassisID).
		Return(nil, &oneview.Error{Code: "RESOURCE_NOT_FOUND", Message: "server-hardware not found"})

	w := f.do(http.MethodGet, networkAdapters, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, "GeneralError", e.Error.Code)
	assert.Equal(t, "server-hardware not found", e.Error.Message)
}

func TestGetNetworkAdapterCollection_BackendError(t *testing.T) {
	f := newFixture(t)
	f.hardware.On("ServerHardware", mock.Anything, chassisID).
		Return(nil, &oneview.Error{Code: "ANOTHER_ERROR", Message: "server-hardware-types error"})

	w := f.do(http.MethodGet, networkAdapters, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, "InternalError", e.Error.Code)
	assert.Equal(t, internalMessage, e.Error.Message)
	assert.Equal(t, "Base.1.1.InternalError", e.Error.ExtendedInfo[0].MessageID)
	assert.NotContains(t, w.Body.String(), "server-hardware-types error")
}

func TestGetNetworkAdapterCollection_MalformedPayload(t *testing.T) {
	f := newFixture(t)
	f.hardware.On("ServerHardware", mock.Anything, chassisID).
		Return(oneview.Resource{"uuid": chassisID}, nil)

	w := f.do(http.MethodGet, networkAdapters, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "InternalError", decodeError(t, w).Error.Code)
}

func TestGetNetworkAdapterCollection_Panic(t *testing.T) {
	f := newFixture(t)
	f.hardware.On("ServerHardware", mock.Anything, chassisID).
		Run(func(mock.Arguments) { panic("boom") }).
		Return(nil, nil)

	w := f.do(http.MethodGet, networkAdapters, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, "InternalError", e.Error.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestListEventSubscriptions_Empty(t *testing.T) {
	f := newFixture(t)
	f.store.On("All", mock.Anything).Return([]subscription.Subscription{}, nil)

	w := f.do(http.MethodGet, subscriptionsURI, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", mediaType(t, w))
	assert.JSONEq(t, string(mockup(t, "redfish/SubscriptionCollection.json")), w.Body.String())
}

func TestListEventSubscriptions_KeepsStoreOrder(t *testing.T) {
	f := newFixture(t)
	f.store.On("All", mock.Anything).Return([]subscription.Subscription{{ID: "b"}, {ID: "a"}}, nil)

	w := f.do(http.MethodGet, subscriptionsURI, "")

	require.Equal(t, http.StatusOK, w.Code)
	var got rf.Collection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.MembersCount)
	assert.Equal(t, []rf.Link{
		{ODataID: subscriptionsURI + "b"},
		{ODataID: subscriptionsURI + "a"},
	}, got.Members)
}

func TestListEventSubscriptions_StoreError(t *testing.T) {
	f := newFixture(t)
	f.store.On("All", mock.Anything).Return(nil, fmt.Errorf("disk on fire"))

	w := f.do(http.MethodGet, subscriptionsURI, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestCreateEventSubscription(t *testing.T) {
	f := newFixture(t)
	req := subscription.Request{
		Destination: "http://listener.example/events",
		EventTypes:  []string{"Alert"},
		Context:     "ctx",
	}
	f.store.On("Add", mock.Anything, req).Return(subscription.Subscription{
		ID:          "abc",
		Destination: req.Destination,
		EventTypes:  req.EventTypes,
		Context:     req.Context,
	}, nil)

	w := f.do(http.MethodPost, subscriptionsURI,
		`{"Destination":"http://listener.example/events","EventTypes":["Alert"],"Context":"ctx"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, subscriptionsURI+"abc", w.Header().Get("Location"))

	var got rf.EventDestination
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "#EventDestination.v1_1_1.EventDestination", got.ODataType)
	assert.Equal(t, []string{"Alert"}, got.EventTypes)
}

func TestCreateEventSubscription_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		storeErr error
		wantInfo string
	}{
		{
			name:     "malformed json",
			body:     `{"Destination":`,
			wantInfo: "Base.1.1.MalformedJSON",
		},
		{
			name:     "missing property",
			body:     `{"EventTypes":["Alert"]}`,
			storeErr: &subscription.ValidationError{Property: "Destination", Missing: true},
			wantInfo: "Base.1.1.PropertyMissing",
		},
		{
			name:     "value not in list",
			body:     `{"Destination":"http://a.example/","EventTypes":["Reboot"]}`,
			storeErr: &subscription.ValidationError{Property: "EventTypes", Value: "Reboot"},
			wantInfo: "Base.1.1.PropertyValueNotInList",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.storeErr != nil {
				f.store.On("Add", mock.Anything, mock.Anything).Return(subscription.Subscription{}, tt.storeErr)
			}

			w := f.do(http.MethodPost, subscriptionsURI, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			e := decodeError(t, w)
			assert.Equal(t, "GeneralError", e.Error.Code)
			assert.Equal(t, tt.wantInfo, e.Error.ExtendedInfo[0].MessageID)
		})
	}
}

func TestGetEventSubscription(t *testing.T) {
	f := newFixture(t)
	f.store.On("Get", mock.Anything, "abc").
		Return(subscription.Subscription{ID: "abc", Destination: "http://a.example/", EventTypes: []string{"Alert"}}, nil)
	f.store.On("Get", mock.Anything, "nope").
		Return(subscription.Subscription{}, fmt.Errorf("%w: nope", subscription.ErrNotFound))

	w := f.do(http.MethodGet, subscriptionsURI+"abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Destination":"http://a.example/"`)

	w = f.do(http.MethodGet, subscriptionsURI+"nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "GeneralError", decodeError(t, w).Error.Code)
}

func TestDeleteEventSubscription(t *testing.T) {
	f := newFixture(t)
	f.store.On("Delete", mock.Anything, "abc").
		Return(subscription.Subscription{ID: "abc", Destination: "http://a.example/", EventTypes: []string{"Alert"}}, nil).
		Once()
	f.store.On("Delete", mock.Anything, "abc").
		Return(subscription.Subscription{}, fmt.Errorf("%w: abc", subscription.ErrNotFound)).
		Once()

	w := f.do(http.MethodDelete, subscriptionsURI+"abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Id":"abc"`)

	w = f.do(http.MethodDelete, subscriptionsURI+"abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterErrors(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/redfish/v1/Nothing/Here", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, "GeneralError", e.Error.Code)
	assert.Equal(t, "Base.1.1.ResourceMissingAtURI", e.Error.ExtendedInfo[0].MessageID)
	assert.Equal(t, []string{"/redfish/v1/Nothing/Here"}, e.Error.ExtendedInfo[0].MessageArgs)

	w = f.do(http.MethodPut, "/redfish/v1/$metadata", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GeneralError", decodeError(t, w).Error.Code)
}
