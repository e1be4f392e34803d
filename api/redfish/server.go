package redfish

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/config"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/oneview"
	rf "github.com/mpramodhpe/oneview-redfish-toolkit/internal/redfish"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/subscription"
)

// SchemaSource provides the ordered schema registry behind $metadata.
type SchemaSource interface {
	Entries() []config.Schema
}

// ServerHardwareGetter fetches OneView server hardware by id.
type ServerHardwareGetter interface {
	ServerHardware(ctx context.Context, id string) (oneview.Resource, error)
}

// SubscriptionStore holds the event subscriptions.
type SubscriptionStore interface {
	All(ctx context.Context) ([]subscription.Subscription, error)
	Get(ctx context.Context, id string) (subscription.Subscription, error)
	Add(ctx context.Context, req subscription.Request) (subscription.Subscription, error)
	Delete(ctx context.Context, id string) (subscription.Subscription, error)
}

type RedfishServer struct {
	Log logr.Logger

	// SchemaBaseURL is prefixed to every schema file in $metadata.
	SchemaBaseURL string

	schemas       SchemaSource
	hardware      ServerHardwareGetter
	subscriptions SubscriptionStore
}

// GetMetadata serves the $metadata document for the current schema registry snapshot.
func (r *RedfishServer) GetMetadata(c *gin.Context) {
	doc, err := rf.RenderMetadata(r.SchemaBaseURL, r.schemas.Entries())
	if err != nil {
		r.abort(c, fmt.Errorf("rendering metadata: %w", err))
		return
	}
	c.Data(http.StatusOK, "text/xml", doc)
}

// GetNetworkAdapterCollection lists the network adapters of a chassis.
func (r *RedfishServer) GetNetworkAdapterCollection(c *gin.Context, chassisId string) {
	sh, err := r.hardware.ServerHardware(c.Request.Context(), chassisId)
	if err != nil {
		r.abort(c, err)
		return
	}

	collection, err := rf.NewNetworkAdapterCollection(sh)
	if err != nil {
		r.abort(c, fmt.Errorf("translating server hardware %s: %w", chassisId, err))
		return
	}

	c.JSON(http.StatusOK, collection)
}

// ListEventSubscriptions lists every subscription in store order.
func (r *RedfishServer) ListEventSubscriptions(c *gin.Context) {
	subs, err := r.subscriptions.All(c.Request.Context())
	if err != nil {
		r.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, rf.NewEventDestinationCollection(subs))
}

// CreateEventSubscription registers a new event destination.
func (r *RedfishServer) CreateEventSubscription(c *gin.Context) {
	req := subscription.Request{}

	if err := c.ShouldBindJSON(&req); err != nil {
		r.abort(c, fmt.Errorf("%w: %w", rf.ErrMalformedJSON, err))
		return
	}

	sub, err := r.subscriptions.Add(c.Request.Context(), req)
	if err != nil {
		r.abort(c, err)
		return
	}

	c.Header("Location", rf.EventDestinationURI(sub.ID))
	c.JSON(http.StatusCreated, rf.NewEventDestination(sub))
}

// GetEventSubscription returns one event destination.
func (r *RedfishServer) GetEventSubscription(c *gin.Context, subscriptionId string) {
	sub, err := r.subscriptions.Get(c.Request.Context(), subscriptionId)
	if err != nil {
		r.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, rf.NewEventDestination(sub))
}

// DeleteEventSubscription removes an event destination and returns it.
func (r *RedfishServer) DeleteEventSubscription(c *gin.Context, subscriptionId string) {
	sub, err := r.subscriptions.Delete(c.Request.Context(), subscriptionId)
	if err != nil {
		r.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, rf.NewEventDestination(sub))
}
