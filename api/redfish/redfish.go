package redfish

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/metric"
	rf "github.com/mpramodhpe/oneview-redfish-toolkit/internal/redfish"
)

type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

func (r *RedfishServer) routes() []route {
	return []route{
		{http.MethodGet, "/redfish/v1/$metadata", r.GetMetadata},
		{http.MethodGet, "/redfish/v1/Chassis/:chassisId/NetworkAdapters/", func(c *gin.Context) {
			r.GetNetworkAdapterCollection(c, c.Param("chassisId"))
		}},
		{http.MethodGet, "/redfish/v1/EventService/EventSubscriptions/", r.ListEventSubscriptions},
		{http.MethodPost, "/redfish/v1/EventService/EventSubscriptions/", r.CreateEventSubscription},
		{http.MethodGet, "/redfish/v1/EventService/EventSubscriptions/:subscriptionId", func(c *gin.Context) {
			r.GetEventSubscription(c, c.Param("subscriptionId"))
		}},
		{http.MethodDelete, "/redfish/v1/EventService/EventSubscriptions/:subscriptionId", func(c *gin.Context) {
			r.DeleteEventSubscription(c, c.Param("subscriptionId"))
		}},
	}
}

// abort writes the Redfish error document for err. Every failure path of the
// router ends here.
func (r *RedfishServer) abort(c *gin.Context, err error) {
	status, body := rf.ErrorResponse(err)

	if status >= http.StatusInternalServerError {
		r.Log.Error(err, "request failed", "method", c.Request.Method, "path", c.Request.URL.Path)
	} else {
		r.Log.V(1).Info("request rejected", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "err", err.Error())
	}
	metric.ObserveErrorResponse(status, body.Error.Code)

	c.AbortWithStatusJSON(status, body)
}

func (r *RedfishServer) noRoute(c *gin.Context) {
	r.abort(c, &rf.ResourceNotFoundError{URI: c.Request.URL.Path})
}

func (r *RedfishServer) noMethod(c *gin.Context) {
	r.abort(c, fmt.Errorf("%w: %s %s", rf.ErrMethodNotAllowed, c.Request.Method, c.Request.URL.Path))
}

func (r *RedfishServer) recovery(c *gin.Context, recovered any) {
	r.abort(c, fmt.Errorf("panic serving request: %v", recovered))
}
