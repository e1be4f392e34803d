package redfish

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/config"
)

// New returns the Redfish router. Request logging and tracing are added by the api package.
func New(
	cfg *config.Config,
	schemas SchemaSource,
	hardware ServerHardwareGetter,
	subscriptions SubscriptionStore,
) http.Handler {
	server := &RedfishServer{
		Log:           cfg.Log.WithName("redfish-server"),
		SchemaBaseURL: cfg.Redfish.SchemaBaseURL,
		schemas:       schemas,
		hardware:      hardware,
		subscriptions: subscriptions,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.CustomRecoveryWithWriter(gin.DefaultErrorWriter, server.recovery))

	for _, rt := range server.routes() {
		router.Handle(rt.method, rt.path, rt.handler)
	}
	router.NoRoute(server.noRoute)
	router.NoMethod(server.noMethod)

	server.Log.Info("redfish router ready",
		"routes", len(server.routes()),
		"schema_base_url", server.SchemaBaseURL)

	return router
}
