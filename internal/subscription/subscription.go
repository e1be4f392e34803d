// Package subscription keeps the Redfish event subscriptions registered with the gateway.
package subscription

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// EventTypes accepted in a subscription, in Redfish EventService order.
var EventTypes = []string{
	"StatusChange",
	"ResourceUpdated",
	"ResourceAdded",
	"ResourceRemoved",
	"Alert",
}

// ErrNotFound is returned when no subscription has the requested id.
var ErrNotFound = errors.New("subscription not found")

// Subscription is one registered event destination.
type Subscription struct {
	ID          string   `json:"id"`
	Destination string   `json:"destination"`
	EventTypes  []string `json:"eventTypes"`
	Context     string   `json:"context,omitempty"`
}

// Request is the client payload for a new subscription.
type Request struct {
	Destination string   `json:"Destination"`
	EventTypes  []string `json:"EventTypes"`
	Context     string   `json:"Context"`
}

// ValidationError names the request property that was rejected.
type ValidationError struct {
	Property string
	Value    string
	// Missing is true when the property was absent rather than invalid.
	Missing bool
	// Format is true when the value had the right type but a bad shape.
	Format bool
}

func (e *ValidationError) Error() string {
	switch {
	case e.Missing:
		return fmt.Sprintf("property %s is required", e.Property)
	case e.Format:
		return fmt.Sprintf("value %q of property %s has an invalid format", e.Value, e.Property)
	default:
		return fmt.Sprintf("value %q of property %s is not in the list of acceptable values", e.Value, e.Property)
	}
}

// Validate checks the request against the EventDestination rules.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return &ValidationError{Property: "Destination", Missing: true}
	}
	u, err := url.Parse(r.Destination)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Property: "Destination", Value: r.Destination, Format: true}
	}

	if len(r.EventTypes) == 0 {
		return &ValidationError{Property: "EventTypes", Missing: true}
	}
	for _, et := range r.EventTypes {
		if !slices.Contains(EventTypes, et) {
			return &ValidationError{Property: "EventTypes", Value: et}
		}
	}

	return nil
}
