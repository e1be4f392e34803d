package redfish

import (
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/subscription"
)

// EventDestination is a single event subscription resource.
type EventDestination struct {
	ODataContext string   `json:"@odata.context"`
	ODataID      string   `json:"@odata.id"`
	ODataType    string   `json:"@odata.type"`
	ID           string   `json:"Id"`
	Name         string   `json:"Name"`
	Destination  string   `json:"Destination"`
	EventTypes   []string `json:"EventTypes"`
	Context      string   `json:"Context"`
	Protocol     string   `json:"Protocol"`
}

// EventDestinationURI returns the resource path of a subscription.
func EventDestinationURI(id string) string {
	return eventSubsURI + id
}

// NewEventDestinationCollection lists subs in the order given.
func NewEventDestinationCollection(subs []subscription.Subscription) *Collection {
	members := make([]Link, 0, len(subs))
	for _, s := range subs {
		members = append(members, Link{ODataID: EventDestinationURI(s.ID)})
	}
	return newCollection("EventDestinationCollection", eventSubsURI, "Event Subscriptions Collection", members)
}

func NewEventDestination(s subscription.Subscription) *EventDestination {
	eventTypes := s.EventTypes
	if eventTypes == nil {
		eventTypes = []string{}
	}
	return &EventDestination{
		ODataContext: metadataFrag + "EventDestination.EventDestination",
		ODataID:      EventDestinationURI(s.ID),
		ODataType:    "#EventDestination.v1_1_1.EventDestination",
		ID:           s.ID,
		Name:         "EventSubscription " + s.ID,
		Destination:  s.Destination,
		EventTypes:   eventTypes,
		Context:      s.Context,
		Protocol:     eventProtocol,
	}
}
