// Package redfish renders OneView data and gateway state as Redfish documents.
//
// Everything in this package is a pure function of its inputs: documents are built per
// request and never cached or shared.
package redfish

const (
	serviceRoot   = "/redfish/v1"
	metadataURI   = serviceRoot + "/$metadata"
	chassisURI    = serviceRoot + "/Chassis/"
	eventSubsURI  = serviceRoot + "/EventService/EventSubscriptions/"
	metadataFrag  = metadataURI + "#"
	eventProtocol = "Redfish"
)

// Link is a reference to another Redfish resource.
type Link struct {
	ODataID string `json:"@odata.id"`
}

// Collection is a Redfish resource collection.
type Collection struct {
	ODataContext string `json:"@odata.context"`
	ODataID      string `json:"@odata.id"`
	ODataType    string `json:"@odata.type"`
	Name         string `json:"Name"`
	Members      []Link `json:"Members"`
	MembersCount int    `json:"Members@odata.count"`
}

func newCollection(typeName, id, name string, members []Link) *Collection {
	if members == nil {
		members = []Link{}
	}
	return &Collection{
		ODataContext: metadataFrag + typeName + "." + typeName,
		ODataID:      id,
		ODataType:    "#" + typeName + "." + typeName,
		Name:         name,
		Members:      members,
		MembersCount: len(members),
	}
}
