package redfish

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/oneview"
)

// NetworkAdapterCollectionURI returns the collection path for a chassis.
func NetworkAdapterCollectionURI(chassisID string) string {
	return chassisURI + chassisID + "/NetworkAdapters/"
}

// NewNetworkAdapterCollection builds the NetworkAdapterCollection of a OneView
// ServerHardware. Each populated device slot of the port map is one adapter; slots
// without a device name are empty and skipped.
func NewNetworkAdapterCollection(sh oneview.Resource) (*Collection, error) {
	uuid, err := sh.String("uuid")
	if err != nil {
		return nil, err
	}
	portMap, err := sh.Object("portMap")
	if err != nil {
		return nil, err
	}
	slots, err := portMap.Objects("deviceSlots")
	if err != nil {
		return nil, err
	}

	base := NetworkAdapterCollectionURI(uuid)
	members := make([]Link, 0, len(slots))
	for i, slot := range slots {
		if slot.StringOr("deviceName", "") == "" {
			continue
		}
		n, err := slot.Number("deviceNumber")
		if err != nil {
			return nil, fmt.Errorf("device slot %d: %w", i, err)
		}
		if n != math.Trunc(n) {
			return nil, &oneview.FieldError{
				Field:  fmt.Sprintf("deviceSlots[%d].deviceNumber", i),
				Reason: fmt.Sprintf("expected integer, got %v", n),
			}
		}
		num, err := safecast.ToInt(n)
		if err != nil {
			return nil, &oneview.FieldError{
				Field:  fmt.Sprintf("deviceSlots[%d].deviceNumber", i),
				Reason: err.Error(),
			}
		}
		members = append(members, Link{ODataID: base + strconv.Itoa(num)})
	}

	return newCollection("NetworkAdapterCollection", base, "Network Adapter Collection", members), nil
}
