package redfish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/oneview"
	"github.com/stretchr/testify/require"
)

const mockups = "../../mockups"

func readMockup(t *testing.T, name string) []byte {
	t.Helper()
	d, err := os.ReadFile(filepath.Join(mockups, name))
	require.NoError(t, err)
	return d
}

// decodeJSON returns the generic form of a JSON document so two encodings can be
// compared structurally.
func decodeJSON(t *testing.T, d []byte) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal(d, &v))
	return v
}

func serverHardware(t *testing.T) oneview.Resource {
	t.Helper()
	var r oneview.Resource
	require.NoError(t, json.Unmarshal(readMockup(t, "oneview/ServerHardware.json"), &r))
	return r
}
