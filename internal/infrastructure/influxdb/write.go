package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementInventory is the measurement holding per-cycle counts.
const MeasurementInventory = "isy_inventory"

// WriteInventory writes one inventory point.
//
// Parameters:
//   - host: ISY address, stored as the "host" tag
//   - counts: Count fields keyed by name (total_nodes, scenes, ...)
//   - failedResources: Number of resources that contributed zeros
//   - ts: Cycle start time
//
// Example:
//
//	client.WriteInventory("192.168.1.10", cycle.Counts.Fields(), len(cycle.Failures), cycle.StartedAt)
func (c *Client) WriteInventory(host string, counts map[string]int, failedResources int, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(inventoryPoint(host, counts, failedResources, ts))
}

func inventoryPoint(host string, counts map[string]int, failedResources int, ts time.Time) *write.Point {
	fields := make(map[string]interface{}, len(counts)+1)
	for k, v := range counts {
		fields[k] = int64(v)
	}
	fields["failed_resources"] = int64(failedResources)

	return write.NewPoint(
		MeasurementInventory,
		map[string]string{"host": host},
		fields,
		ts,
	)
}
