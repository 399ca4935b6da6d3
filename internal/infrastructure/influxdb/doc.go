// Package influxdb writes discovery cycle counts to InfluxDB v2.
//
// Each cycle becomes one point in the isy_inventory measurement, tagged
// with the ISY host, with one integer field per count plus
// failed_resources. The time series is optional and enabled with
// influxdb.enabled.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteInventory(cycle.Host, cycle.Counts.Fields(), len(cycle.Failures), cycle.StartedAt)
//
// Writes are batched (batch_size, flush_interval) and never block the
// caller; errors arrive through SetOnError.
package influxdb
