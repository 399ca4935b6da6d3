// Package inventory runs discovery cycles against an ISY controller.
//
// A cycle fetches the four REST resources (nodes, integer variables, state
// variables, programs) concurrently, parses and classifies them, and
// publishes the aggregated Counts to the controller node's driver slots.
//
// A resource that cannot be fetched or parsed contributes zeros; the
// other resources still report. Every slot is written on every cycle.
//
// Completed cycles can be handed to Recorders: SQLiteHistory keeps a
// queryable log, and the InfluxDB writer in cmd/isyinventory keeps a time
// series.
package inventory
