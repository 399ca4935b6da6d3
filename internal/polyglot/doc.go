// Package polyglot speaks the Polyglot v2 node server protocol over MQTT.
//
// Inbound, Polyglot publishes JSON objects to udi/polyglot/ns/{profile}
// with one of these keys:
//
//	config     node list and custom parameters (first one starts the node server)
//	shortPoll  short poll timer fired
//	longPoll   long poll timer fired
//	query      query a node by address
//	command    run a node command (cmd: QUERY, DISCOVER, UPDATE_PROFILE)
//	stop       node server is being stopped
//	delete     node server is being removed
//
// Outbound, the node server publishes to udi/polyglot/ns/polyglot with
// "node": {profile} and one of: status, command, addnotice,
// removenoticesall, customparams, installprofile, addnode.
//
// Driver values travel as strings; Polyglot converts them using the uom.
package polyglot
