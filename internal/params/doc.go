// Package params validates the ISY connection parameters held by the Polyglot host.
//
// The host stores custom parameters as a flat string map. Validate fills
// placeholders for anything missing, so a usable Params value always
// results, and reports whether the operator still needs to act.
//
// Keys:
//
//	user          ISY user name            (default "YourUserName")
//	password      ISY password             (default "YourPassword")
//	isy_ip        ISY host address         (default "127.0.0.1")
//	isy_port      ISY HTTP port            (default "80")
//	debug_enable  "True"/"true" for debug  (default "False", optional)
package params
