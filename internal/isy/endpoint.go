package isy

import "fmt"

// Endpoint identifies one of the ISY REST resources the collector reads.
type Endpoint int

// REST resources polled every discovery cycle.
const (
	Nodes Endpoint = iota
	IntegerVariables
	StateVariables
	Programs
)

// Endpoints lists every resource in a fixed order.
var Endpoints = []Endpoint{Nodes, IntegerVariables, StateVariables, Programs}

// Path returns the REST path below /rest/ for the endpoint.
func (e Endpoint) Path() string {
	switch e {
	case Nodes:
		return "nodes"
	case IntegerVariables:
		return "vars/get/1"
	case StateVariables:
		return "vars/get/2"
	case Programs:
		return "programs?subfolders=true"
	default:
		return ""
	}
}

// String returns a short name for logs and history records.
func (e Endpoint) String() string {
	switch e {
	case Nodes:
		return "nodes"
	case IntegerVariables:
		return "integer_variables"
	case StateVariables:
		return "state_variables"
	case Programs:
		return "programs"
	default:
		return fmt.Sprintf("endpoint(%d)", int(e))
	}
}

// Connection holds what is needed to reach one ISY.
type Connection struct {
	Host     string
	Port     string
	User     string
	Password string
}

// URL builds the request URL for an endpoint.
//
// Example: http://192.168.1.10:80/rest/vars/get/1
func (c Connection) URL(e Endpoint) string {
	return fmt.Sprintf("http://%s:%s/rest/%s", c.Host, c.Port, e.Path())
}
