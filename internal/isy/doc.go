// Package isy reads inventory documents from an ISY controller's REST interface.
//
// This package manages:
//   - Authenticated GET requests for the four inventory resources
//   - Streaming XML counting of nodes, scenes, variables and programs
//   - Classification of node addresses into Insteon, Z-Wave and node-server
//
// # Resources
//
//	GET /rest/nodes                    <node>, <group>
//	GET /rest/vars/get/1               integer <var>
//	GET /rest/vars/get/2               state <var>
//	GET /rest/programs?subfolders=true <program>
//
// # Failures
//
// Fetch returns a *FetchError that matches ErrUnreachable (no response,
// including timeouts) or ErrRemoteRejected (non-200). The parsers return
// ErrMalformedXML. None of these are retried here.
//
// # Usage
//
//	client := isy.NewClient(10 * time.Second)
//	body, err := client.Fetch(ctx, isy.Nodes, conn)
//	if err != nil {
//	    return err
//	}
//	counts, err := isy.CountNodes(body)
package isy
