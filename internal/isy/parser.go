package isy

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// XML element names used by the ISY REST documents.
const (
	elementNode    = "node"
	elementGroup   = "group"
	elementAddress = "address"

	// ElementVariable is the element counted in /rest/vars/get/{1,2}.
	ElementVariable = "var"

	// ElementProgram is the element counted in /rest/programs.
	ElementProgram = "program"
)

// NodeCounts is the result of reading a /rest/nodes document.
//
// Total always equals Insteon + ZWave + NodeServer: every node is
// classified into exactly one category.
type NodeCounts struct {
	Total      int
	Scenes     int
	Insteon    int
	ZWave      int
	NodeServer int
}

// add records one classified node.
func (n *NodeCounts) add(c Category) {
	n.Total++
	switch c {
	case ZWave:
		n.ZWave++
	case NodeServer:
		n.NodeServer++
	default:
		n.Insteon++
	}
}

// nodeFrame tracks an open <node> element while its children stream past.
type nodeFrame struct {
	depth      int // depth of the <node> element itself
	address    strings.Builder
	inAddress  bool
	hasAddress bool
}

// CountNodes counts nodes and scenes in a /rest/nodes document.
//
// Every <node> and <group> element is counted wherever it appears in the
// tree. Each node is classified by the text of its first direct <address>
// child; a node without one is classified from the empty string.
//
// Returns:
//   - NodeCounts: Totals and per-category counts
//   - error: ErrMalformedXML if the document cannot be parsed
func CountNodes(data []byte) (NodeCounts, error) {
	var counts NodeCounts
	var open []*nodeFrame
	depth := 0
	sawRoot := false

	decoder := newDecoder(data)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return NodeCounts{}, fmt.Errorf("%w: %w", ErrMalformedXML, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			sawRoot = true
			switch t.Name.Local {
			case elementNode:
				open = append(open, &nodeFrame{depth: depth})
			case elementGroup:
				counts.Scenes++
			case elementAddress:
				if n := len(open); n > 0 {
					top := open[n-1]
					if top.depth == depth-1 && !top.hasAddress {
						top.inAddress = true
					}
				}
			}

		case xml.CharData:
			if n := len(open); n > 0 && open[n-1].inAddress {
				open[n-1].address.Write(t)
			}

		case xml.EndElement:
			if n := len(open); n > 0 {
				top := open[n-1]
				switch {
				case top.inAddress && t.Name.Local == elementAddress && depth == top.depth+1:
					top.inAddress = false
					top.hasAddress = true
				case t.Name.Local == elementNode && depth == top.depth:
					counts.add(Classify(strings.TrimSpace(top.address.String())))
					open = open[:n-1]
				}
			}
			depth--
		}
	}

	if !sawRoot {
		return NodeCounts{}, fmt.Errorf("%w: no root element", ErrMalformedXML)
	}

	return counts, nil
}

// CountSimple counts every element named element, at any depth.
//
// Used for variables (ElementVariable) and programs (ElementProgram).
//
// Returns:
//   - int: Number of matching elements
//   - error: ErrMalformedXML if the document cannot be parsed
func CountSimple(data []byte, element string) (int, error) {
	count := 0
	sawRoot := false

	decoder := newDecoder(data)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedXML, err)
		}

		if se, ok := token.(xml.StartElement); ok {
			sawRoot = true
			if se.Name.Local == element {
				count++
			}
		}
	}

	if !sawRoot {
		return 0, fmt.Errorf("%w: no root element", ErrMalformedXML)
	}

	return count, nil
}

// newDecoder returns a strict decoder that understands non-UTF-8
// encoding declarations.
func newDecoder(data []byte) *xml.Decoder {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	return decoder
}
