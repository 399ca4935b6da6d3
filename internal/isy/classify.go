package isy

import "regexp"

// Category is the integration protocol a node belongs to.
type Category int

// Node categories. Insteon is the fallback for every address that matches
// neither explicit pattern.
const (
	Insteon Category = iota
	ZWave
	NodeServer
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case ZWave:
		return "zwave"
	case NodeServer:
		return "nodeserver"
	default:
		return "insteon"
	}
}

var (
	zwaveAddress      = regexp.MustCompile(`^ZW\d+\w+`)
	nodeServerAddress = regexp.MustCompile(`^n0\d+\w+`)
)

// Classify maps a node address to its category.
//
// Z-Wave addresses look like "ZW012_1", node-server addresses like
// "n003_xyz"; everything else, including empty or malformed addresses,
// is Insteon.
func Classify(address string) Category {
	switch {
	case zwaveAddress.MatchString(address):
		return ZWave
	case nodeServerAddress.MatchString(address):
		return NodeServer
	default:
		return Insteon
	}
}
