// Package types contains shared type definitions used across multiple packages
package types

import "strings"

// SupportedChain represents a blockchain network a bridge can route between
type SupportedChain string

// Supported blockchain networks
const (
	ChainEthereum  SupportedChain = "ethereum"
	ChainPolygon   SupportedChain = "polygon"
	ChainArbitrum  SupportedChain = "arbitrum"
	ChainOptimism  SupportedChain = "optimism"
	ChainAvalanche SupportedChain = "avalanche"
	ChainBSC       SupportedChain = "bsc"
	ChainBase      SupportedChain = "base"
	ChainGnosis    SupportedChain = "gnosis"
	ChainFantom    SupportedChain = "fantom"
	ChainZkSync    SupportedChain = "zksync"
	ChainLinea     SupportedChain = "linea"
)

var chainIDs = map[SupportedChain]int64{
	ChainEthereum:  1,
	ChainOptimism:  10,
	ChainBSC:       56,
	ChainGnosis:    100,
	ChainPolygon:   137,
	ChainFantom:    250,
	ChainZkSync:    324,
	ChainBase:      8453,
	ChainArbitrum:  42161,
	ChainAvalanche: 43114,
	ChainLinea:     59144,
}

// DefaultIntermediateChains is the fixed set of hubs tried for 2-hop routes, in order
var DefaultIntermediateChains = []SupportedChain{
	ChainEthereum,
	ChainArbitrum,
	ChainOptimism,
	ChainPolygon,
	ChainBase,
}

// ParseChain normalizes a chain name. The second result is false for unknown chains.
func ParseChain(name string) (SupportedChain, bool) {
	c := SupportedChain(strings.ToLower(strings.TrimSpace(name)))
	_, ok := chainIDs[c]
	return c, ok
}

// ChainID returns the EVM chain ID, or 0 for an unknown chain
func (c SupportedChain) ChainID() int64 {
	return chainIDs[c]
}

func (c SupportedChain) String() string {
	return string(c)
}
