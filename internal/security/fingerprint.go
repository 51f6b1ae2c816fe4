// Package security provides content hashing, identifiers and address checks for route data
package security

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// FingerprintPrefix namespaces route cache keys
const FingerprintPrefix = "route_quote:"

// RouteFingerprint returns a stable cache key for the normalized route parameters.
// The user address is not part of the key since it does not affect pricing.
func RouteFingerprint(params model.RouteParams) (string, error) {
	p := params.Normalized()

	// encoding/json sorts map keys, which makes this canonical
	canonical := map[string]string{
		"source_chain":      p.SourceChain,
		"destination_chain": p.DestinationChain,
		"source_token":      p.SourceToken,
		"destination_token": p.DestinationToken,
		"amount":            p.Amount,
	}
	digest, err := Digest(canonical)
	if err != nil {
		return "", err
	}
	return FingerprintPrefix + digest, nil
}

// Digest returns the hex Keccak-256 of the JSON encoding of v, without 0x prefix
func Digest(v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return strings.TrimPrefix(crypto.Keccak256Hash(payload).Hex(), "0x"), nil
}

// NewQuoteID returns a unique quote identifier namespaced by protocol
func NewQuoteID(protocol string) string {
	return strings.ToLower(protocol) + "_" + uuid.NewString()
}

// ValidAddress reports whether addr is a well-formed EVM address
func ValidAddress(addr string) bool {
	return common.IsHexAddress(strings.TrimSpace(addr))
}
