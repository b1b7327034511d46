package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainMachine = "tmdbg/machine/v1"
	DomainRule    = "tmdbg/rule/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MachineHash computes the fingerprint of a description.
// Two descriptions with the same tape, head, state and rules (in the same
// order) share a fingerprint regardless of where they were loaded from.
func MachineHash(d Description) (string, error) {
	canonical, err := MarshalCanonical(d.toIR())
	if err != nil {
		return "", fmt.Errorf("MachineHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMachine, canonical), nil
}

// RuleHash computes the identity of a single rule.
func RuleHash(r Rule) (string, error) {
	canonical, err := MarshalCanonical(r.toIR())
	if err != nil {
		return "", fmt.Errorf("RuleHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRule, canonical), nil
}

// MustMachineHash is like MachineHash but panics on error.
// Descriptions only contain strings and ints, so marshaling cannot fail.
func MustMachineHash(d Description) string {
	h, err := MachineHash(d)
	if err != nil {
		panic(err)
	}
	return h
}
