package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identities.
const (
	DomainEvent      = "timeweave/event/v1"
	DomainDefinition = "timeweave/definition/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the identity of an emitted event record.
// The same run, sequence number, name and attributes always hash alike,
// which makes repeated writes of one event idempotent.
func EventID(runID string, seq int64, name string, attrs Object) (string, error) {
	if attrs == nil {
		attrs = Object{}
	}
	canonical, err := MarshalCanonical(Object{
		"run_id": String(runID),
		"seq":    Int(seq),
		"name":   String(name),
		"attrs":  attrs,
	})
	if err != nil {
		return "", fmt.Errorf("EventID: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// DefinitionHash identifies a timeline definition by its canonical form.
func DefinitionHash(def Value) (string, error) {
	canonical, err := MarshalCanonical(def)
	if err != nil {
		return "", fmt.Errorf("DefinitionHash: %w", err)
	}
	return hashWithDomain(DomainDefinition, canonical), nil
}
