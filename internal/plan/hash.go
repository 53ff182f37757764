package plan

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainDocument is the domain prefix for document hashes. The version
// suffix leaves room for an algorithm migration without ambiguity.
const DomainDocument = "beltline/document/v1"

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes the content-addressed identity of a document.
// Two documents with equal nodes and edges hash equal regardless of
// map iteration order or float formatting quirks, because the hash is
// taken over canonical JSON.
func DocumentHash(doc Document) (string, error) {
	// Round-trip through encoding/json to get a generic value tree the
	// canonical encoder accepts; struct field order is irrelevant after
	// this point.
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return "", fmt.Errorf("DocumentHash: decode: %w", err)
	}

	canonical, err := MarshalCanonical(tree)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: canonicalize: %w", err)
	}

	return hashWithDomain(DomainDocument, canonical), nil
}
