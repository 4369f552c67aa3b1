package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the hashing scheme to change later.
const (
	DomainProgram = "brutalist/program/v1"
	DomainConfig  = "brutalist/config/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data), hex encoded.
// The null separator keeps domain and data from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash is the content address of an instruction sequence.
// Two programs that parse to the same Ast share a hash regardless of
// the comment bytes in their source.
func ProgramHash(ast Ast) (string, error) {
	canonical, err := MarshalCanonical(ast)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// ConfigHash identifies a set of named optimizer options.
func ConfigHash(options map[string]any) (string, error) {
	canonical, err := MarshalCanonical(options)
	if err != nil {
		return "", fmt.Errorf("ConfigHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when the Ast is known to be valid.
func MustProgramHash(ast Ast) string {
	h, err := ProgramHash(ast)
	if err != nil {
		panic(err)
	}
	return h
}
