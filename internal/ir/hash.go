package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram     = "ratelens/program/v1"
	DomainInstruction = "ratelens/instruction/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content hash of a program version.
// Name, version, description, and instruction order do not affect the hash:
// two exports with the same instructions by step and the same dictionary
// hash equal.
func ProgramHash(p Program) (string, error) {
	list := make([]any, 0, len(p.Instructions))
	for _, ins := range SortedSteps(p.Instructions) {
		list = append(list, ins.toCanonicalMap())
	}
	obj := map[string]any{
		"instructions": list,
	}
	if len(p.Dictionary) > 0 {
		obj["dictionary"] = p.Dictionary
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// InstructionHash computes the content hash of a single instruction.
func InstructionHash(ins Instruction) (string, error) {
	canonical, err := MarshalCanonical(ins.toCanonicalMap())
	if err != nil {
		return "", fmt.Errorf("InstructionHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInstruction, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProgramHash(p Program) string {
	h, err := ProgramHash(p)
	if err != nil {
		panic(err)
	}
	return h
}
