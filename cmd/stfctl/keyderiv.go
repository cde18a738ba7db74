package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// hardenedKeyStart is the BIP32 index at which hardened derivation begins;
// any child index at or above it derives a hardened child.
const hardenedKeyStart = uint32(hdkeychain.HardenedKeyStart)

// hardenedMarkers are the suffix characters recognized as "derive this
// segment hardened" — the classic apostrophe plus the alphabetic form some
// wallets emit instead.
const hardenedMarkers = "'hH"

// deriveChildren walks key down each index in path in turn, wrapping any
// failed step with its position so a bad path (an index out of range, say)
// points at the exact segment responsible.
func deriveChildren(key *hdkeychain.ExtendedKey, path []uint32) (*hdkeychain.ExtendedKey, error) {
	current := key
	for i, index := range path {
		child, err := current.Child(index)
		if err != nil {
			return nil, fmt.Errorf("deriving child at segment %d (index %d): %w", i, index, err)
		}
		current = child
	}
	return current, nil
}

// parseDerivationPath turns a "m/86'/0'/0'/0/0"-style string into the raw
// BIP32 child indices deriveChildren expects. A trailing hardened marker
// on a segment (', h, or H) adds hardenedKeyStart to that segment's index.
func parseDerivationPath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("derivation path is empty")
	}

	root, rest, ok := strings.Cut(path, "/")
	if !ok || root != "m" {
		return nil, fmt.Errorf("derivation path %q must start with \"m/\"", path)
	}

	segments := strings.Split(rest, "/")
	indices := make([]uint32, len(segments))
	for i, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("derivation path %q has an empty segment", path)
		}

		index, err := parseSegment(segment)
		if err != nil {
			return nil, fmt.Errorf("segment %d (%q) of %q: %w", i, segment, path, err)
		}
		indices[i] = index
	}
	return indices, nil
}

// parseSegment parses a single BIP32 path segment's numeric index and
// applies the hardened offset when a hardened marker is present.
func parseSegment(segment string) (uint32, error) {
	hardened := false
	if last := segment[len(segment)-1:]; strings.ContainsAny(last, hardenedMarkers) {
		hardened = true
		segment = segment[:len(segment)-1]
	}

	number, err := strconv.ParseUint(segment, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not a valid index: %w", err)
	}

	index := uint32(number)
	if hardened {
		index += hardenedKeyStart
	}
	return index, nil
}
