package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// Domain prefixes. The version suffix allows the encoding to change later
// without old and new digests comparing equal.
const (
	DomainState = "ots/state/v1"
	DomainBatch = "ots/batch/v1"
)

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateDigest identifies a match state by content.
func StateDigest(state scoring.MatchState) (string, error) {
	data, err := Marshal(state)
	if err != nil {
		return "", fmt.Errorf("state digest: %w", err)
	}
	return hashWithDomain(DomainState, data), nil
}

// BatchDigest identifies a set of event ids submitted for a match. The
// digest does not depend on the order of ids.
func BatchDigest(matchID string, eventIDs []string) string {
	ids := append([]string{}, eventIDs...)
	slices.Sort(ids)

	data, err := Marshal(map[string]any{
		"match_id":  matchID,
		"event_ids": ids,
	})
	if err != nil {
		// Only strings are marshaled here.
		panic(fmt.Sprintf("batch digest: %v", err))
	}
	return hashWithDomain(DomainBatch, data)
}
