package deduplication

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// Aggregate collapses raw rule hits into one match per candidate.
// The surviving match keeps the highest confidence, the union of matched fields and
// the contributing rule names joined in evaluation order. The result is sorted by
// confidence descending; ties keep the order in which candidates were first seen.
func Aggregate(raw []DuplicateMatch) []DuplicateMatch {
	if len(raw) == 0 {
		return nil
	}

	merged := make([]DuplicateMatch, 0, len(raw))
	ruleNames := make([][]string, 0, len(raw))
	index := make(map[uuid.UUID]int, len(raw))

	for _, hit := range raw {
		i, seen := index[hit.RecordID]
		if !seen {
			index[hit.RecordID] = len(merged)
			merged = append(merged, DuplicateMatch{
				RecordID:      hit.RecordID,
				Confidence:    hit.Confidence,
				MatchedFields: appendUnique(nil, hit.MatchedFields...),
			})
			ruleNames = append(ruleNames, []string{hit.RuleName})
			continue
		}

		merged[i].Confidence = max(merged[i].Confidence, hit.Confidence)
		merged[i].MatchedFields = appendUnique(merged[i].MatchedFields, hit.MatchedFields...)
		ruleNames[i] = append(ruleNames[i], hit.RuleName)
	}

	for i := range merged {
		merged[i].RuleName = strings.Join(ruleNames[i], ruleNameSeparator)
	}

	slices.SortStableFunc(merged, func(a, b DuplicateMatch) int {
		return b.Confidence - a.Confidence
	})

	return merged
}

// BuildGroup aggregates the raw hits for one subject. It reports false when there
// is nothing to group, so empty groups are never emitted.
func BuildGroup(subjectID uuid.UUID, entityType domain.EntityType, raw []DuplicateMatch) (DuplicateGroup, bool) {
	matches := Aggregate(raw)
	if len(matches) == 0 {
		return DuplicateGroup{}, false
	}

	return DuplicateGroup{
		MasterCandidateID: subjectID,
		EntityType:        entityType,
		Matches:           matches,
	}, true
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
