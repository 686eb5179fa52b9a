// Package join merges two datasets that describe the same entities.
package join

import (
	"github.com/okian/donorflow/internal/domain/dedupe"
	"github.com/okian/donorflow/internal/domain/model"
)

// Stats describes how records were related.
type Stats struct {
	Matched            int `json:"matched"`
	UnmatchedLeft      int `json:"unmatched_left"`
	RightOnly          int `json:"right_only"`
	DuplicateRightKeys int `json:"duplicate_right_keys"`
	MissingKeyLeft     int `json:"missing_key_left"`
	MissingKeyRight    int `json:"missing_key_right"`
}

// Join merges left with right on key.
//
// Each left record is emitted once, overlaid with the right record sharing
// its key when there is one. If right repeats a key, the later record wins.
// A record without the key, with an empty key or with the unknown sentinel
// is treated as unmatched. If either side is empty the result is empty.
func Join(left, right model.Dataset, key string, mode Mode) (model.Dataset, Stats) {
	var st Stats
	if left.IsEmpty() || right.IsEmpty() {
		return model.Dataset{}, st
	}

	rightRecs := right.Records()
	lookup := make(map[string]int, len(rightRecs))
	for i, r := range rightRecs {
		k, ok := keyOf(r, key)
		if !ok {
			st.MissingKeyRight++
			continue
		}
		if _, dup := lookup[k]; dup {
			st.DuplicateRightKeys++
		}
		lookup[k] = i
	}

	leftRecs := left.Records()
	leftKeys := dedupe.New(dedupe.WithSizeHint(len(leftRecs)))
	out := make([]model.Record, 0, len(leftRecs))
	for _, r := range leftRecs {
		k, ok := keyOf(r, key)
		if !ok {
			st.MissingKeyLeft++
			st.UnmatchedLeft++
			out = append(out, r.Clone())
			continue
		}
		leftKeys.SeenAndRecord(k)
		if i, found := lookup[k]; found {
			st.Matched++
			out = append(out, r.Merge(rightRecs[i]))
			continue
		}
		st.UnmatchedLeft++
		out = append(out, r.Clone())
	}

	if mode == OuterIncludeRightOnly {
		for _, r := range rightRecs {
			if k, ok := keyOf(r, key); ok && leftKeys.Contains(k) {
				continue
			}
			st.RightOnly++
			out = append(out, r.Clone())
		}
	}

	return model.NewDataset(mergeFields(left.Fields(), right.Fields()), out), st
}

func keyOf(r model.Record, key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok || v.IsMissing() {
		return "", false
	}
	s := v.String()
	if s == model.Unknown {
		return "", false
	}
	return s, true
}

func mergeFields(left, right []string) []string {
	seen := dedupe.New(dedupe.WithSizeHint(len(left) + len(right)))
	for _, f := range left {
		seen.SeenAndRecord(f)
	}
	for _, f := range right {
		seen.SeenAndRecord(f)
	}
	return seen.Keys()
}
