package scoring

import "sort"

// PairTotal is one pair's accumulated match points across every hand it has a
// recorded result on.
type PairTotal struct {
	PairNo      int     `json:"pair_no"`
	MatchPoints float64 `json:"match_points"`
	HandsPlayed int     `json:"hands_played"`
}

// RankingPolicy converts accumulated match points into ranking points and
// average points per pair. The exact weighting is a tournament convention,
// not an engine rule, so callers inject whichever policy their event uses.
type RankingPolicy func(totals []PairTotal) (rps map[int]float64, aps map[int]float64)

// DefaultRankingPolicy awards average points as the mean match-point
// percentage per hand, and ranking points by finishing position: the winner
// of a field of n receives n points, the runner-up n-1, and so on, with tied
// pairs sharing the mean of the positions they span.
func DefaultRankingPolicy(totals []PairTotal) (map[int]float64, map[int]float64) {
	rps := make(map[int]float64, len(totals))
	aps := make(map[int]float64, len(totals))

	for _, t := range totals {
		if t.HandsPlayed > 0 {
			aps[t.PairNo] = t.MatchPoints / float64(t.HandsPlayed)
		} else {
			aps[t.PairNo] = 0
		}
	}

	ranked := make([]PairTotal, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		if aps[ranked[i].PairNo] != aps[ranked[j].PairNo] {
			return aps[ranked[i].PairNo] > aps[ranked[j].PairNo]
		}
		return ranked[i].PairNo < ranked[j].PairNo
	})

	n := len(ranked)
	for i := 0; i < n; {
		j := i
		for j+1 < n && aps[ranked[j+1].PairNo] == aps[ranked[i].PairNo] {
			j++
		}
		// Positions i..j are tied and share the mean of their points.
		shared := 0.0
		for p := i; p <= j; p++ {
			shared += float64(n - p)
		}
		shared /= float64(j - i + 1)
		for p := i; p <= j; p++ {
			rps[ranked[p].PairNo] = shared
		}
		i = j + 1
	}

	return rps, aps
}
