package scoring

import (
	"sort"

	"github.com/tichu-tools/pairs-server/models"
)

// HandScore is one board result with the match points both sides earned for
// it, as percentages of the board's maximum.
type HandScore struct {
	Result        *models.HandResult `json:"result"`
	NSMatchPoints float64            `json:"ns_match_points"`
	EWMatchPoints float64            `json:"ew_match_points"`
}

// MatchPointsFor returns the side of interest's match points.
func (s HandScore) MatchPointsFor(seat models.SeatSide) float64 {
	if seat == models.SeatSideEW {
		return s.EWMatchPoints
	}
	return s.NSMatchPoints
}

// ScoreBoard computes match points for every live result on a single board.
//
// Results where both sides hold raw scores are compared pairwise from the
// North/South perspective: 2 points for each strictly greater net score, 1
// for each tie, normalized by twice the number of comparisons. The East/West
// side earns the complement. AVG tokens yield their fixed percentage instead
// of entering the comparison; a raw score facing an AVG token yields the
// complement of that token. A board with nothing to compare against scores
// par.
func ScoreBoard(results []*models.HandResult) []HandScore {
	comparable := make([]*models.HandResult, 0, len(results))
	for _, r := range results {
		if !r.NSScore.IsAvg() && !r.EWScore.IsAvg() {
			comparable = append(comparable, r)
		}
	}

	scores := make([]HandScore, 0, len(results))
	for _, r := range results {
		ns := nsMatchPoints(r, comparable)
		scores = append(scores, HandScore{
			Result:        r,
			NSMatchPoints: ns,
			EWMatchPoints: ewMatchPoints(r, ns),
		})
	}
	return scores
}

func nsMatchPoints(r *models.HandResult, comparable []*models.HandResult) float64 {
	if r.NSScore.IsAvg() {
		return r.NSScore.Avg.MatchPointPct()
	}
	if r.EWScore.IsAvg() {
		return 100 - r.EWScore.Avg.MatchPointPct()
	}

	net := r.NetScore(models.SeatSideNS)
	points := 0
	comparisons := 0
	for _, other := range comparable {
		if other == r || other.Key == r.Key {
			continue
		}
		comparisons++
		switch otherNet := other.NetScore(models.SeatSideNS); {
		case net > otherNet:
			points += 2
		case net == otherNet:
			points++
		}
	}
	if comparisons == 0 {
		return 50
	}
	return float64(points) / float64(2*comparisons) * 100
}

func ewMatchPoints(r *models.HandResult, nsPoints float64) float64 {
	if r.EWScore.IsAvg() {
		return r.EWScore.Avg.MatchPointPct()
	}
	return 100 - nsPoints
}

// SortByMatchPoints orders scores by the given side's match points, highest
// first, with net score and pair number as deterministic tie breakers.
func SortByMatchPoints(scores []HandScore, seat models.SeatSide) {
	sort.SliceStable(scores, func(i, j int) bool {
		mi, mj := scores[i].MatchPointsFor(seat), scores[j].MatchPointsFor(seat)
		if mi != mj {
			return mi > mj
		}
		return scores[i].Result.Key.NSPair < scores[j].Result.Key.NSPair
	})
}
