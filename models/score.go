package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AvgToken is an adjudicated score assigned when a board could not be played
// out normally. Tokens carry a fixed match-point yield instead of being
// compared against other results on the board.
type AvgToken string

const (
	AvgTokenNone       AvgToken = ""
	AvgTokenPar        AvgToken = "AVG"
	AvgTokenPlus       AvgToken = "AVG+"
	AvgTokenPlusPlus   AvgToken = "AVG++"
	AvgTokenMinus      AvgToken = "AVG-"
	AvgTokenMinusMinus AvgToken = "AVG--"
)

func (t AvgToken) IsValid() bool {
	switch t {
	case AvgTokenPar, AvgTokenPlus, AvgTokenPlusPlus, AvgTokenMinus, AvgTokenMinusMinus:
		return true
	}
	return false
}

// MatchPointPct returns the fixed match-point yield of the token, as a
// percentage of the board's maximum.
func (t AvgToken) MatchPointPct() float64 {
	switch t {
	case AvgTokenPlusPlus:
		return 70
	case AvgTokenPlus:
		return 60
	case AvgTokenMinus:
		return 40
	case AvgTokenMinusMinus:
		return 30
	default: // AvgTokenPar
		return 50
	}
}

// ScoreValue хранит результат одной стороны раздачи: либо целое число очков,
// либо один из символических AVG-токенов.
type ScoreValue struct {
	Points int      `json:"-"`
	Avg    AvgToken `json:"-"`
}

func RawScore(points int) ScoreValue {
	return ScoreValue{Points: points}
}

func AvgScore(token AvgToken) ScoreValue {
	return ScoreValue{Avg: token}
}

func (v ScoreValue) IsAvg() bool {
	return v.Avg != AvgTokenNone
}

func (v ScoreValue) String() string {
	if v.IsAvg() {
		return string(v.Avg)
	}
	return strconv.Itoa(v.Points)
}

// ParseScoreValue accepts a raw integer string or one of the five AVG tokens.
func ParseScoreValue(s string) (ScoreValue, error) {
	if token := AvgToken(s); token.IsValid() {
		return AvgScore(token), nil
	}
	points, err := strconv.Atoi(s)
	if err != nil {
		return ScoreValue{}, fmt.Errorf("invalid score value %q", s)
	}
	return RawScore(points), nil
}

// MarshalJSON encodes raw scores as numbers and AVG tokens as strings.
func (v ScoreValue) MarshalJSON() ([]byte, error) {
	if v.IsAvg() {
		return json.Marshal(string(v.Avg))
	}
	return json.Marshal(v.Points)
}

func (v *ScoreValue) UnmarshalJSON(data []byte) error {
	var points int
	if err := json.Unmarshal(data, &points); err == nil {
		*v = RawScore(points)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("score must be an integer or an AVG token")
	}
	parsed, err := ParseScoreValue(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
