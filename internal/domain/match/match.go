package match

import (
	"sort"
	"strings"

	"github.com/sangamam/matrimony/internal/domain/profile"
)

// MaxScore is the number of scored criteria.
const MaxScore = 8

// Candidate is the flattened fact set for one profile in the candidate pool,
// as produced by the complete-profile read model.
type Candidate struct {
	ProfileID    uint    `json:"matchProfileId"`
	UserID       uint    `json:"matchUserId"`
	SerialNumber string  `json:"serialNumber"`
	Name         string  `json:"name"`
	Age          int     `json:"age"`
	HeightCm     *int    `json:"heightCm"`
	Gender       string  `json:"gender"`
	Education    string  `json:"education,omitempty"`
	Occupation   string  `json:"occupation,omitempty"`
	AnnualIncome string  `json:"annualIncome,omitempty"`
	City         string  `json:"city,omitempty"`
	State        string  `json:"state,omitempty"`
	Country      string  `json:"country,omitempty"`
	Star         string  `json:"star,omitempty"`
	Rasi         string  `json:"rasi,omitempty"`
	AboutMe      string  `json:"aboutMe,omitempty"`
	PhotoFileID1 *string `json:"photoFileId1,omitempty"`
	PhotoFileID2 *string `json:"photoFileId2,omitempty"`
	Score        int     `json:"matchScore"`
}

// Score counts how many of the eight criteria the candidate satisfies against
// the subject's partner preferences. A criterion whose preference is unset, or
// whose candidate fact is unknown, counts as satisfied; only an explicit
// mismatch withholds the point. A nil preference row satisfies everything.
func Score(prefs *profile.PartnerPreferences, c Candidate) int {
	if prefs == nil {
		return MaxScore
	}

	score := 0
	if inRange(prefs.AgeFrom, prefs.AgeTo, intPtrOrNil(c.Age)) {
		score++
	}
	if inRange(prefs.HeightFrom, prefs.HeightTo, c.HeightCm) {
		score++
	}
	if inSet(prefs.EducationPreference, c.Education) {
		score++
	}
	if inSet(prefs.OccupationPreference, c.Occupation) {
		score++
	}
	if inSet(prefs.IncomePreference, c.AnnualIncome) {
		score++
	}
	if locationMatches(prefs.LocationPreference, c) {
		score++
	}
	if inSet(prefs.StarPreference, c.Star) {
		score++
	}
	if inSet(prefs.RasiPreference, c.Rasi) {
		score++
	}
	return score
}

// Rank scores every candidate and orders the slice by descending score, ties
// broken by descending profile id.
func Rank(prefs *profile.PartnerPreferences, candidates []Candidate) []Candidate {
	for i := range candidates {
		candidates[i].Score = Score(prefs, candidates[i])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ProfileID > candidates[j].ProfileID
	})
	return candidates
}

func intPtrOrNil(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// inRange treats missing bounds and a missing value as satisfied.
func inRange(from, to, value *int) bool {
	if value == nil {
		return true
	}
	if from != nil && *value < *from {
		return false
	}
	if to != nil && *value > *to {
		return false
	}
	return true
}

// inSet matches value against a comma-separated preference list,
// case-insensitively. An empty list or empty value is satisfied.
func inSet(prefList, value string) bool {
	prefList = strings.TrimSpace(prefList)
	value = strings.TrimSpace(value)
	if prefList == "" || value == "" {
		return true
	}
	for _, part := range strings.Split(prefList, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return true
		}
	}
	return false
}

// locationMatches accepts a hit on any of the candidate's location facts.
func locationMatches(prefList string, c Candidate) bool {
	if strings.TrimSpace(prefList) == "" {
		return true
	}
	if c.City == "" && c.State == "" && c.Country == "" {
		return true
	}
	for _, loc := range []string{c.City, c.State, c.Country} {
		if loc == "" {
			continue
		}
		if inSet(prefList, loc) {
			return true
		}
	}
	return false
}
