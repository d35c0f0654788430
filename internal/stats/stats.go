// Package stats folds normalized records into per-identity statistics.
// Accumulators are built fresh per analysis run and handed to the caller;
// nothing here survives across runs.
package stats

import (
	"math"
	"sort"

	"github.com/jonesrussell/riverstats/internal/models"
)

// BuildUserPostStats folds patrol posts into per-user rollups, sorted by
// post count descending (stable for ties). The phone number keeps the first
// non-empty value seen and is never overwritten.
func BuildUserPostStats(posts []models.PatrolPost) []models.UserPostStats {
	byKey := make(map[string]*models.UserPostStats)
	var order []string

	for _, p := range posts {
		key := p.GroupKey()
		s, ok := byKey[key]
		if !ok {
			s = &models.UserPostStats{
				UserID:   p.UserID,
				Nickname: p.Nickname,
				Phone:    p.Phone,
			}
			byKey[key] = s
			order = append(order, key)
		}
		if s.Phone == "" && p.Phone != "" {
			s.Phone = p.Phone
		}
		s.PostCount++
		s.PostTimes = append(s.PostTimes, p.PostTime)
		s.Messages = append(s.Messages, p.Message)
		s.RiverNames = append(s.RiverNames, p.RiverName)
	}

	result := make([]models.UserPostStats, 0, len(order))
	for _, key := range order {
		result = append(result, *byKey[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PostCount > result[j].PostCount
	})
	return result
}

// BuildParticipants folds activity rosters into per-person participation
// records, sorted by activity count descending. Members without an id are
// skipped. The activity-name list is deduplicated by name; the detail list
// gets one row per roster appearance.
func BuildParticipants(details []models.ActivityDetail) []models.ParticipantRecord {
	byID := make(map[int64]*models.ParticipantRecord)
	var order []int64

	for _, d := range details {
		for _, m := range d.Members {
			if m.ID == 0 {
				continue
			}
			p, ok := byID[m.ID]
			if !ok {
				p = &models.ParticipantRecord{
					ID:       m.ID,
					Nickname: m.Nickname,
					Phone:    m.Phone,
				}
				byID[m.ID] = p
				order = append(order, m.ID)
			}
			if p.Phone == "" && m.Phone != "" {
				p.Phone = m.Phone
			}
			p.ActivityCount++
			if !containsString(p.ActivityNames, d.Name) {
				p.ActivityNames = append(p.ActivityNames, d.Name)
			}
			p.Details = append(p.Details, models.ParticipationDetail{
				ActivityID:   d.ID,
				ActivityName: d.Name,
				StartTime:    d.StartTime,
				CheckedIn:    m.CheckedIn,
			})
		}
	}

	result := make([]models.ParticipantRecord, 0, len(order))
	for _, id := range order {
		result = append(result, *byID[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ActivityCount > result[j].ActivityCount
	})
	return result
}

// MergeComprehensive merges the three per-person sources into one rollup
// keyed by display name. Each source contributes at most one count per
// person, so counters are set rather than added; the total accumulates
// across sources. Rows with a zero total are dropped. Output is sorted by
// total descending, stable by first appearance for ties.
//
// Keying by display name conflates distinct people who share a name; the
// upstream data carries no better cross-source identity.
func MergeComprehensive(patrol, evaluation []models.UserPostStats, participants []models.ParticipantRecord) []models.ComprehensiveStat {
	byName := make(map[string]*models.ComprehensiveStat)
	var order []string

	upsert := func(name string) *models.ComprehensiveStat {
		s, ok := byName[name]
		if !ok {
			s = &models.ComprehensiveStat{Name: name}
			byName[name] = s
			order = append(order, name)
		}
		return s
	}

	for _, u := range patrol {
		s := upsert(u.Nickname)
		s.PatrolCount = u.PostCount
		s.TotalCount += u.PostCount
	}
	for _, u := range evaluation {
		s := upsert(u.Nickname)
		s.EvaluationCount = u.PostCount
		s.TotalCount += u.PostCount
	}
	for _, p := range participants {
		s := upsert(p.Nickname)
		s.ActivityCount = p.ActivityCount
		s.TotalCount += p.ActivityCount
	}

	result := make([]models.ComprehensiveStat, 0, len(order))
	for _, name := range order {
		if byName[name].TotalCount > 0 {
			result = append(result, *byName[name])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalCount > result[j].TotalCount
	})
	return result
}

// CalculateActivityStats summarizes a set of activities. An empty input
// yields all-zero fields, including the average.
func CalculateActivityStats(activities []models.ActivityRecord) models.ActivityStats {
	s := models.ActivityStats{}
	if len(activities) == 0 {
		return s
	}

	s.TotalActivities = len(activities)
	for _, a := range activities {
		if a.Type == models.ActivityTypePatrolWalk {
			s.PatrolWalkCount++
		} else {
			s.BeachCleanCount++
		}
		s.TotalParticipants += a.SignedIn
	}
	s.AvgParticipants = round2(float64(s.TotalParticipants) / float64(s.TotalActivities))
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
