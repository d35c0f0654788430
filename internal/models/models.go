// Package models defines the canonical record types produced by the
// riverstats aggregation pipeline. All statistics are derived per run and
// never persisted.
package models

// Kind selects one of the two patrol-style data sources. Both share the same
// upstream schema and are distinguished only by the useType query parameter.
type Kind int

const (
	// KindPatrol is river patrol data (useType=1).
	KindPatrol Kind = 1
	// KindEvaluation is river evaluation data (useType=2).
	KindEvaluation Kind = 2
)

// UseType returns the upstream useType query parameter value.
func (k Kind) UseType() int { return int(k) }

// Label returns the Chinese display label used in exports and progress
// messages.
func (k Kind) Label() string {
	if k == KindPatrol {
		return "河流巡护"
	}
	return "河流评测"
}

// ActivityType classifies an activity. The upstream type code is binary:
// actType == 2 is a river patrol walk, everything else is a beach clean.
type ActivityType string

const (
	ActivityTypePatrolWalk ActivityType = "巡河"
	ActivityTypeBeachClean ActivityType = "净滩"
)

// ActivityRecord is the canonical shape of one community activity.
type ActivityRecord struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	OrganizerName  string       `json:"organizer_name"`
	OrganizerPhone string       `json:"organizer_phone"`
	StartTime      string       `json:"start_time"`
	CreateTime     string       `json:"create_time"`
	Address        string       `json:"address"`
	Type           ActivityType `json:"type"`
	Status         int          `json:"status"`
	MaxMembers     int          `json:"max_members"`
	SignedIn       int          `json:"signed_in"`
	Views          int          `json:"views"`
	OrgName        string       `json:"org_name"`
}

// ActivityMember is one person on an activity's member roster.
type ActivityMember struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	Phone     string `json:"phone"`
	CheckedIn bool   `json:"checked_in"`
}

// ActivityDetail is the canonical shape of one activity-detail payload:
// the activity's identifying fields plus its member roster.
type ActivityDetail struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	StartTime string           `json:"start_time"`
	Members   []ActivityMember `json:"members"`
}

// ParticipationDetail is one activity appearance of a participant.
type ParticipationDetail struct {
	ActivityID   int64  `json:"activity_id"`
	ActivityName string `json:"activity_name"`
	StartTime    string `json:"start_time"`
	CheckedIn    bool   `json:"checked_in"`
}

// ParticipantRecord aggregates one person's participation across activities.
type ParticipantRecord struct {
	ID            int64                 `json:"id"`
	Nickname      string                `json:"nickname"`
	Phone         string                `json:"phone"`
	ActivityCount int                   `json:"activity_count"`
	ActivityNames []string              `json:"activity_names"`
	Details       []ParticipationDetail `json:"details"`
}

// PatrolPost is one user-submitted patrol or evaluation record.
type PatrolPost struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	Phone     string `json:"phone"`
	PostTime  string `json:"post_time"`
	Message   string `json:"message"`
	RiverName string `json:"river_name"`
}

// GroupKey returns the identity key used to aggregate posts. Posts without a
// numeric user id fall back to the nickname, which can conflate two
// anonymous users sharing a display name. This mirrors upstream behavior and
// is a known data-quality caveat.
func (p PatrolPost) GroupKey() string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.Nickname
}

// UserPostStats is the per-user rollup of PatrolPost records.
type UserPostStats struct {
	UserID     string   `json:"user_id"`
	Nickname   string   `json:"nickname"`
	Phone      string   `json:"phone"`
	PostCount  int      `json:"post_count"`
	PostTimes  []string `json:"post_times"`
	Messages   []string `json:"messages"`
	RiverNames []string `json:"river_names"`
}

// ComprehensiveStat is the per-person rollup merged across the patrol,
// evaluation, and activity-participation sources. Rows are keyed by display
// name, so distinct people sharing a name are counted together.
type ComprehensiveStat struct {
	Name            string `json:"name"`
	PatrolCount     int    `json:"patrol_count"`
	EvaluationCount int    `json:"evaluation_count"`
	ActivityCount   int    `json:"activity_count"`
	TotalCount      int    `json:"total_count"`
}

// ActivityStats summarizes a set of activities.
type ActivityStats struct {
	TotalActivities   int     `json:"total_activities"`
	PatrolWalkCount   int     `json:"patrol_walk_count"`
	BeachCleanCount   int     `json:"beach_clean_count"`
	TotalParticipants int     `json:"total_participants"`
	AvgParticipants   float64 `json:"avg_participants"`
}
