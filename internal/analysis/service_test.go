package analysis_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/riverstats/internal/analysis"
	"github.com/jonesrussell/riverstats/internal/collector"
	"github.com/jonesrussell/riverstats/internal/gateway"
	"github.com/jonesrussell/riverstats/internal/models"
	"github.com/jonesrussell/riverstats/internal/retry"
	"github.com/jonesrussell/riverstats/internal/testhelpers"
)

type fakeGateway struct {
	activityRows []json.RawMessage
	listErr      error
	patrol       map[models.Kind][]json.RawMessage
	details      map[int64]json.RawMessage
}

func (f *fakeGateway) ListActivities(context.Context, int, int) (*gateway.PageResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &gateway.PageResult{Code: 200, Total: len(f.activityRows), Rows: f.activityRows}, nil
}

func (f *fakeGateway) ListPatrolRecords(_ context.Context, page, _ int, kind models.Kind) (*gateway.PageResult, error) {
	if page == 1 {
		return &gateway.PageResult{Code: 200, Rows: f.patrol[kind]}, nil
	}
	return &gateway.PageResult{Code: 200}, nil
}

func (f *fakeGateway) GetActivityDetail(_ context.Context, id int64) (json.RawMessage, error) {
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, &gateway.ServerError{StatusCode: 500}
}

func newService(gw collector.Gateway) *analysis.Service {
	log := testhelpers.NewTestLogger()
	col := collector.New(gw, collector.Config{
		MaxPages:            100,
		MaxConsecutiveEmpty: 3,
		PatrolPageSize:      10,
		Retry:               retry.Config{MaxAttempts: 1},
	}, log)
	return analysis.New(col, log)
}

func patrolRow(userID, nickname, createTime string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"userId": %q, "nickName": %q, "createTime": %q}`, userID, nickname, createTime))
}

func activityRow(id int64, name, createTime string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"id": %d, "actName": %q, "createTime": %q, "actType": 2, "signInMemberNum": 3}`,
		id, name, createTime))
}

func detailPayload(id int64, name string, memberIDs ...int64) json.RawMessage {
	rows := ""
	for i, m := range memberIDs {
		if i > 0 {
			rows += ","
		}
		rows += fmt.Sprintf(`{"id": %d, "nickName": "member%d", "isSignupStatus": 1}`, m, m)
	}
	return json.RawMessage(fmt.Sprintf(
		`{"code": 200, "data": {"id": %d, "actName": %q, "startTime": "2025-06-02 09:00:00",
		  "activeMemberBoTableDataInfo": {"rows": [%s]}}}`, id, name, rows))
}

func TestRunPatrolAnalysis(t *testing.T) {
	gw := &fakeGateway{
		patrol: map[models.Kind][]json.RawMessage{
			models.KindPatrol: {
				patrolRow("1", "a", "2025-06-02 10:00:00"),
				patrolRow("1", "a", "2025-06-03 10:00:00"),
				patrolRow("2", "b", "2025-06-02 11:00:00"),
			},
		},
	}

	users, err := newService(gw).RunPatrolAnalysis(context.Background(), "2025-06-01", models.KindPatrol, collector.NopSink{})
	require.NoError(t, err)

	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].Nickname)
	assert.Equal(t, 2, users[0].PostCount)
}

func TestRunPatrolAnalysisInvalidDate(t *testing.T) {
	_, err := newService(&fakeGateway{}).RunPatrolAnalysis(context.Background(), "06/01/2025", models.KindPatrol, collector.NopSink{})
	assert.ErrorIs(t, err, analysis.ErrInvalidDate)
}

func TestRunPatrolAnalysisNoMatches(t *testing.T) {
	gw := &fakeGateway{
		patrol: map[models.Kind][]json.RawMessage{
			models.KindPatrol: {patrolRow("1", "a", "2020-01-01 10:00:00")},
		},
	}
	_, err := newService(gw).RunPatrolAnalysis(context.Background(), "2025-06-01", models.KindPatrol, collector.NopSink{})
	assert.ErrorIs(t, err, analysis.ErrNoMatches)
}

func TestRunActivityAnalysis(t *testing.T) {
	gw := &fakeGateway{
		activityRows: []json.RawMessage{
			activityRow(1, "act1", "2025-06-02 10:00:00"),
			activityRow(2, "act2", "2025-06-03 10:00:00"),
			activityRow(3, "too old", "2025-01-01 10:00:00"),
		},
		details: map[int64]json.RawMessage{
			1: detailPayload(1, "act1", 10, 11),
			2: detailPayload(2, "act2", 10),
		},
	}

	result, err := newService(gw).RunActivityAnalysis(context.Background(), "2025-06-01", collector.NopSink{})
	require.NoError(t, err)

	assert.Len(t, result.Activities, 2)
	assert.Equal(t, 2, result.Stats.TotalActivities)

	require.Len(t, result.Participants, 2)
	assert.Equal(t, int64(10), result.Participants[0].ID)
	assert.Equal(t, 2, result.Participants[0].ActivityCount)
}

func TestRunActivityAnalysisOutcomes(t *testing.T) {
	t.Run("invalid date", func(t *testing.T) {
		_, err := newService(&fakeGateway{}).RunActivityAnalysis(context.Background(), "bad", collector.NopSink{})
		assert.ErrorIs(t, err, analysis.ErrInvalidDate)
	})

	t.Run("nothing listed", func(t *testing.T) {
		_, err := newService(&fakeGateway{}).RunActivityAnalysis(context.Background(), "2025-06-01", collector.NopSink{})
		assert.ErrorIs(t, err, analysis.ErrNoData)
	})

	t.Run("nothing after floor", func(t *testing.T) {
		gw := &fakeGateway{
			activityRows: []json.RawMessage{activityRow(1, "old", "2020-01-01 10:00:00")},
		}
		_, err := newService(gw).RunActivityAnalysis(context.Background(), "2025-06-01", collector.NopSink{})
		assert.ErrorIs(t, err, analysis.ErrNoMatches)
	})

	t.Run("every detail fetch failed", func(t *testing.T) {
		gw := &fakeGateway{
			activityRows: []json.RawMessage{activityRow(1, "act", "2025-06-02 10:00:00")},
		}
		_, err := newService(gw).RunActivityAnalysis(context.Background(), "2025-06-01", collector.NopSink{})
		assert.ErrorIs(t, err, analysis.ErrNoData)
	})
}

func TestRunComprehensiveAnalysis(t *testing.T) {
	gw := &fakeGateway{
		patrol: map[models.Kind][]json.RawMessage{
			models.KindPatrol: {
				patrolRow("1", "A", "2025-06-02 10:00:00"),
				patrolRow("1", "A", "2025-06-02 11:00:00"),
				patrolRow("1", "A", "2025-06-02 12:00:00"),
			},
			models.KindEvaluation: {
				patrolRow("1", "A", "2025-06-02 13:00:00"),
				patrolRow("1", "A", "2025-06-02 14:00:00"),
				patrolRow("2", "B", "2025-06-02 15:00:00"),
			},
		},
		activityRows: []json.RawMessage{activityRow(1, "act", "2025-06-02 10:00:00")},
		details: map[int64]json.RawMessage{
			1: detailPayload(1, "act", 20),
		},
	}

	merged, err := newService(gw).RunComprehensiveAnalysis(context.Background(), "2025-06-01", collector.NopSink{})
	require.NoError(t, err)

	byName := map[string]models.ComprehensiveStat{}
	for _, s := range merged {
		byName[s.Name] = s
	}

	a := byName["A"]
	assert.Equal(t, 3, a.PatrolCount)
	assert.Equal(t, 2, a.EvaluationCount)
	assert.Equal(t, 5, a.TotalCount)

	b := byName["B"]
	assert.Equal(t, 1, b.EvaluationCount)
	assert.Equal(t, 1, b.TotalCount)

	m := byName["member20"]
	assert.Equal(t, 1, m.ActivityCount)
	assert.Equal(t, 1, m.TotalCount)
}

func TestRunComprehensiveAnalysisSurvivesActivityFailure(t *testing.T) {
	gw := &fakeGateway{
		patrol: map[models.Kind][]json.RawMessage{
			models.KindPatrol: {patrolRow("1", "A", "2025-06-02 10:00:00")},
		},
		listErr: &gateway.ServerError{StatusCode: 503},
	}

	merged, err := newService(gw).RunComprehensiveAnalysis(context.Background(), "2025-06-01", collector.NopSink{})
	require.NoError(t, err)

	require.Len(t, merged, 1)
	assert.Equal(t, "A", merged[0].Name)
	assert.Equal(t, 1, merged[0].PatrolCount)
	assert.Equal(t, 0, merged[0].ActivityCount)
}

func TestRunComprehensiveAnalysisNoMatches(t *testing.T) {
	gw := &fakeGateway{listErr: &gateway.ServerError{StatusCode: 503}}
	_, err := newService(gw).RunComprehensiveAnalysis(context.Background(), "2025-06-01", collector.NopSink{})
	assert.ErrorIs(t, err, analysis.ErrNoMatches)
}
