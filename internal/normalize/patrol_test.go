package normalize_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/riverstats/internal/normalize"
)

func TestPatrolPost(t *testing.T) {
	raw := `{
		"userId": 101,
		"nickName": "王五",
		"mobile": "13900000000",
		"createTime": "2025-06-02 10:30:00",
		"msg": "river looks clean",
		"riverName": "小河"
	}`

	post, err := normalize.PatrolPost(json.RawMessage(raw))
	require.NoError(t, err)

	assert.Equal(t, "101", post.UserID)
	assert.Equal(t, "王五", post.Nickname)
	assert.Equal(t, "13900000000", post.Phone)
	assert.Equal(t, "2025-06-02 10:30:00", post.PostTime)
	assert.Equal(t, "river looks clean", post.Message)
	assert.Equal(t, "小河", post.RiverName)
}

func TestPatrolPostFallbacks(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantUserID   string
		wantNickname string
		wantPhone    string
	}{
		{
			name:         "memberId when userId missing",
			raw:          `{"memberId": "202", "nickName": "a"}`,
			wantUserID:   "202",
			wantNickname: "a",
		},
		{
			name:         "userId wins over memberId",
			raw:          `{"userId": "1", "memberId": "2", "nickName": "a"}`,
			wantUserID:   "1",
			wantNickname: "a",
		},
		{
			name:         "no id at all",
			raw:          `{"nickName": "b"}`,
			wantUserID:   "",
			wantNickname: "b",
		},
		{
			name:         "nickname default",
			raw:          `{"userId": 3}`,
			wantUserID:   "3",
			wantNickname: normalize.UnknownUser,
		},
		{
			name:         "memberMobile when mobile missing",
			raw:          `{"userId": 4, "nickName": "c", "memberMobile": "555"}`,
			wantUserID:   "4",
			wantNickname: "c",
			wantPhone:    "555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := normalize.PatrolPost(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, post.UserID)
			assert.Equal(t, tt.wantNickname, post.Nickname)
			assert.Equal(t, tt.wantPhone, post.Phone)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := normalize.ParseTimestamp("2025-06-01 09:30:00")
	require.NoError(t, err)
	assert.Equal(t, 2025, ts.Year())
	assert.Equal(t, 9, ts.Hour())

	_, err = normalize.ParseTimestamp("2025-06-01")
	assert.Error(t, err)

	_, err = normalize.ParseTimestamp("")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := normalize.ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, 0, d.Hour())

	_, err = normalize.ParseDate("06/01/2025")
	assert.Error(t, err)
}
