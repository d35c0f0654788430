// Package normalize converts raw portal API payloads into canonical records.
// The upstream mixes several envelope shapes for the same entity, so each
// entity kind has an explicit, ordered list of shape matchers; records that
// match none are rejected with ErrUnrecognizedShape and dropped by callers.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/jonesrussell/riverstats/internal/models"
)

// ErrUnrecognizedShape is returned when a payload matches none of the known
// envelope shapes.
var ErrUnrecognizedShape = errors.New("record matches no known envelope shape")

// Placeholder values for fields the upstream left empty, matching the labels
// the portal app itself displays.
const (
	UnknownName     = "未知"
	NotProvided     = "未提供"
	UnknownUser     = "未知用户"
	UnknownActivity = "未知活动"
	UnknownTime     = "未知时间"

	// actType code for a patrol walk; every other code is a beach clean.
	actTypePatrolWalk = 2
)

type envelope struct {
	Code json.RawMessage `json:"code"`
	Data json.RawMessage `json:"data"`
}

type rawActivity struct {
	ID              flexInt64  `json:"id"`
	ActName         string     `json:"actName"`
	MemberName      string     `json:"memberName"`
	MemberMobile    string     `json:"memberMobile"`
	StartTime       string     `json:"startTime"`
	CreateTime      string     `json:"createTime"`
	Address         string     `json:"address"`
	ActType         flexInt    `json:"actType"`
	Status          flexInt    `json:"status"`
	MaxMemberNum    flexInt    `json:"maxMemberNum"`
	SignInMemberNum flexInt    `json:"signInMemberNum"`
	LookNum         flexInt    `json:"lookNum"`
	OrgName         string     `json:"orgName"`
}

// Activity normalizes one raw activity payload. Accepted shapes, first match
// wins:
//
//  1. {code: 200, data: {...}}   (numeric business code)
//  2. {code: "200", data: {...}} (string business code)
//  3. a bare activity object carrying id or actName directly
//  4. any object with a nested data field
func Activity(raw json.RawMessage) (models.ActivityRecord, error) {
	obj, err := unwrapActivity(raw)
	if err != nil {
		return models.ActivityRecord{}, err
	}

	var a rawActivity
	if err := json.Unmarshal(obj, &a); err != nil {
		return models.ActivityRecord{}, ErrUnrecognizedShape
	}

	rec := models.ActivityRecord{
		ID:             int64(a.ID),
		Name:           orDefault(a.ActName, UnknownName),
		OrganizerName:  orDefault(a.MemberName, UnknownName),
		OrganizerPhone: orDefault(a.MemberMobile, NotProvided),
		StartTime:      orDefault(a.StartTime, UnknownName),
		CreateTime:     a.CreateTime,
		Address:        orDefault(a.Address, UnknownName),
		Type:           models.ActivityTypeBeachClean,
		Status:         int(a.Status),
		MaxMembers:     int(a.MaxMemberNum),
		SignedIn:       int(a.SignInMemberNum),
		Views:          int(a.LookNum),
		OrgName:        orDefault(a.OrgName, UnknownName),
	}
	if int(a.ActType) == actTypePatrolWalk {
		rec.Type = models.ActivityTypePatrolWalk
	}
	return rec, nil
}

// unwrapActivity resolves the envelope variants to the inner activity object.
func unwrapActivity(raw json.RawMessage) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrUnrecognizedShape
	}

	hasData := len(env.Data) > 0 && !bytes.Equal(bytes.TrimSpace(env.Data), []byte("null"))

	code := bytes.TrimSpace(env.Code)
	if hasData && (bytes.Equal(code, []byte("200")) || bytes.Equal(code, []byte(`"200"`))) {
		return env.Data, nil
	}

	var probe struct {
		ID      json.RawMessage `json:"id"`
		ActName json.RawMessage `json:"actName"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		if len(probe.ID) > 0 || len(probe.ActName) > 0 {
			return raw, nil
		}
	}

	if hasData {
		return env.Data, nil
	}
	return nil, ErrUnrecognizedShape
}

type rawMemberTable struct {
	Rows []rawMember `json:"rows"`
}

type rawMember struct {
	ID             flexInt64 `json:"id"`
	NickName       string    `json:"nickName"`
	Mobile         string    `json:"mobile"`
	IsSignupStatus flexInt   `json:"isSignupStatus"`
}

type rawDetailData struct {
	ID        flexInt64      `json:"id"`
	ActName   string         `json:"actName"`
	StartTime string         `json:"startTime"`
	Members   rawMemberTable `json:"activeMemberBoTableDataInfo"`
}

// ActivityDetail normalizes one activity-detail payload into the activity's
// identifying fields plus its member roster. The detail endpoint always
// wraps its payload in a business envelope; anything without code 200 and a
// data object is rejected.
func ActivityDetail(raw json.RawMessage) (models.ActivityDetail, error) {
	var env struct {
		Code flexInt         `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.ActivityDetail{}, ErrUnrecognizedShape
	}
	if int(env.Code) != 200 || len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return models.ActivityDetail{}, ErrUnrecognizedShape
	}

	var data rawDetailData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return models.ActivityDetail{}, ErrUnrecognizedShape
	}

	detail := models.ActivityDetail{
		ID:        int64(data.ID),
		Name:      orDefault(data.ActName, UnknownActivity),
		StartTime: orDefault(data.StartTime, UnknownTime),
	}
	for _, m := range data.Members.Rows {
		detail.Members = append(detail.Members, models.ActivityMember{
			ID:        int64(m.ID),
			Nickname:  orDefault(m.NickName, UnknownName),
			Phone:     m.Mobile,
			CheckedIn: int(m.IsSignupStatus) == 1,
		})
	}
	return detail, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
