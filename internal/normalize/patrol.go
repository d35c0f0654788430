package normalize

import (
	"encoding/json"

	"github.com/jonesrussell/riverstats/internal/models"
)

type rawPatrolRow struct {
	UserID       flexString `json:"userId"`
	MemberID     flexString `json:"memberId"`
	NickName     string     `json:"nickName"`
	Mobile       string     `json:"mobile"`
	MemberMobile string     `json:"memberMobile"`
	CreateTime   string     `json:"createTime"`
	Msg          string     `json:"msg"`
	RiverName    string     `json:"riverName"`
}

// PatrolPost normalizes one patrol/evaluation list row. Rows never fail
// outright: missing fields get defaults, and the user id falls back from
// userId to memberId to empty.
func PatrolPost(raw json.RawMessage) (models.PatrolPost, error) {
	var row rawPatrolRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return models.PatrolPost{}, ErrUnrecognizedShape
	}

	userID := string(row.UserID)
	if userID == "" {
		userID = string(row.MemberID)
	}
	phone := row.Mobile
	if phone == "" {
		phone = row.MemberMobile
	}

	return models.PatrolPost{
		UserID:    userID,
		Nickname:  orDefault(row.NickName, UnknownUser),
		Phone:     phone,
		PostTime:  row.CreateTime,
		Message:   row.Msg,
		RiverName: row.RiverName,
	}, nil
}
