// Package export projects aggregated statistics into .xlsx workbooks. Sheet
// and column names mirror the portal app's own exports so the spreadsheets
// are drop-in replacements for the ones volunteers already use.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/riverstats/internal/logger"
	"github.com/jonesrussell/riverstats/internal/models"
	"github.com/jonesrussell/riverstats/internal/normalize"
)

// Writer saves analysis results as spreadsheet files under a directory.
type Writer struct {
	outDir string
	log    logger.Logger
	now    func() time.Time
}

// NewWriter creates a Writer that saves workbooks under outDir.
func NewWriter(outDir string, log logger.Logger) *Writer {
	return &Writer{outDir: outDir, log: log, now: time.Now}
}

// ExportActivities writes the activity basic-info sheet.
func (w *Writer) ExportActivities(activities []models.ActivityRecord, date string) (string, error) {
	wb := newWorkbook()
	rows := make([][]any, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, []any{
			a.ID, a.Name, a.OrganizerName, a.OrganizerPhone, a.StartTime,
			a.Address, string(a.Type), a.Status, a.MaxMembers, a.SignedIn,
			a.Views, a.OrgName,
		})
	}
	if err := wb.addSheet("活动基本信息",
		[]string{"活动ID", "活动名称", "发起人", "发起人电话", "开始时间", "活动地址", "活动类型", "状态", "最大人数", "实际参与人数", "浏览量", "组织名称"},
		rows,
	); err != nil {
		return "", err
	}
	return w.save(wb, "活动数据", date)
}

// ExportParticipants writes the participant rollup, the flattened
// per-appearance detail sheet, and the activity summary sheet.
func (w *Writer) ExportParticipants(participants []models.ParticipantRecord, st models.ActivityStats, date string) (string, error) {
	wb := newWorkbook()

	rows := make([][]any, 0, len(participants))
	for _, p := range participants {
		rows = append(rows, []any{
			p.ID, p.Nickname, phoneOrDefault(p.Phone), p.ActivityCount,
			strings.Join(p.ActivityNames, "、"),
		})
	}
	if err := wb.addSheet("参与者统计",
		[]string{"参与者ID", "昵称", "手机号", "参与活动数", "活动名称"},
		rows,
	); err != nil {
		return "", err
	}

	var detailRows [][]any
	for _, p := range participants {
		for _, d := range p.Details {
			status := "未签到"
			if d.CheckedIn {
				status = "已签到"
			}
			detailRows = append(detailRows, []any{
				p.ID, p.Nickname, phoneOrDefault(p.Phone),
				d.ActivityID, d.ActivityName, d.StartTime, status,
			})
		}
	}
	if err := wb.addSheet("活动详情",
		[]string{"参与者ID", "昵称", "手机号", "活动ID", "活动名称", "活动时间", "报名状态"},
		detailRows,
	); err != nil {
		return "", err
	}

	if err := wb.addSheet("活动统计",
		[]string{"活动总数", "巡河活动数", "净滩活动数", "总参与人数", "平均参与人数"},
		[][]any{{st.TotalActivities, st.PatrolWalkCount, st.BeachCleanCount, st.TotalParticipants, st.AvgParticipants}},
	); err != nil {
		return "", err
	}

	return w.save(wb, "参与者统计", date)
}

// ExportPatrol writes the per-user post statistics plus an overview sheet.
// The overview reductions special-case an empty dataset to zeros.
func (w *Writer) ExportPatrol(users []models.UserPostStats, kind models.Kind, date string) (string, error) {
	wb := newWorkbook()

	rows := make([][]any, 0, len(users))
	for i, u := range users {
		rows = append(rows, []any{
			i + 1, u.UserID, u.Nickname, phoneOrDefault(u.Phone), u.PostCount,
			u.PostTimes, u.Messages, u.RiverNames,
		})
	}
	if err := wb.addSheet("用户发帖统计",
		[]string{"序号", "用户ID", "用户名", "手机号", "发帖次数", "所有发帖时间", "所有发帖消息", "所有河流名称"},
		rows,
	); err != nil {
		return "", err
	}

	totalPosts, maxPosts, minPosts := 0, 0, 0
	avgPosts := 0.0
	if len(users) > 0 {
		minPosts = users[0].PostCount
		for _, u := range users {
			totalPosts += u.PostCount
			if u.PostCount > maxPosts {
				maxPosts = u.PostCount
			}
			if u.PostCount < minPosts {
				minPosts = u.PostCount
			}
		}
		avgPosts = round2(float64(totalPosts) / float64(len(users)))
	}
	if err := wb.addSheet("数据概览",
		[]string{"总发帖人数", "总发帖次数", "平均发帖次数", "最多发帖数", "最少发帖数", "数据生成时间"},
		[][]any{{len(users), totalPosts, avgPosts, maxPosts, minPosts, w.now().Format(normalize.TimestampLayout)}},
	); err != nil {
		return "", err
	}

	return w.save(wb, kind.Label()+"数据", date)
}

// ExportComprehensive writes the merged per-person counts plus a summary
// sheet of totals, means, and extremes.
func (w *Writer) ExportComprehensive(merged []models.ComprehensiveStat, date string) (string, error) {
	wb := newWorkbook()

	rows := make([][]any, 0, len(merged))
	for _, s := range merged {
		rows = append(rows, []any{s.Name, s.PatrolCount, s.EvaluationCount, s.ActivityCount, s.TotalCount})
	}
	if err := wb.addSheet("综合次数统计",
		[]string{"姓名", "巡护次数", "评测次数", "活动次数", "总次数"},
		rows,
	); err != nil {
		return "", err
	}

	var totalPatrol, totalEval, totalActivity, totalOverall, maxTotal, minTotal int
	if len(merged) > 0 {
		minTotal = merged[0].TotalCount
		for _, s := range merged {
			totalPatrol += s.PatrolCount
			totalEval += s.EvaluationCount
			totalActivity += s.ActivityCount
			totalOverall += s.TotalCount
			if s.TotalCount > maxTotal {
				maxTotal = s.TotalCount
			}
			if s.TotalCount < minTotal {
				minTotal = s.TotalCount
			}
		}
	}
	n := len(merged)
	avg := func(total int) float64 {
		if n == 0 {
			return 0
		}
		return round2(float64(total) / float64(n))
	}
	if err := wb.addSheet("统计摘要",
		[]string{"总人数", "总巡护次数", "总评测次数", "总活动次数", "总计次数", "平均总次数", "平均巡护次数", "平均评测次数", "平均活动次数", "最多总次数", "最少总次数"},
		[][]any{{n, totalPatrol, totalEval, totalActivity, totalOverall, avg(totalOverall), avg(totalPatrol), avg(totalEval), avg(totalActivity), maxTotal, minTotal}},
	); err != nil {
		return "", err
	}

	return w.save(wb, "综合次数统计", date)
}

func (w *Writer) save(wb *workbook, prefix, date string) (string, error) {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.xlsx", prefix, date, w.now().Format("20060102_150405"))
	path := filepath.Join(w.outDir, name)
	if err := wb.f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	w.log.Info("workbook saved", logger.String("path", path))
	return path, nil
}

// workbook wraps an excelize file, renaming the default sheet on first use.
type workbook struct {
	f      *excelize.File
	sheets int
}

func newWorkbook() *workbook {
	return &workbook{f: excelize.NewFile()}
}

func (wb *workbook) addSheet(name string, headers []string, rows [][]any) error {
	if wb.sheets == 0 {
		if err := wb.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else {
		if _, err := wb.f.NewSheet(name); err != nil {
			return err
		}
	}
	wb.sheets++

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := wb.f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := wb.f.SetCellValue(name, cell, CellValue(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// CellValue flattens a value to something scalar-printable: string lists are
// newline-joined, any other non-scalar is JSON-serialized. No cell ever
// carries an opaque object marker.
func CellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, bool, int, int64, float64:
		return t
	case []string:
		return strings.Join(t, "\n")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func phoneOrDefault(phone string) string {
	if phone == "" {
		return "未提供"
	}
	return phone
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
