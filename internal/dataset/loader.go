// Package dataset reads and writes workbooks of recorded conversations, one
// row per turn, so captures can be replayed without the live agent.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/types"
)

// Recording is the captured conversation for one case type.
type Recording struct {
	CaseType string
	Result   types.ConversationResult
}

var header = []string{"case_type", "turn", "user_input", "ai_response", "response_time_ms", "timestamp", "success", "error"}

type columns struct {
	caseType, turn, user, ai, latency, ts, success, errMsg int
}

// detect maps header cells to columns. Names are matched loosely so sheets
// exported from other tools ("Case", "AI Response", "Latency (ms)") load too.
func detect(row []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1, -1, -1}
	set := func(dst *int, i int) {
		if *dst == -1 {
			*dst = i
		}
	}
	for i, h := range row {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "case"):
			set(&c.caseType, i)
		case strings.Contains(l, "timestamp") || l == "time" || strings.Contains(l, "date"):
			set(&c.ts, i)
		case strings.Contains(l, "latency") || strings.Contains(l, "_ms") || strings.Contains(l, "(ms)") || strings.Contains(l, "response time"):
			set(&c.latency, i)
		case strings.Contains(l, "turn"):
			set(&c.turn, i)
		case strings.Contains(l, "user"):
			set(&c.user, i)
		case strings.Contains(l, "ai") || strings.Contains(l, "response") || strings.Contains(l, "reply"):
			set(&c.ai, i)
		case strings.Contains(l, "success"):
			set(&c.success, i)
		case strings.Contains(l, "error"):
			set(&c.errMsg, i)
		}
	}
	return c
}

func cell(r []string, idx int) string {
	if idx >= 0 && idx < len(r) {
		return strings.TrimSpace(r[idx])
	}
	return ""
}

// Load reads recordings from the first sheet of an xlsx workbook. Rows are
// grouped by case type in order of first appearance; turn order within a
// case follows row order. A row with an error or success=false marks its
// whole recording as a failed capture.
func Load(path string) ([]Recording, error) {
	log := logger.New().Component("dataset").WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detect(rows[0])
	if cols.caseType == -1 || cols.ai == -1 {
		return nil, fmt.Errorf("missing case_type or ai_response column in header %v", rows[0])
	}

	var out []Recording
	index := map[string]int{}
	skipped := 0
	for i, r := range rows {
		if i == 0 {
			continue
		}
		caseType := cell(r, cols.caseType)
		if caseType == "" {
			skipped++
			continue
		}
		pos, ok := index[caseType]
		if !ok {
			pos = len(out)
			index[caseType] = pos
			out = append(out, Recording{CaseType: caseType, Result: types.ConversationResult{Success: true}})
		}
		rec := &out[pos]

		if msg := cell(r, cols.errMsg); msg != "" {
			rec.Result.Success = false
			rec.Result.Error = msg
		}
		if s := cell(r, cols.success); s != "" {
			if ok, err := strconv.ParseBool(s); err == nil && !ok {
				rec.Result.Success = false
			}
		}

		turnText := cell(r, cols.turn)
		if turnText == "" && cell(r, cols.ai) == "" {
			// status-only row
			continue
		}
		turn := len(rec.Result.Conversation) + 1
		if turnText != "" {
			n, err := strconv.Atoi(turnText)
			if err != nil || n < 1 {
				log.WithField("row", i+1).Warn("invalid turn number, row skipped")
				skipped++
				continue
			}
			turn = n
		}
		latency, _ := strconv.ParseInt(cell(r, cols.latency), 10, 64)
		if latency < 0 {
			latency = 0
		}
		ts, _ := time.Parse(time.RFC3339, cell(r, cols.ts))

		rec.Result.Conversation = append(rec.Result.Conversation, types.TranscriptTurn{
			Turn:           turn,
			UserInput:      cell(r, cols.user),
			AIResponse:     cell(r, cols.ai),
			ResponseTimeMs: latency,
			Timestamp:      ts,
		})
	}

	sum := Summarize(out)
	log.WithFields(map[string]interface{}{
		"recordings":   sum.Recordings,
		"turns":        sum.Turns,
		"failed":       len(sum.FailedCases),
		"rows_skipped": skipped,
	}).Info("recorded transcripts loaded")
	return out, nil
}

// Save writes recordings in the layout Load reads.
func Save(path string, recs []Recording) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	row := 2
	write := func(vals []interface{}) error {
		addr, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(sheet, addr, &vals)
	}

	for _, rec := range recs {
		res := rec.Result
		if len(res.Conversation) == 0 {
			if err := write([]interface{}{rec.CaseType, "", "", "", "", "", res.Success, res.Error}); err != nil {
				return err
			}
			continue
		}
		for i, t := range res.Conversation {
			errMsg := ""
			if i == 0 {
				errMsg = res.Error
			}
			ts := ""
			if !t.Timestamp.IsZero() {
				ts = t.Timestamp.Format(time.RFC3339)
			}
			if err := write([]interface{}{rec.CaseType, t.Turn, t.UserInput, t.AIResponse, t.ResponseTimeMs, ts, res.Success, errMsg}); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}
