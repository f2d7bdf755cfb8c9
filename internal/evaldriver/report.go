package evaldriver

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"evalbox/internal/harness/splicer"
)

// solutionCell is one solution's slot in a question row. JSON tags double as
// the cache payload format.
type solutionCell struct {
	Solution string  `json:"solution"`
	Output   string  `json:"output"`
	RuntimeS float64 `json:"runtime_s"`
	SpaceKB  int64   `json:"space_kb"`
}

type questionRow struct {
	Question     string
	FullTestFunc string
	Cells        map[string]solutionCell
}

// report accumulates cells grouped by question id, preserving nothing about
// input order; rows are sorted on write.
type report struct {
	rows map[string]*questionRow
}

func newReport() *report {
	return &report{rows: make(map[string]*questionRow)}
}

func (r *report) add(rec Record, cell solutionCell) {
	qid := rec.QuestionID.String()
	row, ok := r.rows[qid]
	if !ok {
		row = &questionRow{
			Question:     rec.Question,
			FullTestFunc: splicer.NormalizeNewlines(rec.MainCode),
			Cells:        make(map[string]solutionCell),
		}
		r.rows[qid] = row
	}
	sid := rec.SolutionID
	if sid == "" {
		sid = "s1"
	}
	row.Cells[sid] = cell
}

var csvHeaders = []string{
	"question_id", "question", "full_test_func",
	"s1_solution", "s1_output", "s1_runtime_s", "s1_space_kb",
	"s2_solution", "s2_output", "s2_runtime_s", "s2_space_kb",
	"s3_solution", "s3_output", "s3_runtime_s", "s3_space_kb",
}

// writeCSV emits one row per question, ordered numerically where the ids are
// numeric and lexically after that.
func (r *report) writeCSV(out io.Writer) error {
	qids := make([]string, 0, len(r.rows))
	for qid := range r.rows {
		qids = append(qids, qid)
	}
	sort.Slice(qids, func(i, j int) bool {
		ci, ni, si := sortKey(qids[i])
		cj, nj, sj := sortKey(qids[j])
		if ci != cj {
			return ci < cj
		}
		if ci == 0 {
			return ni < nj
		}
		return si < sj
	})

	w := csv.NewWriter(out)
	if err := w.Write(csvHeaders); err != nil {
		return err
	}
	for _, qid := range qids {
		row := r.rows[qid]
		record := []string{qid, row.Question, row.FullTestFunc}
		for _, sid := range []string{"s1", "s2", "s3"} {
			cell := row.Cells[sid]
			record = append(record,
				cell.Solution,
				cell.Output,
				strconv.FormatFloat(cell.RuntimeS, 'f', -1, 64),
				strconv.FormatInt(cell.SpaceKB, 10),
			)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
