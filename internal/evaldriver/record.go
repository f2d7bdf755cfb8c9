package evaldriver

import (
	"encoding/json"
	"strconv"
	"strings"

	appErr "evalbox/pkg/errors"
)

// FlexID is an identifier that arrives as either a JSON string or a JSON
// number. Datasets in the wild use both.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// Record is one line of the evaluation input: a candidate solution for a
// question, plus the test scaffolding shared by all solutions of that
// question.
type Record struct {
	QuestionID FlexID `json:"question_id"`
	SolutionID string `json:"solution_id"`
	Lang       string `json:"lang"`
	FuncCode   string `json:"func_code"`
	MainCode   string `json:"main_code"`
	Question   string `json:"question"`
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.Lang) == "" {
		return appErr.New(appErr.RecordInvalid).WithMessage("record field lang is required")
	}
	if strings.TrimSpace(r.FuncCode) == "" {
		return appErr.New(appErr.RecordInvalid).WithMessage("record field func_code is required")
	}
	return nil
}

// SrcUID names the work directory for this record, unique per
// question/solution pair.
func (r Record) SrcUID() string {
	qid := r.QuestionID.String()
	if qid == "" {
		qid = "q"
	}
	sid := r.SolutionID
	if sid == "" {
		sid = "s"
	}
	return qid + "_" + sid
}

// sortKey orders numeric question ids before lexical ones, numerically.
func sortKey(qid string) (int, int64, string) {
	if n, err := strconv.ParseInt(qid, 10, 64); err == nil {
		return 0, n, ""
	}
	return 1, 0, qid
}
