package internal

import "time"

type Action string

func (a Action) String() string {
	return string(a)
}

var (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionUnchanged Action = "unchanged"
	ActionFailed    Action = "failed"
)

// Result is the outcome for a single lesson.
type Result struct {
	Lesson   string
	LessonID string
	EventID  string
	Action   Action
	Err      error
}

// Report summarises a sync run.
type Report struct {
	RunID      string
	Calendar   Calendar
	Period     Period
	StartedAt  time.Time
	FinishedAt time.Time

	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Results   []Result

	// Err is set when the run failed as a whole.
	Err error
}

// Add records r and bumps the matching counter.
func (r *Report) Add(res Result) {
	switch res.Action {
	case ActionCreate:
		r.Created++
	case ActionUpdate:
		r.Updated++
	case ActionUnchanged:
		r.Unchanged++
	case ActionFailed:
		r.Failed++
	}
	r.Results = append(r.Results, res)
}

func (r *Report) Total() int {
	return r.Created + r.Updated + r.Unchanged + r.Failed
}
