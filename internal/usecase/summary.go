package usecase

import "fmt"

type JobStatus string

const (
	StatusSuccess JobStatus = "success"
	StatusPartial JobStatus = "partial"
	StatusError   JobStatus = "error"
	StatusLocked  JobStatus = "locked"
)

// Summary is what a batch job reports to its trigger.
type Summary struct {
	Status    JobStatus `json:"status"`
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Skipped   int       `json:"skipped"`
	Errors    []string  `json:"errors"`
}

func newSummary() Summary {
	return Summary{Errors: []string{}}
}

func (s *Summary) addError(format string, args ...interface{}) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// abort marks the whole run failed.
func (s *Summary) abort(err error) {
	s.Status = StatusError
	s.Errors = append(s.Errors, err.Error())
}

// finish settles the status of a run that reached its end.
func (s *Summary) finish() {
	if s.Status != "" {
		return
	}
	if len(s.Errors) > 0 {
		s.Status = StatusPartial
		return
	}
	s.Status = StatusSuccess
}
