package models

import "fmt"

// IssueKind classifies a problem reported by an engine run.
type IssueKind string

const (
	// IssueInformational is reported but never fails a run.
	IssueInformational IssueKind = "informational"
	// IssuePrecondition aborts the whole operation before any write.
	IssuePrecondition IssueKind = "precondition"
	// IssueItemFailure marks one item that failed while the rest continued.
	IssueItemFailure IssueKind = "item_failure"
	// IssuePersistence marks a failed batch write.
	IssuePersistence IssueKind = "persistence"
)

// Issue is a tagged problem record. Subject names the item involved, when
// there is one.
type Issue struct {
	Kind    IssueKind
	Subject string
	Message string
	Err     error
}

func (i Issue) String() string {
	msg := i.Message
	if i.Subject != "" {
		msg = fmt.Sprintf("%s: %s", i.Subject, msg)
	}
	if i.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, i.Err)
	}
	return msg
}

// Blocking reports whether the issue makes the run unsuccessful.
func (i Issue) Blocking() bool {
	return i.Kind != IssueInformational
}

type Issues []Issue

func (is *Issues) Add(kind IssueKind, subject, message string, err error) {
	*is = append(*is, Issue{Kind: kind, Subject: subject, Message: message, Err: err})
}

// Failed reports whether any issue is blocking.
func (is Issues) Failed() bool {
	for _, i := range is {
		if i.Blocking() {
			return true
		}
	}
	return false
}

// Strings renders the issues for result payloads. It never returns nil so
// that JSON bodies carry an empty list.
func (is Issues) Strings() []string {
	out := make([]string, 0, len(is))
	for _, i := range is {
		out = append(out, i.String())
	}
	return out
}

// Count returns the number of issues of the given kind.
func (is Issues) Count(kind IssueKind) int {
	n := 0
	for _, i := range is {
		if i.Kind == kind {
			n++
		}
	}
	return n
}
