package dummydb

import (
	"sync"
	"time"

	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
)

type (
	DB struct {
		learner    *learnerTable
		submission *submissionTable
	}

	learnerTable struct {
		sync.RWMutex
		table     map[string]*learner.Learner
		completed map[string]time.Time
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*submission.Submission
	}
)

func Open() (*DB, error) {
	db := &DB{
		learner:    &learnerTable{table: make(map[string]*learner.Learner), completed: make(map[string]time.Time)},
		submission: &submissionTable{table: make(map[string]*submission.Submission)},
	}
	return db, nil
}
