// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SessionParams is the parameter snapshot recorded with a persisted
// session so a later reader knows how the paper set was fetched.
type SessionParams struct {
	MaxPapers  int      `json:"max_papers" yaml:"max_papers"`
	DaysBack   int      `json:"days_back" yaml:"days_back"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// SessionBundle is a completed research run persisted under a
// user-chosen name: the original query, the parameter snapshot, the
// annotated paper list, derived insights, and generated directions.
// The bundle is immutable on disk between explicit store/update calls.
type SessionBundle struct {
	Name       string        `json:"name" yaml:"name"`
	Query      string        `json:"query" yaml:"query"`
	CreatedAt  time.Time     `json:"created_at" yaml:"created_at"`
	Params     SessionParams `json:"params" yaml:"params"`
	Papers     []Paper       `json:"papers" yaml:"papers"`
	Insights   Insights      `json:"insights" yaml:"insights"`
	Directions []Direction   `json:"directions,omitempty" yaml:"directions,omitempty"`
}
