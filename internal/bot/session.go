package bot

import (
	"encoding/json"
	"fmt"

	"github.com/dobroplatform/dobro-max-bot/internal/db"
)

// ActionCreatingRequest is the only multi-step flow the bot runs.
// The session row's action column carries it; an absent row means idle.
const ActionCreatingRequest = "creating_request"

// Step is the position inside the request-creation flow.
// The zero value is invalid on purpose: a decoded session must name
// a real step or the engine treats it as corrupt and resets.
type Step int

const (
	StepTitle Step = iota + 1
	StepCategory
	StepType
	StepRegion
	StepDescription
	StepDate
	StepConfirm
)

var stepNames = map[Step]string{
	StepTitle:       "title",
	StepCategory:    "category",
	StepType:        "type",
	StepRegion:      "region",
	StepDescription: "description",
	StepDate:        "date",
	StepConfirm:     "confirm",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ParseStep maps a persisted step name back to its enum value
func ParseStep(name string) (Step, error) {
	for step, n := range stepNames {
		if n == name {
			return step, nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

// Draft is the accumulator for a request being built across the flow.
// It lives only in the session row until the user confirms.
type Draft struct {
	Title       string `json:"title,omitempty"`
	Category    string `json:"category,omitempty"`
	Type        string `json:"type,omitempty"`
	Region      string `json:"region,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Complete reports whether every required field has been collected.
// The engine refuses to materialize a Request from an incomplete draft.
func (d Draft) Complete() bool {
	return d.Title != "" && d.Category != "" && d.Type != "" &&
		d.Region != "" && d.Description != "" && d.Date != ""
}

// session is the decoded form of a db.Session row
type session struct {
	userID string
	action string
	step   Step
	draft  Draft
}

func decodeSession(row *db.Session) (*session, error) {
	step, err := ParseStep(row.Step)
	if err != nil {
		return nil, err
	}

	var draft Draft
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &draft); err != nil {
			return nil, fmt.Errorf("corrupt session data: %w", err)
		}
	}

	return &session{
		userID: row.UserID,
		action: row.Action,
		step:   step,
		draft:  draft,
	}, nil
}

func (s *session) encode() (*db.Session, error) {
	data, err := json.Marshal(s.draft)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session data: %w", err)
	}

	return &db.Session{
		UserID: s.userID,
		Action: s.action,
		Step:   s.step.String(),
		Data:   data,
	}, nil
}
