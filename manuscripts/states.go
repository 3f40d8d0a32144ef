// Package manuscripts implements the manuscript lifecycle engine: the
// finite-state machine governing legal transitions through publishing
// states, the referee-assignment sub-protocol embedded in it, and the
// transition executor that persists each step with its history.
package manuscripts

import (
	"sort"
	"strings"

	"journal.evalgo.org/common"
)

// State is a stage in the manuscript's editorial life cycle.
type State string

// Manuscript states.
const (
	Submitted       State = "SUB"
	InRefereeReview State = "REV"
	CopyEdit        State = "CED"
	AuthorReview    State = "AUR"
	AuthorRevision  State = "ARV"
	EditorReview    State = "EDR"
	Formatting      State = "FMT"
	Published       State = "PUB"
	Rejected        State = "REJ"
	Withdrawn       State = "WIT"
)

// Action is an operation that may transition a manuscript between states.
type Action string

// Manuscript actions.
const (
	AssignReferee       Action = "ARF"
	DeleteReferee       Action = "DRF"
	SubmitReview        Action = "SBR"
	Accept              Action = "ACC"
	AcceptWithRevisions Action = "AWR"
	Reject              Action = "REJ"
	Done                Action = "DON"
	Withdraw            Action = "WIT"
)

// stateNames maps state codes to display names.
var stateNames = map[State]string{
	Submitted:       "Submitted",
	InRefereeReview: "In Referee Review",
	CopyEdit:        "Copy Edit",
	AuthorReview:    "Author Review",
	AuthorRevision:  "Author Revision",
	EditorReview:    "Editor Review",
	Formatting:      "Formatting",
	Published:       "Published",
	Rejected:        "Rejected",
	Withdrawn:       "Withdrawn",
}

// actionNames maps action codes to display names.
var actionNames = map[Action]string{
	AssignReferee:       "Assign Referee",
	DeleteReferee:       "Delete Referee",
	SubmitReview:        "Submit Review",
	Accept:              "Accept",
	AcceptWithRevisions: "Accept With Revisions",
	Reject:              "Reject",
	Done:                "Done",
	Withdraw:            "Withdraw",
}

// handlerTag selects the behavior of a transition. The table stays
// declarative: each cell is a tagged record instead of a stored callable.
type handlerTag int

const (
	// constant moves to the recorded next state unconditionally.
	constant handlerTag = iota

	// assignRef appends a referee and moves to In Referee Review.
	assignRef

	// deleteRef removes a referee; the next state depends on whether any
	// referees remain.
	deleteRef

	// submitReview records a referee review; state and referees are
	// untouched.
	submitReview
)

// transition is one cell of the state table.
type transition struct {
	next    State
	handler handlerTag
}

// stateTable maps (state, action) to its transition. Absent cells are
// illegal actions. Withdraw is available from every state except Withdrawn
// itself; Published and Rejected admit nothing else.
var stateTable = map[State]map[Action]transition{
	Submitted: {
		AssignReferee: {next: InRefereeReview, handler: assignRef},
		Reject:        {next: Rejected, handler: constant},
		Withdraw:      {next: Withdrawn, handler: constant},
	},
	InRefereeReview: {
		AssignReferee:       {next: InRefereeReview, handler: assignRef},
		DeleteReferee:       {handler: deleteRef},
		SubmitReview:        {next: InRefereeReview, handler: submitReview},
		Accept:              {next: CopyEdit, handler: constant},
		AcceptWithRevisions: {next: AuthorRevision, handler: constant},
		Reject:              {next: Rejected, handler: constant},
		Withdraw:            {next: Withdrawn, handler: constant},
	},
	CopyEdit: {
		Done:     {next: AuthorReview, handler: constant},
		Withdraw: {next: Withdrawn, handler: constant},
	},
	AuthorReview: {
		Done:     {next: Formatting, handler: constant},
		Withdraw: {next: Withdrawn, handler: constant},
	},
	AuthorRevision: {
		Done:     {next: EditorReview, handler: constant},
		Withdraw: {next: Withdrawn, handler: constant},
	},
	EditorReview: {
		Accept:   {next: CopyEdit, handler: constant},
		Withdraw: {next: Withdrawn, handler: constant},
	},
	Formatting: {
		Done:     {next: Published, handler: constant},
		Withdraw: {next: Withdrawn, handler: constant},
	},
	Published: {
		Withdraw: {next: Withdrawn, handler: constant},
	},
	Rejected: {
		Withdraw: {next: Withdrawn, handler: constant},
	},
	Withdrawn: {},
}

// editorialActions are the transitions restricted to editors.
var editorialActions = map[Action]bool{
	Accept:              true,
	AcceptWithRevisions: true,
	Reject:              true,
	Done:                true,
	AssignReferee:       true,
	DeleteReferee:       true,
}

// States returns all valid states in sorted order.
func States() []State {
	out := make([]State, 0, len(stateNames))
	for s := range stateNames {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StateName returns the display name of a state code, or "" if invalid.
func StateName(s State) string {
	return stateNames[s]
}

// Actions returns all valid actions in sorted order.
func Actions() []Action {
	out := make([]Action, 0, len(actionNames))
	for a := range actionNames {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ActionName returns the display name of an action code, or "" if invalid.
func ActionName(a Action) string {
	return actionNames[a]
}

// IsValidState reports whether s is a known state code.
func IsValidState(s State) bool {
	_, ok := stateNames[s]
	return ok
}

// IsValidAction reports whether a is a known action code.
func IsValidAction(a Action) bool {
	_, ok := actionNames[a]
	return ok
}

// IsEditorialAction reports whether a is restricted to editors.
func IsEditorialAction(a Action) bool {
	return editorialActions[a]
}

// EditorActions returns the editorial actions in sorted order.
func EditorActions() []Action {
	out := make([]Action, 0, len(editorialActions))
	for a := range editorialActions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RefereeActions returns the actions available to referees.
func RefereeActions() []Action {
	return []Action{SubmitReview}
}

// LegalActions returns the set of actions legal from the given state, in
// sorted order. It equals exactly the actions that do not fail the table
// lookup in the executor.
func LegalActions(s State) []Action {
	row := stateTable[s]
	out := make([]Action, 0, len(row))
	for a := range row {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// applyTransition runs the handler of a table cell against the current
// referee sequence and returns the next state together with the candidate
// referee sequence. The input slice is never mutated, so a failed
// transition leaves the manuscript untouched.
func applyTransition(t transition, referees []string, ref string) (State, []string, error) {
	switch t.handler {
	case assignRef:
		if strings.TrimSpace(ref) == "" {
			return "", nil, common.E(common.KindInvalidArgument,
				"assign referee requires a referee")
		}
		for _, r := range referees {
			if r == ref {
				return "", nil, common.E(common.KindInvalidArgument,
					"duplicate referee: %s", ref)
			}
		}
		next := append(append([]string{}, referees...), ref)
		return t.next, next, nil

	case deleteRef:
		if strings.TrimSpace(ref) == "" {
			return "", nil, common.E(common.KindInvalidArgument,
				"delete referee requires a referee")
		}
		next := make([]string, 0, len(referees))
		found := false
		for _, r := range referees {
			if r == ref {
				found = true
				continue
			}
			next = append(next, r)
		}
		if !found {
			return "", nil, common.E(common.KindInvalidArgument,
				"no such referee: %s", ref)
		}
		// The only data-dependent branch in the table: removing the
		// last referee pops the manuscript back to Submitted.
		if len(next) > 0 {
			return InRefereeReview, next, nil
		}
		return Submitted, next, nil

	case submitReview:
		return t.next, append([]string{}, referees...), nil

	default:
		return t.next, append([]string{}, referees...), nil
	}
}
