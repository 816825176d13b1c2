package models

import "fmt"

// LeadStatus is the pipeline stage of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusQualified LeadStatus = "QUALIFIED"
	LeadStatusProposal  LeadStatus = "PROPOSAL"
	LeadStatusWon       LeadStatus = "WON"
	LeadStatusLost      LeadStatus = "LOST"
)

// LeadStatuses lists lead statuses in board order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
	LeadStatusProposal, LeadStatusWon, LeadStatusLost,
}

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool { return contains(LeadStatuses, s) }

// IdeaStatus is the state of an idea.
type IdeaStatus string

const (
	IdeaStatusBacklog    IdeaStatus = "BACKLOG"
	IdeaStatusInProgress IdeaStatus = "IN_PROGRESS"
	IdeaStatusParked     IdeaStatus = "PARKED"
	IdeaStatusDone       IdeaStatus = "DONE"
)

var IdeaStatuses = []IdeaStatus{IdeaStatusBacklog, IdeaStatusInProgress, IdeaStatusParked, IdeaStatusDone}

func (s IdeaStatus) Valid() bool { return contains(IdeaStatuses, s) }

// ProjectStatus is the state of a project.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "ACTIVE"
	ProjectStatusOnHold   ProjectStatus = "ON_HOLD"
	ProjectStatusDone     ProjectStatus = "DONE"
	ProjectStatusArchived ProjectStatus = "ARCHIVED"
)

var ProjectStatuses = []ProjectStatus{ProjectStatusActive, ProjectStatusOnHold, ProjectStatusDone, ProjectStatusArchived}

func (s ProjectStatus) Valid() bool { return contains(ProjectStatuses, s) }

// TaskStatus is the state of a task.
type TaskStatus string

const (
	TaskStatusTodo    TaskStatus = "TODO"
	TaskStatusDoing   TaskStatus = "DOING"
	TaskStatusBlocked TaskStatus = "BLOCKED"
	TaskStatusDone    TaskStatus = "DONE"
)

var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusDoing, TaskStatusBlocked, TaskStatusDone}

func (s TaskStatus) Valid() bool { return contains(TaskStatuses, s) }

// NormalizeStatus returns raw when it is exactly one of allowed, and fallback
// otherwise. Used on create, where unknown values are coerced. Case and
// surrounding space are significant: "won" is not WON.
func NormalizeStatus[S ~string](raw string, allowed []S, fallback S) S {
	s := S(raw)
	if contains(allowed, s) {
		return s
	}
	return fallback
}

// ParseStatus is the strict counterpart of NormalizeStatus used by status-change
// operations: the value must match exactly, and unknown values are a ValidationError.
func ParseStatus[S ~string](raw string, allowed []S) (S, error) {
	s := S(raw)
	if !contains(allowed, s) {
		return "", NewValidationError("status", fmt.Sprintf("invalid status %q", raw))
	}
	return s, nil
}

func contains[S ~string](list []S, s S) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ActivityAction is the kind of mutation an activity entry records.
type ActivityAction string

const (
	ActionCreate ActivityAction = "CREATE"
	ActionUpdate ActivityAction = "UPDATE"
	ActionDelete ActivityAction = "DELETE"
	ActionStatus ActivityAction = "STATUS"
	ActionUpload ActivityAction = "UPLOAD"
)

// Valid reports whether a is a known action.
func (a ActivityAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionStatus, ActionUpload:
		return true
	}
	return false
}

// Entity type names stored in activity.entity_type.
const (
	EntityCompany = "Company"
	EntityContact = "Contact"
	EntityLead    = "Lead"
	EntityIdea    = "Idea"
	EntityProject = "Project"
	EntityTask    = "Task"
	EntityEvent   = "Event"
	EntityAsset   = "Asset"
)
