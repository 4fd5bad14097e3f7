package model

import (
	"time"

	"opsboard/internal/status"
	"opsboard/internal/timefield"
)

// RawRecord is one record as decoded from any upstream endpoint, before
// status and date normalization. Field names vary per endpoint and schema
// generation; the timefield package knows the precedence.
type RawRecord map[string]any

type Project struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	RawStatus string        `json:"raw_status"`
	Status    status.Status `json:"status"`
	StartAt   *time.Time    `json:"start_at,omitempty"`
	EndAt     *time.Time    `json:"end_at,omitempty"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
	GroupTag  string        `json:"group_tag,omitempty"`
	OwnerTag  string        `json:"owner_tag,omitempty"`
}

type Task struct {
	ID        int           `json:"id"`
	ProjectID int           `json:"project_id"`
	Title     string        `json:"title"`
	RawStatus string        `json:"raw_status"`
	Status    status.Status `json:"status"`
	StartAt   *time.Time    `json:"start_at,omitempty"`
	DueAt     *time.Time    `json:"due_at,omitempty"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
}

type MilestoneKind string

const (
	KindPlain     MilestoneKind = "plain"
	KindReporting MilestoneKind = "reporting"
	KindFeedback  MilestoneKind = "feedback"
)

type Milestone struct {
	ID          int               `json:"id"`
	TaskID      int               `json:"task_id"`
	ProjectID   int               `json:"project_id"`
	Title       string            `json:"title"`
	RawStatus   string            `json:"raw_status"`
	Status      status.Status     `json:"status"`
	FinishKind  status.FinishKind `json:"finish_kind,omitempty"`
	OccurredAt  *time.Time        `json:"occurred_at,omitempty"`
	IsRoadblock bool              `json:"is_roadblock"`
	Kind        MilestoneKind     `json:"kind"`
	DependsOn   []int             `json:"depends_on,omitempty"`
	BlockedBy   []int             `json:"blocked_by,omitempty"`
}

// ProjectFromRaw normalizes one raw project record. Applied immediately on
// arrival so downstream components only ever see normalized shapes.
func ProjectFromRaw(rec RawRecord) Project {
	rawStatus, completed := statusFields(rec)
	return Project{
		ID:        intField(rec, "id"),
		Name:      firstString(rec, "name", "title"),
		RawStatus: rawStatus,
		Status:    status.Canonicalize(rawStatus, completed),
		StartAt:   timefield.Resolve(rec, timefield.StartFields),
		EndAt:     timefield.Resolve(rec, timefield.EndFields),
		CreatedAt: timefield.Resolve(rec, timefield.CreatedFields),
		GroupTag:  firstString(rec, "group", "groupTag"),
		OwnerTag:  firstString(rec, "owner", "ownerTag"),
	}
}

func TaskFromRaw(rec RawRecord, projectID int) Task {
	rawStatus, completed := statusFields(rec)
	pid := intField(rec, "projectId")
	if pid == 0 {
		pid = projectID
	}
	return Task{
		ID:        intField(rec, "id"),
		ProjectID: pid,
		Title:     firstString(rec, "title", "name"),
		RawStatus: rawStatus,
		Status:    status.Canonicalize(rawStatus, completed),
		StartAt:   timefield.Resolve(rec, timefield.StartFields),
		DueAt:     timefield.Resolve(rec, timefield.EndFields),
		CreatedAt: timefield.Resolve(rec, timefield.CreatedFields),
	}
}

func MilestoneFromRaw(rec RawRecord, taskID int) Milestone {
	rawStatus, completed := statusFields(rec)
	st := status.Canonicalize(rawStatus, completed)
	tid := intField(rec, "taskId")
	if tid == 0 {
		tid = taskID
	}
	kind := MilestoneKind(firstString(rec, "kind"))
	switch kind {
	case KindReporting, KindFeedback:
	default:
		kind = KindPlain
	}
	return Milestone{
		ID:          intField(rec, "id"),
		TaskID:      tid,
		ProjectID:   intField(rec, "projectId"),
		Title:       firstString(rec, "title", "name"),
		RawStatus:   rawStatus,
		Status:      st,
		FinishKind:  status.ClassifyFinish(st, timefield.Resolve(rec, timefield.ActualEndFields) != nil),
		OccurredAt:  timefield.ResolveOccurrence(rec, st),
		IsRoadblock: boolField(rec, "isRoadblock", "roadblock"),
		Kind:        kind,
		DependsOn:   intListField(rec, "dependsOn"),
		BlockedBy:   intListField(rec, "blockedBy"),
	}
}

func statusFields(rec RawRecord) (string, bool) {
	return firstString(rec, "status", "state"), boolField(rec, "completed", "done")
}

func firstString(rec RawRecord, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func intField(rec RawRecord, keys ...string) int {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

func boolField(rec RawRecord, keys ...string) bool {
	for _, k := range keys {
		if v, ok := rec[k].(bool); ok {
			return v
		}
	}
	return false
}

func intListField(rec RawRecord, key string) []int {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []int:
		out := make([]int, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]int, 0, len(list))
		for _, item := range list {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case int64:
				out = append(out, int(n))
			case float64:
				out = append(out, int(n))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
