package timeline

import "opsboard/internal/model"

// OpenState is the only mutable UI state the engine owns: the sets of
// expanded project and task ids. Toggles are monotonic — collapsing never
// clears the loader's caches.
type OpenState struct {
	Projects map[int]bool
	Tasks    map[int]bool
}

func NewOpenState() OpenState {
	return OpenState{
		Projects: make(map[int]bool),
		Tasks:    make(map[int]bool),
	}
}

// Flatten converts the filtered project forest plus expand state into the
// ordered row list. Depth-first and stable: row order is entirely inherited
// from upstream list order — reordering here would shuffle the visual tree.
// Children of an expanded parent that has not finished loading count as an
// empty list.
func Flatten(projects []model.Project, loader *Loader, open OpenState) []model.Row {
	var rows []model.Row
	for i := range projects {
		p := &projects[i]
		rows = append(rows, model.Row{
			Type:    model.RowProject,
			ID:      p.ID,
			Label:   p.Name,
			Project: p,
		})
		if !open.Projects[p.ID] {
			continue
		}
		tasks, _ := loader.Tasks(p.ID)
		for j := range tasks {
			t := &tasks[j]
			rows = append(rows, model.Row{
				Type:     model.RowTask,
				ID:       t.ID,
				Label:    t.Title,
				ParentID: p.ID,
				Task:     t,
			})
			if !open.Tasks[t.ID] {
				continue
			}
			milestones, _ := loader.Milestones(t.ID)
			for k := range milestones {
				m := &milestones[k]
				rows = append(rows, model.Row{
					Type:      model.RowMilestone,
					ID:        m.ID,
					Label:     m.Title,
					ParentID:  t.ID,
					Milestone: m,
				})
			}
		}
	}
	return rows
}
