// Package mission derives the published mission and scoring snapshot from
// the timeline and the event log.
package mission

import (
	"fmt"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

// EarnedArtifact is an artifact registered at some point of the game, tagged
// with the mission stage that declares it.
type EarnedArtifact struct {
	Name    string `json:"name"`
	Points  int    `json:"points"`
	Mission string `json:"mission"`
	Stage   int    `json:"stage"`
}

// State is the snapshot of the current mission.
type State struct {
	Mission         string           `json:"current_mission"`
	StageNum        int              `json:"current_mission_stage_num"`
	Name            string           `json:"current_mission_name"`
	Description     string           `json:"current_mission_desc"`
	Hint            string           `json:"current_mission_hint,omitempty"`
	TasksAvailable  int              `json:"current_mission_num_tasks_available"`
	TasksDone       int              `json:"current_mission_num_tasks"`
	Points          int              `json:"current_mission_points"`
	PointsAvailable int              `json:"current_mission_available_points"`
	EarnedArtifacts []EarnedArtifact `json:"earned_artifacts"`
}

// StateFor computes the snapshot of mission name from the full log.
// Artifacts count once no matter how often they were registered.
func StateFor(name string, d *timeline.Descriptor, entries []eventlog.Entry) (State, error) {
	m, stage, ok := d.Mission(name)
	if !ok {
		return State{}, fmt.Errorf("%w: %q", timeline.ErrUndefinedMission, name)
	}

	names := make([]string, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		names = append(names, a.Name)
	}
	status := eventlog.ArtifactStatus(entries, names)

	state := State{
		Mission:         m.Name,
		StageNum:        stage,
		Name:            m.ShortDesc,
		Description:     m.LongDesc,
		Hint:            m.Hint,
		TasksAvailable:  len(status),
		PointsAvailable: m.TotalPoints(),
		EarnedArtifacts: Earned(d, entries),
	}
	for _, a := range m.Artifacts {
		if status[a.Name] != nil {
			state.TasksDone++
			state.Points += a.Points
		}
	}
	return state, nil
}

// Earned lists every distinct artifact registered in the log that some
// mission declares, in the order first earned.
func Earned(d *timeline.Descriptor, entries []eventlog.Entry) []EarnedArtifact {
	out := []EarnedArtifact{}
	for _, e := range eventlog.EarnedArtifacts(entries) {
		var ref timeline.ArtifactRef
		if e.Decode(&ref) != nil {
			continue
		}
		owner, stage, artifact, ok := d.ArtifactOwner(ref.Name)
		if !ok {
			continue
		}
		out = append(out, EarnedArtifact{
			Name:    artifact.Name,
			Points:  artifact.Points,
			Mission: owner.Name,
			Stage:   stage,
		})
	}
	return out
}
