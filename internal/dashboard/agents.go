package dashboard

import (
	"sort"
	"time"

	"AgentDesk/internal/domain/models"
	"AgentDesk/pkg/util"
)

// Groups splits a user's agents into the two dashboard lists. Failed and
// cancelled agents appear in neither.
type Groups struct {
	Ready          []models.Agent `json:"ready"`
	InConstruction []models.Agent `json:"inConstruction"`
	All            []models.Agent `json:"all"`
}

func GroupAgents(agents []models.Agent) Groups {
	g := Groups{
		Ready:          []models.Agent{},
		InConstruction: []models.Agent{},
		All:            agents,
	}
	if g.All == nil {
		g.All = []models.Agent{}
	}
	for _, a := range agents {
		switch a.TrainingStatus {
		case models.AgentCompleted:
			g.Ready = append(g.Ready, a)
		case models.AgentPending, models.AgentInProgress:
			g.InConstruction = append(g.InConstruction, a)
		}
	}
	return g
}

// StatusLabel is the human label of a training status; unknown statuses are
// shown raw.
func StatusLabel(s models.AgentStatus) string {
	switch s {
	case models.AgentPending:
		return "Pending"
	case models.AgentInProgress:
		return "Training..."
	case models.AgentCompleted:
		return "Ready"
	case models.AgentFailed:
		return "Failed"
	case models.AgentCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// FilterPredictions keeps the predictions of one agent, in order.
func FilterPredictions(preds []models.Prediction, agentID int64) []models.Prediction {
	out := make([]models.Prediction, 0, len(preds))
	for _, p := range preds {
		if p.AgentID == agentID {
			out = append(out, p)
		}
	}
	return out
}

// SortNewestFirst orders predictions by prediction date, latest first.
// Dates that cannot be parsed sort last and keep their relative order.
func SortNewestFirst(preds []models.Prediction) {
	type dated struct {
		p  models.Prediction
		at time.Time
		ok bool
	}
	rows := make([]dated, len(preds))
	for i, p := range preds {
		t, ok := util.ParseTime(p.PredictionDate)
		rows[i] = dated{p: p, at: t, ok: ok}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].at.After(rows[j].at)
	})
	for i := range rows {
		preds[i] = rows[i].p
	}
}

// FindAgent returns the agent with id, if listed.
func FindAgent(agents []models.Agent, id int64) (models.Agent, bool) {
	for _, a := range agents {
		if a.ID == id {
			return a, true
		}
	}
	return models.Agent{}, false
}
