package link

import (
	"fmt"

	"github.com/starford/adr/internal/models"
)

// Problem kinds reported by Check.
const (
	ProblemMissingTarget = "missing-target"
	ProblemNoMirror      = "no-mirror"
	ProblemStaleFilename = "stale-filename"
)

// Drift is a link that no longer matches the other side of the pair.
type Drift struct {
	RecordID int         `json:"record_id"`
	Filename string      `json:"filename"`
	Link     models.Link `json:"link"`
	Problem  string      `json:"problem"`
}

func (d Drift) String() string {
	switch d.Problem {
	case ProblemMissingTarget:
		return fmt.Sprintf("%s: %s record %d, which does not exist", d.Filename, d.Link.Direction, d.Link.TargetID)
	case ProblemStaleFilename:
		return fmt.Sprintf("%s: %s record %d via %s, which is not its filename", d.Filename, d.Link.Direction, d.Link.TargetID, d.Link.Target)
	default:
		return fmt.Sprintf("%s: %s record %d, but record %d has no matching line", d.Filename, d.Link.Direction, d.Link.TargetID, d.Link.TargetID)
	}
}

// Check reports every link whose counterpart is absent. Links are written
// in pairs, but files edited by hand can drift apart.
func Check(records []models.Record) []Drift {
	byID := make(map[int]models.Record, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = r
		}
	}

	var out []Drift
	for _, r := range records {
		for _, l := range r.Links {
			d := Drift{RecordID: r.ID, Filename: r.Filename, Link: l}
			target, ok := byID[l.TargetID]
			switch {
			case !ok:
				d.Problem = ProblemMissingTarget
			case l.Target != target.Filename:
				d.Problem = ProblemStaleFilename
			case !hasLink(target, mirror(l.Direction), r.ID):
				d.Problem = ProblemNoMirror
			default:
				continue
			}
			out = append(out, d)
		}
	}
	return out
}

func mirror(d models.Direction) models.Direction {
	if d == models.Supersedes {
		return models.SupersededBy
	}
	return models.Supersedes
}

func hasLink(r models.Record, dir models.Direction, id int) bool {
	for _, l := range r.Links {
		if l.Direction == dir && l.TargetID == id {
			return true
		}
	}
	return false
}
