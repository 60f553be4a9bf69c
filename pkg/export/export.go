// Package export renders allocation plans for downstream consumers:
// JSON for tooling, CSV for field coordination sheets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/matiasvr/fireline/core/model"
)

// WriteJSON writes the full plan to w in indented JSON format.
func WriteJSON(w io.Writer, plan *model.AllocationPlan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// WriteCSV writes the plan's assignments to w, one row per dispatched
// resource, ordered as in the plan.
func WriteCSV(w io.Writer, plan *model.AllocationPlan) error {
	cw := csv.NewWriter(w)
	header := []string{"resource_id", "demand_id", "priority_rank", "travel_time_hours", "effective_capacity", "contribution"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range plan.Assignments {
		rec := []string{
			a.ResourceID,
			a.DemandID,
			strconv.Itoa(a.PriorityRank),
			strconv.FormatFloat(a.TravelTimeHours, 'f', 2, 64),
			strconv.FormatFloat(a.EffectiveCapacity, 'f', 1, 64),
			strconv.FormatFloat(a.Contribution, 'f', 1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
