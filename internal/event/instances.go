package event

import (
	"github.com/rbright/eds-schedule/internal/schedule"
)

// Instances expands the event into at most limit copies, one per occurrence
// overlapping window. Non-recurring events yield themselves or nothing.
func (e *Event) Instances(window schedule.Range, limit int) ([]*Event, error) {
	values := schedule.Values{
		AllDay:     e.allDay,
		Start:      e.start,
		End:        e.end,
		Recurrence: e.recurrence,
	}

	occurrences, err := schedule.OccurrencesIn(values, window)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(occurrences) > limit {
		occurrences = occurrences[:limit]
	}

	instances := make([]*Event, 0, len(occurrences))
	for _, occurrence := range occurrences {
		instance := *e
		instance.start = occurrence.Start
		instance.end = occurrence.End
		if e.recurrence.IsPresent() {
			instance.RecurrenceID = occurrence.Start
		}
		instances = append(instances, &instance)
	}
	return instances, nil
}
