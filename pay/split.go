/*
split.go - Turning one scheduled event into an hour contribution

PURPOSE:
  The hour splitter combines the surcharge resolver and the transport
  calculator: for each event it resolves the applicable service and
  surcharge plan, computes paid transport against the immediately
  preceding event of the day, and produces one EventContribution.

SKIP RULE:
  Fixed-service interventions are credited manually elsewhere and must
  never pass through the automatic splitter.

SEE ALSO:
  - surcharge.go: The resolver
  - transport.go: The transport calculator
  - aggregate.go: Walks day groups through the splitter
*/
package pay

import "context"

// HourSplitter turns scheduled events into hour contributions.
type HourSplitter struct {
	Resolver  *Resolver
	Transport *TransportCalculator

	// Services and Plans are the read-only catalogs resolved against.
	Services map[string]Service
	Plans    map[PlanID]*SurchargePlan
}

// Contribution computes one event's contribution. The bool result is
// false when the event must be skipped (fixed-service interventions).
// The event is clamped to the query range before any arithmetic.
func (s *HourSplitter) Contribution(ctx context.Context, worker Worker, prev *ScheduledEvent, event ScheduledEvent, query DateRange) (EventContribution, bool, error) {
	if event.Type == EventIntervention && event.HasFixedService {
		return EventContribution{}, false, nil
	}

	clamped := event.ClampTo(query)

	mode, _ := worker.TravelMode()
	transport := s.Transport.Between(ctx, prev, clamped, mode)

	var plan *SurchargePlan
	exempt := false
	if clamped.Type == EventIntervention {
		if svc, ok := s.Services[clamped.ServiceID]; ok {
			exempt = svc.ExemptFromCharges
			if svc.SurchargePlanID != "" {
				plan = s.Plans[svc.SurchargePlanID]
			}
		}
	}

	split, err := s.Resolver.Apply(clamped, plan, transport)
	if err != nil {
		return EventContribution{}, false, err
	}

	return EventContribution{
		Surcharged:     split.Surcharged,
		NotSurcharged:  split.NotSurcharged,
		Details:        split.Details,
		Exempt:         exempt,
		Internal:       clamped.Type == EventInternalHour,
		TransportHours: HoursFromMinutes(transport.DurationMinutes),
		Km:             NewAmount(transport.DistanceKm, UnitKilometers),
	}, true, nil
}
