package mmt

import (
	"fmt"
	"sort"
	"sync"
)

type workerData struct {
	Index int
	Event EventType
}

type workerResult struct {
	Index int
	Event HitEvent
}

// ConvertEvent turns every record of an event into a HitEntry, its Hit and
// its MMTHit. Records with charge below the threshold are skipped.
func ConvertEvent(par *Parameters, event EventType) HitEvent {
	out := HitEvent{
		EventID: event.EventID,
		Entries: make([]HitEntry, 0, len(event.Records)),
		Hits:    make([]Hit, 0, len(event.Records)),
		MMTHits: make([]MMTHit, 0, len(event.Records)),
	}
	for _, rec := range event.Records {
		if rec.Charge < par.ChargeThreshold {
			out.Dropped++
			par.Diag.BelowThreshold.Add(1)
			continue
		}
		entry := NewHitEntryFromRecord(rec)
		out.Entries = append(out.Entries, entry)
		out.Hits = append(out.Hits, entry.EntryHit(par))
		out.MMTHits = append(out.MMTHits, NewMMTHit(rec, par))
	}
	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("event %d: %d hits, %d below threshold", event.EventID, len(out.Hits), out.Dropped)
		logger.Info(message, "workers")
	}
	return out
}

func convertSafe(par *Parameters, event EventType) (out HitEvent) {
	defer func() {
		if r := recover(); r != nil {
			errMessage := fmt.Errorf("recovered from panic on event %d: %v", event.EventID, r)
			logger.Error(errMessage.Error())
			out = HitEvent{EventID: event.EventID, Error: true}
		}
	}()
	return ConvertEvent(par, event)
}

func worker(id int, par *Parameters, jobs <-chan workerData, results chan<- workerResult) {
	for job := range jobs {
		if configuration.Verbosity > 2 {
			logger.Info(fmt.Sprintf("worker %d processing event %d", id, job.Event.EventID), "workers")
		}
		results <- workerResult{Index: job.Index, Event: convertSafe(par, job.Event)}
	}
}

// ConvertEvents converts events on numWorkers goroutines sharing par. The
// result keeps the input order. A panic while converting an event marks that
// event with Error instead of stopping the run.
func ConvertEvents(par *Parameters, events []EventType, numWorkers int) []HitEvent {
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan workerData, numWorkers)
	results := make(chan workerResult, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id, par, jobs, results)
		}(w)
	}
	go func() {
		for i, ev := range events {
			jobs <- workerData{Index: i, Event: ev}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]workerResult, 0, len(events))
	for res := range results {
		collected = append(collected, res)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].Index < collected[j].Index })

	converted := make([]HitEvent, len(collected))
	for i, res := range collected {
		converted[i] = res.Event
	}
	return converted
}
