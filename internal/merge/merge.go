// Package merge reconciles a local and a remote snapshot of one domain's data
// using last-write-wins on per-record updatedAt timestamps. Snapshots are
// decoded JSON values: an ordered list of records, a composite object with an
// "items" list, or a single object carrying its own updatedAt.
package merge

import "time"

// Result is the outcome of one reconciliation. HasLocalChanges reports
// whether the merged snapshot differs from what the remote already has, i.e.
// whether a push is needed.
type Result struct {
	Merged          any
	HasLocalChanges bool
}

// Reconcile merges local and remote snapshots. It is pure: neither input is
// mutated, and no new records are invented — every record in the output is
// selected from one of the inputs.
//
// A nil remote means nothing has been pushed yet, so the local snapshot wins
// and needs pushing. A nil local adopts the remote verbatim. Matching list or
// items-bearing shapes are merged record by record; anything else falls back
// to a whole-snapshot timestamp comparison.
func Reconcile(local, remote any) Result {
	if remote == nil {
		return Result{Merged: local, HasLocalChanges: true}
	}
	if local == nil {
		return Result{Merged: remote, HasLocalChanges: false}
	}

	localList, localIsList := local.([]any)
	remoteList, remoteIsList := remote.([]any)
	if localIsList && remoteIsList {
		merged, changed := mergeRecords(localList, remoteList)
		return Result{Merged: merged, HasLocalChanges: changed}
	}

	localMap, localIsMap := local.(map[string]any)
	remoteMap, remoteIsMap := remote.(map[string]any)
	if localIsMap && remoteIsMap {
		localItems, localHasItems := localMap["items"].([]any)
		remoteItems, remoteHasItems := remoteMap["items"].([]any)
		if localHasItems && remoteHasItems {
			merged, changed := mergeRecords(localItems, remoteItems)
			out := make(map[string]any, len(localMap))
			for k, v := range localMap {
				out[k] = v
			}
			for k, v := range remoteMap {
				if k != "items" {
					out[k] = v
				}
			}
			out["items"] = merged
			return Result{Merged: out, HasLocalChanges: changed}
		}
	}

	// Scalar objects, and the fallback for mismatched shapes: whole-snapshot
	// LWW on the top-level updatedAt (missing reads as epoch zero).
	localTime := updatedAt(local)
	remoteTime := updatedAt(remote)
	if remoteTime.After(localTime) {
		return Result{Merged: remote, HasLocalChanges: false}
	}
	return Result{Merged: local, HasLocalChanges: localTime.After(remoteTime)}
}

// mergeRecords merges two record lists keyed by id. Output order is local
// records in their original order followed by remote-only records in remote
// order; the order carries no meaning but must be stable so repeated merges
// against the same remote are byte-identical.
func mergeRecords(localItems, remoteItems []any) ([]any, bool) {
	byID := make(map[string]any, len(localItems))
	order := make([]string, 0, len(localItems))
	for _, item := range localItems {
		id := recordID(item)
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = item
	}

	changed := false
	inRemote := make(map[string]bool, len(remoteItems))
	for _, item := range remoteItems {
		id := recordID(item)
		inRemote[id] = true

		existing, ok := byID[id]
		if !ok {
			// remote addition: adopt it, nothing new to push
			byID[id] = item
			order = append(order, id)
			continue
		}

		remoteTime := updatedAt(item)
		localTime := updatedAt(existing)
		switch {
		case remoteTime.After(localTime):
			byID[id] = item
		case localTime.After(remoteTime):
			changed = true
		default:
			// equal timestamps keep the local copy without flagging a push;
			// a steady-state sync must be a no-op
		}
	}

	for _, id := range order {
		if !inRemote[id] {
			changed = true
			break
		}
	}

	merged := make([]any, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged, changed
}

func recordID(item any) string {
	m, ok := item.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["id"].(string)
	return id
}

// updatedAt extracts and parses a record's updatedAt field. Missing or
// unparseable values read as the zero time so any real timestamp beats them.
func updatedAt(v any) time.Time {
	m, ok := v.(map[string]any)
	if !ok {
		return time.Time{}
	}
	s, ok := m["updatedAt"].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
