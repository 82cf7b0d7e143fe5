package match

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Resolver looks up an external record by its identifier.
type Resolver interface {
	Lookup(id string) (*ExternalRecord, error)
}

// Match is one surviving external-record match.
type Match struct {
	ExternalID string
	Record     *ExternalRecord
	LocalIDs   []string // local identifiers that produced this match
}

// Result is the output shape shared by both matching strategies.
type Result struct {
	Strategy  string
	Matches   []Match
	Discarded []string // diagnostics about identifiers dropped during dedup
	Unique    bool     // exactly one match survived
}

// Matcher is a matching strategy, selected once at batch start.
type Matcher interface {
	Name() string
	Match(ids []string) (*Result, error)
}

// DOIMatcher maps cleaned DOIs to external identifiers through a lookup
// table, then resolves each hit.
type DOIMatcher struct {
	Table map[string]string // doi -> external identifier
	Store Resolver
}

func (m *DOIMatcher) Name() string { return "doi" }

func (m *DOIMatcher) Match(dois []string) (*Result, error) {
	var ordered []string
	byExternal := make(map[string][]string)
	for _, doi := range dois {
		ext, ok := m.Table[doi]
		if !ok {
			continue
		}
		if _, ok := byExternal[ext]; !ok {
			ordered = append(ordered, ext)
		}
		byExternal[ext] = append(byExternal[ext], doi)
	}
	return resolve(m.Name(), ordered, byExternal, m.Store)
}

// DirectMatcher matches local identifiers against the set of identifiers the
// external system knows about.
type DirectMatcher struct {
	Known map[string]bool
	Store Resolver
}

func (m *DirectMatcher) Name() string { return "direct" }

func (m *DirectMatcher) Match(ids []string) (*Result, error) {
	var ordered []string
	byExternal := make(map[string][]string)
	for _, id := range ids {
		if !m.Known[id] {
			continue
		}
		if _, ok := byExternal[id]; !ok {
			ordered = append(ordered, id)
			byExternal[id] = append(byExternal[id], id)
		}
	}
	return resolve(m.Name(), ordered, byExternal, m.Store)
}

// resolve fetches the external record behind each candidate identifier and
// applies the UUID deduplication rule.
func resolve(strategy string, ordered []string, byExternal map[string][]string, store Resolver) (*Result, error) {
	var matches []Match
	for _, ext := range ordered {
		rec, err := store.Lookup(ext)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{
			ExternalID: ext,
			Record:     rec,
			LocalIDs:   byExternal[ext],
		})
	}
	res := &Result{Strategy: strategy}
	res.Matches, res.Discarded = dedupe(matches)
	res.Unique = len(res.Matches) == 1
	return res, nil
}

// dedupe enforces at most one match per distinct external UUID. When several
// matched identifiers resolve to records sharing a UUID, the identifier equal
// to the record's own declared external id wins; failing that, the first one
// encountered is kept. Order is stable, never guessed.
func dedupe(matches []Match) (kept []Match, discarded []string) {
	byUUID := make(map[string][]Match)
	var order []string
	for _, m := range matches {
		u := m.Record.UUID
		if _, ok := byUUID[u]; !ok {
			order = append(order, u)
		}
		byUUID[u] = append(byUUID[u], m)
	}
	for _, u := range order {
		group := byUUID[u]
		if len(group) == 1 {
			kept = append(kept, group[0])
			continue
		}
		survivor := group[0]
		for _, m := range group {
			if m.ExternalID == m.Record.ExternalID {
				survivor = m
				break
			}
		}
		kept = append(kept, survivor)
		for _, m := range group {
			if m.ExternalID == survivor.ExternalID {
				continue
			}
			msg := fmt.Sprintf("discarded %s: shares uuid %s with %s", m.ExternalID, u, survivor.ExternalID)
			discarded = append(discarded, msg)
			log.WithFields(log.Fields{"uuid": u, "kept": survivor.ExternalID, "dropped": m.ExternalID}).
				Info("deduplicated external record match")
		}
	}
	return kept, discarded
}

// Select builds the configured matching strategy.
func Select(name string, table map[string]string, known map[string]bool, store Resolver) (Matcher, error) {
	switch name {
	case "doi":
		return &DOIMatcher{Table: table, Store: store}, nil
	case "direct":
		return &DirectMatcher{Known: known, Store: store}, nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q", name)
	}
}
