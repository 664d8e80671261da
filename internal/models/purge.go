package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// PurgeFilter selects the demandas an operator wants to remove.
type PurgeFilter struct {
	DryRun    bool
	Email     string
	Descricao string
	Status    []string
	From      *time.Time
	To        *time.Time
}

// Normalize trims text criteria and drops empty status entries.
func (f PurgeFilter) Normalize() PurgeFilter {
	out := f
	out.Email = strings.TrimSpace(f.Email)
	out.Descricao = strings.TrimSpace(f.Descricao)
	out.Status = nil
	for _, s := range f.Status {
		if s = strings.TrimSpace(s); s != "" {
			out.Status = append(out.Status, s)
		}
	}
	return out
}

// Fingerprint is a stable hash of the selection criteria, ignoring DryRun and status order.
func (f PurgeFilter) Fingerprint() string {
	n := f.Normalize()
	status := append([]string(nil), n.Status...)
	sort.Strings(status)

	parts := []string{
		"email=" + strings.ToLower(n.Email),
		"descricao=" + strings.ToLower(n.Descricao),
		"status=" + strings.Join(status, ","),
		"from=" + formatBound(n.From),
		"to=" + formatBound(n.To),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func formatBound(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// DemandaCriteria is the record-store predicate derived from a PurgeFilter.
type DemandaCriteria struct {
	UserIDs   []string
	Descricao string
	Status    []string
	From      *time.Time
	To        *time.Time
}

// PurgeCandidate is the id and photo reference of a demanda matched by a purge.
type PurgeCandidate struct {
	ID      string  `db:"id" json:"id"`
	FotoURL *string `db:"foto_url" json:"foto_url"`
}

// PurgeResult reports either a preview or an execution.
type PurgeResult struct {
	DryRun        bool
	Count         int
	Sample        []PurgeCandidate
	Deleted       int
	RemovedPhotos int
}
