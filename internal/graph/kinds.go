package graph

import (
	"sort"
	"strings"
)

const (
	KindResponse = "respuesta"
	KindRisk     = "riesgo"
	KindNormal   = "normal"
)

var allKinds = []string{
	KindResponse,
	KindRisk,
	KindNormal,
}

func AllKinds() []string {
	out := make([]string, len(allKinds))
	copy(out, allKinds)
	return out
}

func IsValidKind(kind string) bool {
	kind = NormalizeKind(kind)
	for _, k := range allKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func NormalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

// NormalizeIDList trims, dedupes and sorts node ids, dropping blanks.
func NormalizeIDList(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
