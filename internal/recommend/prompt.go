// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package recommend

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/category"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

const systemPrompt = `Sos un asistente que recomienda descuentos bancarios y de comercios en Argentina.
Recibís las preferencias de un usuario y una lista de descuentos candidatos en JSON.
Respondé únicamente con un objeto JSON de la forma
{"recommendations":[{"id":"<id del candidato>","reason":"<una oración>","score":<0 a 1>}]}
ordenado de mayor a menor relevancia. Usá solo ids de la lista.`

// selectCandidates keeps published discounts relevant to req: those whose
// category matches an interest or that are tied to one of the user's banks.
// When the user has no preferences, or nothing matches, every discount is a
// candidate. At most limit candidates are returned, best-matching first.
func selectCandidates(discounts []models.Discount, req Request, limit int) []models.Discount {
	type scored struct {
		d     models.Discount
		score int
	}
	var matched []scored
	for _, d := range discounts {
		s := 0
		if matchesInterest(d, req.Interests) {
			s += 2
		}
		if matchesBank(d, req.Banks) {
			s++
		}
		if s > 0 {
			matched = append(matched, scored{d, s})
		}
	}

	var out []models.Discount
	if len(matched) == 0 {
		out = slices.Clone(discounts)
	} else {
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].score > matched[j].score })
		out = make([]models.Discount, len(matched))
		for i := range matched {
			out[i] = matched[i].d
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesInterest(d models.Discount, interests []string) bool {
	for _, interest := range interests {
		if category.MatchesCategory(d.Category, interest) {
			return true
		}
	}
	return false
}

func matchesBank(d models.Discount, banks []string) bool {
	for _, bank := range banks {
		if strings.EqualFold(d.Bank, bank) {
			return true
		}
		for _, m := range d.Memberships {
			if strings.Contains(strings.ToLower(m), bank) {
				return true
			}
		}
	}
	return false
}

type promptCandidate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Bank        string   `json:"bank,omitempty"`
	Percentage  *float64 `json:"percentage,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Memberships []string `json:"memberships,omitempty"`
}

func buildPrompt(req Request, candidates []models.Discount, maxResults int) []Message {
	list := make([]promptCandidate, len(candidates))
	for i, d := range candidates {
		list[i] = promptCandidate{
			ID:          d.ID,
			Name:        d.Name,
			Category:    d.Category,
			Bank:        d.Bank,
			Percentage:  d.Percentage,
			Amount:      d.Amount,
			Memberships: d.Memberships,
		}
	}
	encoded, _ := json.Marshal(list)

	var b strings.Builder
	fmt.Fprintf(&b, "Bancos del usuario: %s\n", joinOrNone(req.Banks))
	fmt.Fprintf(&b, "Intereses del usuario: %s\n", joinOrNone(req.Interests))
	fmt.Fprintf(&b, "Elegí como máximo %d descuentos.\n", maxResults)
	fmt.Fprintf(&b, "Candidatos: %s", encoded)

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(ninguno)"
	}
	return strings.Join(values, ", ")
}

type answer struct {
	Recommendations []struct {
		ID     string  `json:"id"`
		Reason string  `json:"reason"`
		Score  float64 `json:"score"`
	} `json:"recommendations"`
}

// parseAnswer decodes the completion, dropping ids that were not offered
// and duplicates, and caps the list at maxResults. Ranking order from the
// model is kept.
func parseAnswer(content string, candidates []models.Discount, maxResults int) ([]Recommendation, error) {
	var a answer
	if err := json.Unmarshal([]byte(stripFences(content)), &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadAnswer, err)
	}

	byID := make(map[string]models.Discount, len(candidates))
	for _, d := range candidates {
		byID[d.ID] = d
	}

	out := make([]Recommendation, 0, min(len(a.Recommendations), maxResults))
	seen := make(map[string]bool)
	for _, r := range a.Recommendations {
		d, ok := byID[r.ID]
		if !ok || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, Recommendation{
			DiscountID: d.ID,
			Name:       d.Name,
			Category:   d.Category,
			Bank:       d.Bank,
			Percentage: d.Percentage,
			Amount:     d.Amount,
			Reason:     r.Reason,
			Score:      min(max(r.Score, 0), 1),
		})
		if len(out) == maxResults {
			break
		}
	}
	return out, nil
}

// stripFences removes a Markdown code fence around a JSON answer.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
