package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	IssueMissingCarModel   = "missing_car_model"
	IssueAmbiguousCarModel = "ambiguous_car_model"

	maxDbgLinks = 10
)

type linkResult struct {
	Linked int
	Issues int
}

// Linker rozwiązuje kolumnę kompatybilności ("Toyota Camry XV70|Kia/Rio/4") na modele aut.
// 0 kandydatów -> missing_car_model, 1 -> powiązanie, wielu -> ambiguous_car_model.
type Linker struct {
	log      zerolog.Logger
	dbgShown int
}

func NewLinker(log zerolog.Logger) *Linker {
	return &Linker{log: log}
}

// ParseCompatibility dzieli kolumnę na wpisy (separator "|" lub ","), bez duplikatów.
func ParseCompatibility(raw string) []string {
	entries := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' })
	entries = lo.Map(entries, func(e string, _ int) string { return strings.Join(strings.Fields(e), " ") })
	entries = lo.Filter(entries, func(e string, _ int) bool { return e != "" })
	return lo.UniqBy(entries, strings.ToLower)
}

// interpretations: "Marka/Model/Generacja" jest jednoznaczne; przy spacjach najpierw
// cała reszta jako model, potem ostatnie słowo jako generacja.
func interpretations(entry string) []CarRef {
	if strings.Contains(entry, "/") {
		parts := lo.Map(strings.Split(entry, "/"), func(p string, _ int) string { return strings.TrimSpace(p) })
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil
		}
		ref := CarRef{Brand: parts[0], Model: parts[1]}
		if len(parts) > 2 {
			ref.Generation = strings.Join(parts[2:], " ")
		}
		return []CarRef{ref}
	}

	words := strings.Fields(entry)
	if len(words) < 2 {
		return nil
	}
	refs := []CarRef{{Brand: words[0], Model: strings.Join(words[1:], " ")}}
	if len(words) >= 3 {
		refs = append(refs, CarRef{
			Brand:      words[0],
			Model:      strings.Join(words[1:len(words)-1], " "),
			Generation: words[len(words)-1],
		})
	}
	return refs
}

func (l *Linker) Link(ctx context.Context, tx Store, part *db.SparePart, raw string) (linkResult, error) {
	var res linkResult
	for _, entry := range ParseCompatibility(raw) {
		cands, err := l.resolve(ctx, tx, entry)
		if err != nil {
			return res, err
		}

		switch len(cands) {
		case 0:
			if l.dbgShown < maxDbgLinks {
				l.log.Debug().Str("part_number", part.PartNumber).Str("entry", entry).
					Msg("linker: brak modelu auta")
				l.dbgShown++
			}
			if err := saveLinkIssue(ctx, tx, part, entry, IssueMissingCarModel, nil); err != nil {
				return res, err
			}
			res.Issues++

		case 1:
			created, err := tx.AttachCarModel(ctx, part.ID, cands[0].ID, "")
			if err != nil {
				return res, fmt.Errorf("powiązanie %s -> model %d: %w", part.PartNumber, cands[0].ID, err)
			}
			if created {
				res.Linked++
			}

		default:
			if l.dbgShown < maxDbgLinks {
				l.log.Debug().Str("part_number", part.PartNumber).Str("entry", entry).
					Int("candidates", len(cands)).Msg("linker: wpis pasuje do wielu modeli")
				l.dbgShown++
			}
			if err := saveLinkIssue(ctx, tx, part, entry, IssueAmbiguousCarModel, cands); err != nil {
				return res, err
			}
			res.Issues++
		}
	}
	return res, nil
}

func (l *Linker) resolve(ctx context.Context, tx Store, entry string) ([]db.CarModel, error) {
	for _, ref := range interpretations(entry) {
		cands, err := tx.FindCarModels(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("szukanie modelu %q: %w", entry, err)
		}
		if len(cands) > 0 {
			return cands, nil
		}
	}
	return nil, nil
}

func saveLinkIssue(ctx context.Context, tx Store, part *db.SparePart, entry, reason string, cands []db.CarModel) error {
	ids := lo.Map(cands, func(m db.CarModel, _ int) string { return strconv.FormatUint(uint64(m.ID), 10) })
	issue := &db.LinkIssue{
		SparePartID: part.ID,
		PartNumber:  part.PartNumber,
		Reason:      reason,
		Reference:   entry,
		Candidates:  strings.Join(ids, ","),
	}
	if err := tx.SaveLinkIssue(ctx, issue); err != nil {
		return fmt.Errorf("zapis link_issue %s/%s: %w", part.PartNumber, reason, err)
	}
	return nil
}
