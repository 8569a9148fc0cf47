package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/samber/lo"
)

const SeedNotes = "seed"

// SeedCompatibility przypina każdej części bez powiązań od 1 do maxPerPart losowych
// modeli aut. Dane demonstracyjne; import nigdy tego nie wywołuje.
func (m *Manager) SeedCompatibility(ctx context.Context, maxPerPart int) (int, error) {
	if maxPerPart <= 0 {
		maxPerPart = 3
	}
	models, err := m.store.CarModelIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("lista modeli: %w", err)
	}
	if len(models) == 0 {
		m.log.Warn().Msg("seed-compat: brak modeli aut, nic do zrobienia")
		return 0, nil
	}
	parts, err := m.store.PartIDsWithoutLinks(ctx)
	if err != nil {
		return 0, fmt.Errorf("lista części: %w", err)
	}

	created := 0
	for _, partID := range parts {
		n := 1 + rand.IntN(min(maxPerPart, len(models)))
		picked := lo.Samples(models, n)
		attached := 0
		err := m.store.WithinTx(ctx, func(tx Store) error {
			attached = 0
			for _, modelID := range picked {
				ok, err := tx.AttachCarModel(ctx, partID, modelID, SeedNotes)
				if err != nil {
					return err
				}
				if ok {
					attached++
				}
			}
			return nil
		})
		if err != nil {
			return created, fmt.Errorf("seed części %d: %w", partID, err)
		}
		// liczymy dopiero po commicie
		created += attached
	}

	m.log.Info().Int("parts", len(parts)).Int("links_created", created).Msg("seed-compat zakończony")
	return created, nil
}
