// internal/syncer/syncer.go
package syncer

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	conf "github.com/bartek5186/autoparts-catalog/internal/config"
	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/bartek5186/autoparts-catalog/internal/integrations"
	_ "github.com/bartek5186/autoparts-catalog/internal/integrations/importer" // rejestracja
	"github.com/rs/zerolog"
)

// wrapper na uruchomioną integrację (np. importer)
type runningInt struct {
	Name string
	Inst integrations.Integration
}

type Syncer struct {
	log     zerolog.Logger     // logowanie
	deps    integrations.Deps  // baza, katalog, data dir
	mu      sync.Mutex         // ochrona sekcji krytycznych
	cfg     *conf.Config       // aktualna konfiguracja
	running bool               // czy syncer działa
	cancel  context.CancelFunc
	wg      sync.WaitGroup     // śledzi goroutines
	ticks   uint64             // licznik heartbeatów
	ints    []runningInt       // lista aktywnych integracji
}

func New(log zerolog.Logger, cfg *conf.Config, deps integrations.Deps) *Syncer {
	return &Syncer{log: log, cfg: cfg, deps: deps}
}

func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.ticks = 0

	// zbuduj i odpal integracje
	ints := s.buildIntegrationsLocked()
	s.ints = ints
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info().Int("integrations", len(ints)).Msg("Syncer: start")
	go s.loop(runCtx)

	// każda integracja w swojej gorutinie
	for i := range ints {
		s.wg.Add(1)
		go func(intg integrations.Integration) {
			defer s.wg.Done()
			if err := intg.Start(runCtx); err != nil {
				s.log.Error().Err(err).Str("integration", intg.Name()).Msg("zakończona z błędem")
			}
		}(ints[i].Inst)
	}
	return nil
}

func (s *Syncer) buildIntegrationsLocked() []runningInt {
	var out []runningInt
	if s.cfg == nil || len(s.cfg.Integrations) == 0 {
		s.log.Warn().Msg("Integrations: brak lub puste (sprawdź config.json)")
		return out
	}

	// stała kolejność startu, mapa w configu jej nie gwarantuje
	names := make([]string, 0, len(s.cfg.Integrations))
	for name := range s.cfg.Integrations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := s.cfg.Integrations[name]
		s.log.Debug().Str("integration", name).RawJSON("raw", raw).Msg("Found integration in config")

		f, ok := integrations.Get(name)
		if !ok {
			s.log.Warn().Str("integration", name).Msg("brak fabryki – pomijam")
			continue
		}
		inst, err := f(s.log.With().Str("integration", name).Logger(), json.RawMessage(raw), s.deps)
		if err != nil {
			s.log.Error().Err(err).Str("integration", name).Msg("błąd inicjalizacji")
			continue
		}
		out = append(out, runningInt{Name: name, Inst: inst})
	}
	s.log.Info().Int("started", len(out)).Msg("Integrations built")
	return out
}

func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	ints := s.ints
	s.ints = nil
	s.cancel = nil
	s.mu.Unlock()

	for _, ri := range ints {
		ri.Inst.Stop()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("Syncer: stop")
}

func (s *Syncer) UpdateConfig(cfg *conf.Config) {
	s.mu.Lock()
	s.cfg = cfg
	isRunning := s.running
	s.mu.Unlock()

	s.log.Info().Msg("Syncer: config zaktualizowany")

	if isRunning {
		// szybki restart integracji, żeby wzięły nową konfigurację
		s.log.Info().Msg("Syncer: restart integracji po zmianie configu")
		s.Stop()
		_ = s.Start(context.Background())
	}
}

func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Running zwraca nazwy aktywnych integracji.
func (s *Syncer) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ints))
	for _, ri := range s.ints {
		out = append(out, ri.Name)
	}
	return out
}

func (s *Syncer) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg != nil && s.cfg.SyncIntervalSeconds > 0 {
		return time.Duration(s.cfg.SyncIntervalSeconds) * time.Second
	}
	return 30 * time.Second
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()

	// pierwszy strzał od razu
	s.tickOnce(ctx)

	current := s.interval()
	ticker := time.NewTicker(current)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("Syncer: koniec pętli")
			return
		case <-ticker.C:
			// jeśli ktoś zmienił interwał w cfg, odśwież ticker
			if next := s.interval(); next != current {
				current = next
				ticker.Reset(current)
			}
			s.tickOnce(ctx)
		}
	}
}

// tickOnce: heartbeat + prosty health-check (pliki z błędem importu).
func (s *Syncer) tickOnce(ctx context.Context) {
	s.mu.Lock()
	s.ticks++
	n := s.ticks
	s.mu.Unlock()

	ev := s.log.Debug().Uint64("tick", n)
	if s.deps.DB != nil {
		var failed int64
		err := s.deps.DB.WithContext(ctx).Model(&db.ImportFile{}).Where("status = ?", 2).Count(&failed).Error
		if err != nil && ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("Syncer: health-check nieudany")
			return
		}
		ev = ev.Int64("failed_files", failed)
	}
	ev.Msg("Syncer: heartbeat")
}

// Ticks: liczba heartbeatów od ostatniego startu.
func (s *Syncer) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}
