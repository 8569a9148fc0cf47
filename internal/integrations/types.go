// internal/integrations/types.go
package integrations

import (
	"context"
	"encoding/json"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Integration interface {
	Name() string
	Start(ctx context.Context) error // blokuje do ctx.Done (long-running) lub odpala własną pętlę
	Stop()                           // idempotent
}

// Deps: zależności przekazywane do fabryk integracji.
type Deps struct {
	DB      *gorm.DB
	Catalog *catalog.Manager
	DataDir string // bazowy katalog dla ścieżek względnych w configu
}

type Factory func(log zerolog.Logger, raw json.RawMessage, deps Deps) (Integration, error)
