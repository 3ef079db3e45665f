// Package orgs mantiene el directorio de organizaciones del usuario para el
// selector de /org. Las listas se cachean por sujeto.
package orgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/crmfront/internal/backend"
	"github.com/dropDatabas3/crmfront/internal/cache"
	"github.com/dropDatabas3/crmfront/internal/observability/logger"
)

// DefaultTTL de una lista cacheada.
const DefaultTTL = 60 * time.Second

const keyPrefix = "orgs:"

// Lister obtiene las organizaciones del backend (implementado por backend.Client).
type Lister interface {
	ListOrgs(ctx context.Context, access string) ([]backend.Org, error)
}

// Directory resuelve y cachea organizaciones por sujeto.
type Directory struct {
	lister Lister
	cache  cache.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewDirectory construye el directorio. ttl <= 0 usa DefaultTTL.
func NewDirectory(lister Lister, c cache.Client, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if c == nil {
		c = cache.NewMemory("")
	}
	return &Directory{lister: lister, cache: c, ttl: ttl}
}

// List devuelve las organizaciones de subjectID usando access como Bearer en
// caso de miss. Misses concurrentes del mismo sujeto comparten una sola llamada.
func (d *Directory) List(ctx context.Context, subjectID, access string) ([]backend.Org, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, errors.New("orgs: subject id is required")
	}
	log := logger.From(ctx).With(logger.Component("orgs.directory"), logger.UserID(subjectID))
	key := keyPrefix + subjectID

	if raw, err := d.cache.Get(ctx, key); err == nil {
		var list []backend.Org
		if jErr := json.Unmarshal([]byte(raw), &list); jErr == nil {
			return list, nil
		}
		// entrada corrupta: se recarga
		_ = d.cache.Delete(ctx, key)
	} else if !cache.IsNotFound(err) {
		log.Warn("orgs cache get failed", logger.Err(err))
	}

	// la carga es compartida: no depende de la cancelación del primer caller
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := d.group.Do(key, func() (any, error) {
		list, err := d.lister.ListOrgs(loadCtx, access)
		if err != nil {
			return nil, fmt.Errorf("orgs: list: %w", err)
		}
		if b, mErr := json.Marshal(list); mErr == nil {
			if sErr := d.cache.Set(loadCtx, key, string(b), d.ttl); sErr != nil {
				log.Warn("orgs cache set failed", logger.Err(sErr))
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]backend.Org), nil
}

// Invalidate descarta la lista cacheada del sujeto (logout).
func (d *Directory) Invalidate(ctx context.Context, subjectID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil
	}
	return d.cache.Delete(ctx, keyPrefix+subjectID)
}
