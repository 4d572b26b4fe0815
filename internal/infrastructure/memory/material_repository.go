package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo almacén de materiales en memoria (desarrollo y tests).
// Conserva el orden de inserción y entrega siempre copias.
type MaterialRepo struct {
	mu    sync.RWMutex
	byID  map[string]*entity.Material
	order []string
	now   func() time.Time
}

// NewMaterialRepository construye el almacén vacío.
func NewMaterialRepository() *MaterialRepo {
	return &MaterialRepo{
		byID: make(map[string]*entity.Material),
		now:  time.Now,
	}
}

// Create inserta un material. Asigna ID si viene vacío; Version inicia en 1.
func (r *MaterialRepo) Create(_ context.Context, m *entity.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if _, ok := r.byID[m.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.byID {
		if m.MaterialID != "" && existing.MaterialID == m.MaterialID {
			return domain.ErrDuplicate
		}
	}
	now := r.now()
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	r.byID[m.ID] = m.Clone()
	r.order = append(r.order, m.ID)
	return nil
}

// List devuelve todos los materiales en orden de inserción.
func (r *MaterialRepo) List(_ context.Context) ([]*entity.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*entity.Material, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.byID[id].Clone())
	}
	return list, nil
}

// GetByID obtiene un material por ID de registro.
func (r *MaterialRepo) GetByID(_ context.Context, id string) (*entity.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id].Clone(), nil
}

// GetByMaterialID obtiene un material por su identificador humano (QR).
func (r *MaterialRepo) GetByMaterialID(_ context.Context, materialID string) (*entity.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if m := r.byID[id]; m.MaterialID == materialID {
			return m.Clone(), nil
		}
	}
	return nil, nil
}

// Update aplica un patch parcial sin control de versión (last-write-wins).
func (r *MaterialRepo) Update(_ context.Context, id string, patch repository.MaterialPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.store(cur, patch)
	return nil
}

// UpdateIfVersion aplica el patch solo si la versión almacenada coincide.
func (r *MaterialRepo) UpdateIfVersion(_ context.Context, id string, version int64, patch repository.MaterialPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != version {
		return domain.ErrConflict
	}
	r.store(cur, patch)
	return nil
}

func (r *MaterialRepo) store(cur *entity.Material, patch repository.MaterialPatch) {
	next := patch.Apply(cur)
	next.Version = cur.Version + 1
	next.UpdatedAt = r.now()
	r.byID[cur.ID] = next
}
