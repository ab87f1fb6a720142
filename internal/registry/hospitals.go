package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"bloodlink/internal/geo"
	"bloodlink/pkg/types"
)

// Hospitals is the directory of hospitals that may open blood requests.
type Hospitals struct {
	mu        sync.RWMutex
	hospitals map[string]*types.Hospital
}

func NewHospitals() *Hospitals {
	return &Hospitals{hospitals: make(map[string]*types.Hospital)}
}

func (h *Hospitals) Load(hospitals []*types.Hospital) error {
	for _, hospital := range hospitals {
		if err := h.Add(hospital); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hospitals) Add(hospital *types.Hospital) error {
	if strings.TrimSpace(hospital.ID) == "" {
		return fmt.Errorf("%w: hospital id is required", types.ErrInvalidRequest)
	}
	if err := geo.Validate(hospital.Latitude, hospital.Longitude); err != nil {
		return err
	}

	cp := *hospital
	h.mu.Lock()
	h.hospitals[cp.ID] = &cp
	h.mu.Unlock()
	return nil
}

func (h *Hospitals) Hospital(hospitalID string) (*types.Hospital, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	hospital, ok := h.hospitals[hospitalID]
	if !ok {
		return nil, types.ErrHospitalNotFound
	}
	cp := *hospital
	return &cp, nil
}

func (h *Hospitals) All() []*types.Hospital {
	h.mu.RLock()
	out := make([]*types.Hospital, 0, len(h.hospitals))
	for _, hospital := range h.hospitals {
		cp := *hospital
		out = append(out, &cp)
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
