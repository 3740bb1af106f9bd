package app

import (
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
)

// Directory is the participant directory. Only the coordinator writes to it.
type Directory struct {
	mu           sync.RWMutex
	participants map[domain.ParticipantID]*domain.Participant
}

func NewDirectory() *Directory {
	return &Directory{participants: make(map[domain.ParticipantID]*domain.Participant)}
}

func (d *Directory) Get(id domain.ParticipantID) (*domain.Participant, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.participants[id]
	return p, ok
}

func (d *Directory) Put(p *domain.Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants[p.ID] = p
}

func (d *Directory) Remove(id domain.ParticipantID) (*domain.Participant, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.participants[id]
	if ok {
		delete(d.participants, id)
	}
	return p, ok
}

func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.participants)
}

// Views resolves ids to snapshots, skipping unknown ones.
func (d *Directory) Views(ids []domain.ParticipantID) []domain.ParticipantView {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.ParticipantView, 0, len(ids))
	for _, id := range ids {
		if p, ok := d.participants[id]; ok {
			out = append(out, p.View())
		}
	}
	return out
}
