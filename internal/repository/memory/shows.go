package memory

import (
	"context"

	"cinebook/internal/bookingerr"
	"cinebook/internal/models"
)

type showStore struct {
	s *store
}

func (st *showStore) Create(ctx context.Context, show *models.Show) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	st.s.nextShowID++
	show.ID = st.s.nextShowID
	show.CreatedAt = st.s.clk.Now()

	stored := *show
	st.s.shows[show.ID] = &stored
	return nil
}

func (st *showStore) GetByID(ctx context.Context, id int64) (*models.Show, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	show, ok := st.s.shows[id]
	if !ok {
		return nil, bookingerr.ErrNotFound
	}
	out := *show
	return &out, nil
}
