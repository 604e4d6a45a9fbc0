package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/bracket-of-death/models"
)

// MemoryStore keeps everything in process. Values are copied on the way in
// and out, so it behaves like a real store towards its callers.
type MemoryStore struct {
	mu          sync.RWMutex
	tournaments map[string]*models.Tournament
	matches     map[string]*models.Match
	results     map[string]map[string]*models.TournamentResult
	players     map[string]*models.Player

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tournaments: make(map[string]*models.Tournament),
		matches:     make(map[string]*models.Match),
		results:     make(map[string]map[string]*models.TournamentResult),
		players:     make(map[string]*models.Player),
		locks:       make(map[string]*sync.Mutex),
		now:         time.Now,
	}
}

func (s *MemoryStore) FindTournament(ctx context.Context, id string) (*models.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return clone(t), nil
}

func (s *MemoryStore) SaveTournament(ctx context.Context, t *models.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	s.tournaments[t.ID] = clone(t)
	return nil
}

func (s *MemoryStore) FindMatches(ctx context.Context, tournamentID string, filter models.MatchFilter) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Match
	for _, m := range s.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if filter.Round != models.RoundUnknown && m.Round != filter.Round {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out, nil
}

func (s *MemoryStore) FindMatch(ctx context.Context, id string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (s *MemoryStore) SaveMatch(ctx context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[m.ID]; !ok {
		return ErrMatchNotFound
	}
	m.UpdatedAt = s.now().UTC()
	s.matches[m.ID] = m.Clone()
	return nil
}

func (s *MemoryStore) DeleteMatches(ctx context.Context, tournamentID string, round models.RoundKind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, m := range s.matches {
		if m.TournamentID == tournamentID && m.Round == round {
			delete(s.matches, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteAllMatches(ctx context.Context, tournamentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, m := range s.matches {
		if m.TournamentID == tournamentID {
			delete(s.matches, id)
			n++
		}
	}
	return n, nil
}

// InsertMatches writes all matches or none. A match number already used in
// the tournament fails the whole batch.
func (s *MemoryStore) InsertMatches(ctx context.Context, matches []*models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make(map[string]bool)
	for _, m := range s.matches {
		used[fmt.Sprintf("%s#%d", m.TournamentID, m.MatchNumber)] = true
	}
	for _, m := range matches {
		key := fmt.Sprintf("%s#%d", m.TournamentID, m.MatchNumber)
		if used[key] {
			return fmt.Errorf("%w: %d", ErrMatchNumberTaken, m.MatchNumber)
		}
		used[key] = true
	}

	now := s.now().UTC()
	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.CreatedAt, m.UpdatedAt = now, now
		s.matches[m.ID] = m.Clone()
	}
	return nil
}

func (s *MemoryStore) MaxMatchNumber(ctx context.Context, tournamentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	highest := 0
	for _, m := range s.matches {
		if m.TournamentID == tournamentID && m.MatchNumber > highest {
			highest = m.MatchNumber
		}
	}
	return highest, nil
}

func (s *MemoryStore) FindTournamentResults(ctx context.Context, tournamentID string) ([]*models.TournamentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.TournamentResult, 0, len(s.results[tournamentID]))
	for _, r := range s.results[tournamentID] {
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return rankOrder(out[i], out[j]) })
	return out, nil
}

func (s *MemoryStore) UpdateTournamentResult(ctx context.Context, tournamentID, teamKey string, fn ResultMutator) (*models.TournamentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTeam := s.results[tournamentID]
	if byTeam == nil {
		byTeam = make(map[string]*models.TournamentResult)
		s.results[tournamentID] = byTeam
	}
	current, ok := byTeam[teamKey]
	r := clone(current)
	if !ok {
		r = &models.TournamentResult{ID: uuid.NewString(), TournamentID: tournamentID, TeamKey: teamKey}
	}
	if err := fn(r, !ok); err != nil {
		return nil, err
	}
	r.TournamentID, r.TeamKey = tournamentID, teamKey
	r.UpdatedAt = s.now().UTC()
	byTeam[teamKey] = clone(r)
	return r, nil
}

func (s *MemoryStore) ReplaceTournamentResults(ctx context.Context, tournamentID string, results []*models.TournamentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTeam := make(map[string]*models.TournamentResult, len(results))
	now := s.now().UTC()
	for _, r := range results {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.TournamentID = tournamentID
		r.UpdatedAt = now
		byTeam[r.TeamKey] = clone(r)
	}
	s.results[tournamentID] = byTeam
	return nil
}

func (s *MemoryStore) FindPlayers(ctx context.Context, ids []string) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.players[id]; ok {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (s *MemoryStore) SavePlayer(ctx context.Context, p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.players[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) UpdatePlayerCareerStats(ctx context.Context, playerID string, delta models.CareerDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	p.Career = p.Career.Apply(delta)
	return nil
}

func (s *MemoryStore) WithTournamentLock(ctx context.Context, tournamentID string, fn func(ctx context.Context, s Store) error) error {
	if holdsLock(ctx, tournamentID) {
		return fn(ctx, s)
	}
	s.locksMu.Lock()
	l, ok := s.locks[tournamentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tournamentID] = l
	}
	s.locksMu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(withLockHeld(ctx, tournamentID), s)
}
