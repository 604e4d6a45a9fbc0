package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/models"
)

type postgresStore struct {
	db      *sql.DB
	exec    SQLExecutor
	inTx    bool
	log     *zap.SugaredLogger
	retries uint64
}

// NewPostgresStore builds a Store over database/sql. retries bounds how often
// a result upsert that lost a first-insert race is replayed.
func NewPostgresStore(db *sql.DB, log *zap.SugaredLogger, retries int) Store {
	if retries < 0 {
		retries = 0
	}
	return &postgresStore{db: db, exec: db, log: log, retries: uint64(retries)}
}

const tournamentColumns = `id, name, format, location, date, status, bracket_type, max_players, round_robin_rounds,
	players, generated_seeds, generated_teams, byes, checked_in, champion, management_state,
	career_stats_applied, archive_url, created_at, updated_at`

func (r *postgresStore) FindTournament(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	var players, seeds, teams, byes, checkedIn, champion, state []byte
	err := r.exec.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Format, &t.Location, &t.Date, &t.Status, &t.BracketType, &t.MaxPlayers, &t.RoundRobinRounds,
		&players, &seeds, &teams, &byes, &checkedIn, &champion, &state,
		&t.CareerStatsApplied, &t.ArchiveURL, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", id, err)
	}
	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{players, &t.Players}, {seeds, &t.GeneratedSeeds}, {teams, &t.GeneratedTeams},
		{byes, &t.Byes}, {checkedIn, &t.CheckedIn}, {state, &t.ManagementState},
	} {
		if err := fromJSONB(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	if len(champion) > 0 && string(champion) != "null" {
		t.Champion = &models.PlayerRef{}
		if err := fromJSONB(champion, t.Champion); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (r *postgresStore) SaveTournament(ctx context.Context, t *models.Tournament) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	cols := make([][]byte, 0, 7)
	for _, v := range []interface{}{t.Players, t.GeneratedSeeds, t.GeneratedTeams, t.Byes, t.CheckedIn, t.Champion, t.ManagementState} {
		b, err := jsonb(v)
		if err != nil {
			return err
		}
		cols = append(cols, b)
	}

	query := `
		INSERT INTO tournaments (` + tournamentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, format = EXCLUDED.format, location = EXCLUDED.location, date = EXCLUDED.date,
			status = EXCLUDED.status, bracket_type = EXCLUDED.bracket_type, max_players = EXCLUDED.max_players,
			round_robin_rounds = EXCLUDED.round_robin_rounds, players = EXCLUDED.players,
			generated_seeds = EXCLUDED.generated_seeds, generated_teams = EXCLUDED.generated_teams,
			byes = EXCLUDED.byes, checked_in = EXCLUDED.checked_in, champion = EXCLUDED.champion,
			management_state = EXCLUDED.management_state, career_stats_applied = EXCLUDED.career_stats_applied,
			archive_url = EXCLUDED.archive_url, updated_at = EXCLUDED.updated_at`

	_, err := r.exec.ExecContext(ctx, query,
		t.ID, t.Name, t.Format, t.Location, t.Date, t.Status, t.BracketType, t.MaxPlayers, t.RoundRobinRounds,
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6],
		t.CareerStatsApplied, t.ArchiveURL, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save tournament %s: %w", t.ID, err)
	}
	return nil
}

const matchColumns = `id, tournament_id, match_number, round, round_number, bracket_position, team1, team2,
	winner, status, scheduled_date, completed_date, confirmed_at, notes, admin_override, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	var round string
	var team1, team2, override []byte
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.MatchNumber, &round, &m.RoundNumber, &m.BracketPosition, &team1, &team2,
		&m.Winner, &m.Status, &m.ScheduledDate, &m.CompletedDate, &m.ConfirmedAt, &m.Notes, &override,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.Round, err = models.ParseRound(round); err != nil {
		return nil, fmt.Errorf("match %s: %w", m.ID, err)
	}
	if err := fromJSONB(team1, &m.Team1); err != nil {
		return nil, err
	}
	if err := fromJSONB(team2, &m.Team2); err != nil {
		return nil, err
	}
	if len(override) > 0 && string(override) != "null" {
		m.AdminOverride = &models.AdminOverride{}
		if err := fromJSONB(override, m.AdminOverride); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r *postgresStore) FindMatches(ctx context.Context, tournamentID string, filter models.MatchFilter) ([]*models.Match, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)
	args := []interface{}{tournamentID}

	if filter.Round != models.RoundUnknown {
		args = append(args, filter.Round.String())
		fmt.Fprintf(&qb, " AND round = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		fmt.Fprintf(&qb, " AND status = $%d", len(args))
	}
	qb.WriteString(" ORDER BY round_number ASC, match_number ASC")

	rows, err := r.exec.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresStore) FindMatch(ctx context.Context, id string) (*models.Match, error) {
	row := r.exec.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return m, nil
}

func matchArgs(m *models.Match) ([]interface{}, error) {
	team1, err := jsonb(m.Team1)
	if err != nil {
		return nil, err
	}
	team2, err := jsonb(m.Team2)
	if err != nil {
		return nil, err
	}
	var override interface{}
	if m.AdminOverride != nil {
		b, err := jsonb(m.AdminOverride)
		if err != nil {
			return nil, err
		}
		override = b
	}
	return []interface{}{
		m.ID, m.TournamentID, m.MatchNumber, m.Round.String(), m.RoundNumber, m.BracketPosition, team1, team2,
		m.Winner, m.Status, m.ScheduledDate, m.CompletedDate, m.ConfirmedAt, m.Notes, override, m.CreatedAt, m.UpdatedAt,
	}, nil
}

func (r *postgresStore) SaveMatch(ctx context.Context, m *models.Match) error {
	m.UpdatedAt = time.Now().UTC()
	args, err := matchArgs(m)
	if err != nil {
		return err
	}
	// created_at is never rewritten
	args = append(args[:15], m.UpdatedAt)
	query := `
		UPDATE matches SET
			tournament_id = $2, match_number = $3, round = $4, round_number = $5, bracket_position = $6,
			team1 = $7, team2 = $8, winner = $9, status = $10, scheduled_date = $11, completed_date = $12,
			confirmed_at = $13, notes = $14, admin_override = $15, updated_at = $16
		WHERE id = $1`
	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update match %s: %w", m.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresStore) DeleteMatches(ctx context.Context, tournamentID string, round models.RoundKind) (int, error) {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1 AND round = $2`, tournamentID, round.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s matches: %w", round, err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (r *postgresStore) DeleteAllMatches(ctx context.Context, tournamentID string) (int, error) {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches of tournament %s: %w", tournamentID, err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (r *postgresStore) InsertMatches(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	return r.transact(ctx, func(exec SQLExecutor) error {
		query := `INSERT INTO matches (` + matchColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
		now := time.Now().UTC()
		for _, m := range matches {
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			m.CreatedAt, m.UpdatedAt = now, now
			args, err := matchArgs(m)
			if err != nil {
				return err
			}
			if _, err := exec.ExecContext(ctx, query, args...); err != nil {
				var pqErr *pq.Error
				if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "matches_tournament_number_key" {
					return fmt.Errorf("%w: %d", ErrMatchNumberTaken, m.MatchNumber)
				}
				return fmt.Errorf("failed to insert match %d: %w", m.MatchNumber, err)
			}
		}
		return nil
	})
}

func (r *postgresStore) MaxMatchNumber(ctx context.Context, tournamentID string) (int, error) {
	var n int
	err := r.exec.QueryRowContext(ctx,
		`SELECT match_number FROM matches WHERE tournament_id = $1 ORDER BY match_number DESC LIMIT 1`, tournamentID,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read max match number: %w", err)
	}
	return n, nil
}

const resultColumns = `id, tournament_id, team_key, team_name, players, player_names, division, seed,
	round_robin_scores, bracket_scores, total_stats, updated_at`

func scanResult(row rowScanner) (*models.TournamentResult, error) {
	res := &models.TournamentResult{}
	var players, names, rr, bracket, total []byte
	err := row.Scan(&res.ID, &res.TournamentID, &res.TeamKey, &res.TeamName, &players, &names, &res.Division, &res.Seed,
		&rr, &bracket, &total, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{players, &res.Players}, {names, &res.PlayerNames}, {rr, &res.RoundRobinScores},
		{bracket, &res.BracketScores}, {total, &res.TotalStats},
	} {
		if err := fromJSONB(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *postgresStore) FindTournamentResults(ctx context.Context, tournamentID string) ([]*models.TournamentResult, error) {
	query := `SELECT ` + resultColumns + ` FROM tournament_results WHERE tournament_id = $1
		ORDER BY CASE WHEN final_rank = 0 THEN 1 ELSE 0 END, final_rank ASC, team_key ASC`
	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	var results []*models.TournamentResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *postgresStore) writeResult(ctx context.Context, exec SQLExecutor, res *models.TournamentResult, insert bool) error {
	args := []interface{}{res.ID, res.TournamentID, res.TeamKey, res.TeamName}
	for _, v := range []interface{}{res.Players, res.PlayerNames} {
		b, err := jsonb(v)
		if err != nil {
			return err
		}
		args = append(args, b)
	}
	args = append(args, res.Division, res.Seed)
	for _, v := range []interface{}{res.RoundRobinScores, res.BracketScores, res.TotalStats} {
		b, err := jsonb(v)
		if err != nil {
			return err
		}
		args = append(args, b)
	}
	args = append(args, res.UpdatedAt, res.TotalStats.FinalRank)

	query := `
		UPDATE tournament_results SET
			id = $1, team_name = $4, players = $5, player_names = $6, division = $7, seed = $8,
			round_robin_scores = $9, bracket_scores = $10, total_stats = $11, updated_at = $12, final_rank = $13
		WHERE tournament_id = $2 AND team_key = $3`
	if insert {
		query = `INSERT INTO tournament_results (` + resultColumns + `, final_rank)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	}
	_, err := exec.ExecContext(ctx, query, args...)
	return err
}

// UpdateTournamentResult locks the team's row with SELECT ... FOR UPDATE, so
// concurrent writers queue behind each other. Two writers racing to create
// the same row collide on the primary key; the loser replays the whole
// read-modify-write with backoff.
func (r *postgresStore) UpdateTournamentResult(ctx context.Context, tournamentID, teamKey string, fn ResultMutator) (*models.TournamentResult, error) {
	var out *models.TournamentResult
	op := func() error {
		err := r.transact(ctx, func(exec SQLExecutor) error {
			row := exec.QueryRowContext(ctx,
				`SELECT `+resultColumns+` FROM tournament_results WHERE tournament_id = $1 AND team_key = $2 FOR UPDATE`,
				tournamentID, teamKey)
			res, err := scanResult(row)
			created := false
			if errors.Is(err, sql.ErrNoRows) {
				res = &models.TournamentResult{ID: uuid.NewString(), TournamentID: tournamentID, TeamKey: teamKey}
				created = true
			} else if err != nil {
				return fmt.Errorf("failed to lock result %s/%s: %w", tournamentID, teamKey, err)
			}
			if err := fn(res, created); err != nil {
				return err
			}
			res.TournamentID, res.TeamKey = tournamentID, teamKey
			res.UpdatedAt = time.Now().UTC()
			if err := r.writeResult(ctx, exec, res, created); err != nil {
				return err
			}
			out = res
			return nil
		})
		if err != nil && isUniqueViolation(err) && !r.inTx {
			r.log.Debugw("result insert raced, retrying", "tournament_id", tournamentID, "team_key", teamKey)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("failed to update result %s/%s: %w", tournamentID, teamKey, err)
	}
	return out, nil
}

func (r *postgresStore) ReplaceTournamentResults(ctx context.Context, tournamentID string, results []*models.TournamentResult) error {
	return r.transact(ctx, func(exec SQLExecutor) error {
		if _, err := exec.ExecContext(ctx, `DELETE FROM tournament_results WHERE tournament_id = $1`, tournamentID); err != nil {
			return fmt.Errorf("failed to clear results: %w", err)
		}
		now := time.Now().UTC()
		for _, res := range results {
			if res.ID == "" {
				res.ID = uuid.NewString()
			}
			res.TournamentID = tournamentID
			res.UpdatedAt = now
			if err := r.writeResult(ctx, exec, res, true); err != nil {
				return fmt.Errorf("failed to write result %s: %w", res.TeamKey, err)
			}
		}
		return nil
	})
}

func (r *postgresStore) FindPlayers(ctx context.Context, ids []string) ([]*models.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.exec.QueryContext(ctx, `SELECT id, name, career FROM players WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.Player, len(ids))
	for rows.Next() {
		p := &models.Player{}
		var career []byte
		if err := rows.Scan(&p.ID, &p.Name, &career); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		if err := fromJSONB(career, &p.Career); err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*models.Player, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *postgresStore) SavePlayer(ctx context.Context, p *models.Player) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	career, err := jsonb(p.Career)
	if err != nil {
		return err
	}
	_, err = r.exec.ExecContext(ctx, `
		INSERT INTO players (id, name, career) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, career = EXCLUDED.career`,
		p.ID, p.Name, career)
	if err != nil {
		return fmt.Errorf("failed to save player %s: %w", p.ID, err)
	}
	return nil
}

func (r *postgresStore) UpdatePlayerCareerStats(ctx context.Context, playerID string, delta models.CareerDelta) error {
	return r.transact(ctx, func(exec SQLExecutor) error {
		var raw []byte
		err := exec.QueryRowContext(ctx, `SELECT career FROM players WHERE id = $1 FOR UPDATE`, playerID).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}
		if err != nil {
			return fmt.Errorf("failed to lock player %s: %w", playerID, err)
		}
		var career models.CareerStats
		if err := fromJSONB(raw, &career); err != nil {
			return err
		}
		updated, err := jsonb(career.Apply(delta))
		if err != nil {
			return err
		}
		result, err := exec.ExecContext(ctx, `UPDATE players SET career = $2 WHERE id = $1`, playerID, updated)
		if err != nil {
			return fmt.Errorf("failed to update career of %s: %w", playerID, err)
		}
		return checkAffectedRows(result, ErrPlayerNotFound)
	})
}

// WithTournamentLock runs fn in one transaction holding a transaction-scoped
// advisory lock keyed by the tournament id.
func (r *postgresStore) WithTournamentLock(ctx context.Context, tournamentID string, fn func(ctx context.Context, s Store) error) error {
	if r.inTx || holdsLock(ctx, tournamentID) {
		return fn(ctx, r)
	}
	return r.transact(ctx, func(exec SQLExecutor) error {
		if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tournamentID); err != nil {
			return fmt.Errorf("failed to lock tournament %s: %w", tournamentID, err)
		}
		scoped := &postgresStore{db: r.db, exec: exec, inTx: true, log: r.log, retries: r.retries}
		return fn(withLockHeld(ctx, tournamentID), scoped)
	})
}

// transact runs fn inside the current transaction, or a new one.
func (r *postgresStore) transact(ctx context.Context, fn func(exec SQLExecutor) error) (err error) {
	if r.inTx {
		return fn(r.exec)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Errorw("transaction rollback failed", "error", rbErr)
			}
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}
