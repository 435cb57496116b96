package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sueda-gl/thes/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
//
// The connection pool is capped at a single connection: every write in a
// simulation step flows through one writer, which keeps SQLITE_BUSY out of
// the hot path without sprinkling mutexes over the call sites.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLite creates a new SQLite-backed repository at dbPath, creating the
// parent directory and schema as needed.
func NewSQLite(dbPath string, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for read concurrency during analysis queries.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	log.Info("database ready", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS agents (
		agent_id TEXT PRIMARY KEY,
		persona_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		post_id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		content TEXT NOT NULL,
		post_type TEXT NOT NULL,
		parent_post_id TEXT,
		created_step INTEGER NOT NULL,
		like_count INTEGER NOT NULL DEFAULT 0,
		comment_count INTEGER NOT NULL DEFAULT 0,
		cascade_depth INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_posts_agent_step ON posts(agent_id, created_step);
	CREATE INDEX IF NOT EXISTS idx_posts_parent ON posts(parent_post_id);
	CREATE INDEX IF NOT EXISTS idx_posts_step ON posts(created_step);

	CREATE TABLE IF NOT EXISTS follows (
		follower_id TEXT NOT NULL,
		followee_id TEXT NOT NULL,
		PRIMARY KEY (follower_id, followee_id)
	);
	CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id);

	CREATE TABLE IF NOT EXISTS interactions (
		agent_id TEXT NOT NULL,
		post_id TEXT NOT NULL,
		interaction_type TEXT NOT NULL,
		created_step INTEGER NOT NULL,
		UNIQUE (agent_id, post_id)
	);

	CREATE TABLE IF NOT EXISTS observations (
		agent_id TEXT NOT NULL,
		post_id TEXT NOT NULL,
		seen_step INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_observations_agent ON observations(agent_id);

	CREATE TABLE IF NOT EXISTS campaigns (
		campaign_id TEXT PRIMARY KEY,
		campaign_type TEXT NOT NULL,
		message TEXT NOT NULL,
		launch_step INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_exposures (
		agent_id TEXT NOT NULL,
		post_id TEXT NOT NULL,
		campaign_id TEXT NOT NULL,
		cascade_depth INTEGER NOT NULL,
		exposure_step INTEGER NOT NULL,
		responded INTEGER NOT NULL DEFAULT 0,
		action_type TEXT,
		UNIQUE (agent_id, post_id)
	);
	CREATE INDEX IF NOT EXISTS idx_exposures_campaign ON campaign_exposures(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_exposures_agent ON campaign_exposures(agent_id);

	CREATE TABLE IF NOT EXISTS belief_measurements (
		agent_id TEXT NOT NULL,
		attribute TEXT NOT NULL,
		value REAL NOT NULL,
		step INTEGER NOT NULL,
		reasoning TEXT,
		UNIQUE (agent_id, attribute, step)
	);

	CREATE TABLE IF NOT EXISTS simulation_runs (
		run_id TEXT PRIMARY KEY,
		config TEXT NOT NULL,
		status TEXT NOT NULL,
		total_steps INTEGER NOT NULL,
		total_agents INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		completed_at TEXT
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertPersonas stores agent personas in a single transaction.
func (s *SQLiteStore) InsertPersonas(ctx context.Context, personas []*types.Persona) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO agents (agent_id, persona_json) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range personas {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal persona %s: %w", p.AgentID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.AgentID, string(data)); err != nil {
			return fmt.Errorf("insert persona %s: %w", p.AgentID, err)
		}
	}
	return tx.Commit()
}

// GetPersona retrieves a persona by agent ID. Returns nil when absent.
func (s *SQLiteStore) GetPersona(ctx context.Context, agentID string) (*types.Persona, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT persona_json FROM agents WHERE agent_id = ?", agentID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get persona: %w", err)
	}
	var p types.Persona
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal persona %s: %w", agentID, err)
	}
	return &p, nil
}

// AllPersonas returns every stored persona ordered by agent ID.
func (s *SQLiteStore) AllPersonas(ctx context.Context) ([]*types.Persona, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT persona_json FROM agents ORDER BY agent_id")
	if err != nil {
		return nil, fmt.Errorf("query personas: %w", err)
	}
	defer rows.Close()

	var out []*types.Persona
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		var p types.Persona
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("unmarshal persona: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// InsertPost stores a post. A parent pointer also bumps the parent's comment
// counter, covering both comments and reshares.
func (s *SQLiteStore) InsertPost(ctx context.Context, post *types.Post) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts
		 (post_id, agent_id, content, post_type, parent_post_id, created_step, cascade_depth)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.AgentID, post.Content, string(post.Type),
		nullable(post.ParentID), post.CreatedStep, post.CascadeDepth)
	if err != nil {
		return fmt.Errorf("insert post %s: %w", post.ID, err)
	}
	if post.ParentID != "" {
		return s.IncrementCommentCount(ctx, post.ParentID)
	}
	return nil
}

// GetPost retrieves a post by ID. Returns nil when absent.
func (s *SQLiteStore) GetPost(ctx context.Context, postID string) (*types.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT post_id, agent_id, content, post_type, parent_post_id,
		        created_step, like_count, comment_count, cascade_depth
		 FROM posts WHERE post_id = ?`, postID)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FeedPosts returns originals and reshares authored by the given agents
// within [minStep, maxStep], newest first. Comments stay out of feeds.
func (s *SQLiteStore) FeedPosts(ctx context.Context, authorIDs []string, minStep, maxStep, limit int) ([]*types.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(authorIDs)), ",")
	query := fmt.Sprintf(
		`SELECT post_id, agent_id, content, post_type, parent_post_id,
		        created_step, like_count, comment_count, cascade_depth
		 FROM posts
		 WHERE agent_id IN (%s)
		   AND created_step <= ? AND created_step >= ?
		   AND (parent_post_id IS NULL OR post_type = 'reshare')
		 ORDER BY created_step DESC
		 LIMIT ?`, placeholders)

	args := make([]any, 0, len(authorIDs)+3)
	for _, id := range authorIDs {
		args = append(args, id)
	}
	args = append(args, maxStep, minStep, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed posts: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// PostsByStep returns all posts created at the given step.
func (s *SQLiteStore) PostsByStep(ctx context.Context, step int) ([]*types.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id, agent_id, content, post_type, parent_post_id,
		        created_step, like_count, comment_count, cascade_depth
		 FROM posts WHERE created_step = ?`, step)
	if err != nil {
		return nil, fmt.Errorf("query posts by step: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// IncrementLikeCount bumps a post's like counter.
func (s *SQLiteStore) IncrementLikeCount(ctx context.Context, postID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE posts SET like_count = like_count + 1 WHERE post_id = ?", postID)
	if err != nil {
		return fmt.Errorf("increment like count: %w", err)
	}
	return nil
}

// IncrementCommentCount bumps a post's comment counter.
func (s *SQLiteStore) IncrementCommentCount(ctx context.Context, postID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE posts SET comment_count = comment_count + 1 WHERE post_id = ?", postID)
	if err != nil {
		return fmt.Errorf("increment comment count: %w", err)
	}
	return nil
}

// InsertFollows stores follow edges in one transaction.
func (s *SQLiteStore) InsertFollows(ctx context.Context, follows []types.Follow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO follows (follower_id, followee_id) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range follows {
		if _, err := stmt.ExecContext(ctx, f.FollowerID, f.FolloweeID); err != nil {
			return fmt.Errorf("insert follow: %w", err)
		}
	}
	return tx.Commit()
}

// Following returns the IDs the agent follows.
func (s *SQLiteStore) Following(ctx context.Context, agentID string) ([]string, error) {
	return s.idColumn(ctx,
		"SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY followee_id", agentID)
}

// Followers returns the IDs following the agent.
func (s *SQLiteStore) Followers(ctx context.Context, agentID string) ([]string, error) {
	return s.idColumn(ctx,
		"SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY follower_id", agentID)
}

// InsertLike records a like and bumps the post counter. Duplicate likes are
// swallowed by the (agent, post) uniqueness constraint.
func (s *SQLiteStore) InsertLike(ctx context.Context, agentID, postID string, step int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO interactions (agent_id, post_id, interaction_type, created_step)
		 VALUES (?, ?, 'like', ?)`, agentID, postID, step)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	return true, s.IncrementLikeCount(ctx, postID)
}

// InsertObservations stores feed observations in one transaction.
func (s *SQLiteStore) InsertObservations(ctx context.Context, obs []types.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO observations (agent_id, post_id, seen_step) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, o.AgentID, o.PostID, o.SeenStep); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}
	return tx.Commit()
}

// InsertCampaign stores a campaign definition.
func (s *SQLiteStore) InsertCampaign(ctx context.Context, c *types.Campaign) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO campaigns (campaign_id, campaign_type, message, launch_step)
		 VALUES (?, ?, ?, ?)`,
		c.ID, string(c.Type), c.Message, c.LaunchStep)
	if err != nil {
		return fmt.Errorf("insert campaign %s: %w", c.ID, err)
	}
	return nil
}

// GetCampaign retrieves a campaign by ID. Returns nil when absent.
func (s *SQLiteStore) GetCampaign(ctx context.Context, campaignID string) (*types.Campaign, error) {
	var c types.Campaign
	var ct string
	err := s.db.QueryRowContext(ctx,
		"SELECT campaign_id, campaign_type, message, launch_step FROM campaigns WHERE campaign_id = ?",
		campaignID).Scan(&c.ID, &ct, &c.Message, &c.LaunchStep)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	c.Type = types.CampaignType(ct)
	return &c, nil
}

// LogExposure records a campaign exposure. The (agent, post) uniqueness
// constraint makes repeat sightings of the same post no-ops, so exposure
// counts stay idempotent across feed rebuilds.
func (s *SQLiteStore) LogExposure(ctx context.Context, e *types.CampaignExposure) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO campaign_exposures
		 (agent_id, post_id, campaign_id, cascade_depth, exposure_step, responded, action_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.AgentID, e.PostID, e.CampaignID, e.CascadeDepth, e.Step,
		boolInt(e.Responded), nullable(string(e.ActionType)))
	if err != nil {
		return false, fmt.Errorf("log exposure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkExposureResponded flags an exposure as acted on.
func (s *SQLiteStore) MarkExposureResponded(ctx context.Context, agentID, postID string, action types.ActionType) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE campaign_exposures SET responded = 1, action_type = ?
		 WHERE agent_id = ? AND post_id = ?`,
		string(action), agentID, postID)
	if err != nil {
		return fmt.Errorf("mark exposure responded: %w", err)
	}
	return nil
}

// ExposuresByCampaign returns all exposures for a campaign.
func (s *SQLiteStore) ExposuresByCampaign(ctx context.Context, campaignID string) ([]*types.CampaignExposure, error) {
	return s.queryExposures(ctx,
		"SELECT agent_id, post_id, campaign_id, cascade_depth, exposure_step, responded, action_type FROM campaign_exposures WHERE campaign_id = ?",
		campaignID)
}

// ExposuresByAgent returns all exposures for an agent.
func (s *SQLiteStore) ExposuresByAgent(ctx context.Context, agentID string) ([]*types.CampaignExposure, error) {
	return s.queryExposures(ctx,
		"SELECT agent_id, post_id, campaign_id, cascade_depth, exposure_step, responded, action_type FROM campaign_exposures WHERE agent_id = ?",
		agentID)
}

// MinExposureDepth returns the lowest cascade depth recorded for an agent on
// a campaign. The second return reports whether any exposure exists.
func (s *SQLiteStore) MinExposureDepth(ctx context.Context, agentID, campaignID string) (int, bool, error) {
	var depth sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MIN(cascade_depth) FROM campaign_exposures WHERE agent_id = ? AND campaign_id = ?",
		agentID, campaignID).Scan(&depth)
	if err != nil {
		return 0, false, fmt.Errorf("min exposure depth: %w", err)
	}
	if !depth.Valid {
		return 0, false, nil
	}
	return int(depth.Int64), true, nil
}

// DirectlyTargeted returns agents with a depth-zero exposure, i.e. those the
// campaign was injected to rather than reached through reshares. Passing ""
// matches any campaign type.
func (s *SQLiteStore) DirectlyTargeted(ctx context.Context, campaignType types.CampaignType) ([]string, error) {
	if campaignType == "" {
		return s.idColumn(ctx,
			"SELECT DISTINCT agent_id FROM campaign_exposures WHERE cascade_depth = 0 ORDER BY agent_id")
	}
	return s.idColumn(ctx,
		`SELECT DISTINCT ce.agent_id
		 FROM campaign_exposures ce
		 JOIN campaigns c ON ce.campaign_id = c.campaign_id
		 WHERE ce.cascade_depth = 0 AND c.campaign_type = ?
		 ORDER BY ce.agent_id`, string(campaignType))
}

// InsertBeliefMeasurement upserts a measurement on (agent, attribute, step),
// so remeasuring a checkpoint replaces rather than duplicates.
func (s *SQLiteStore) InsertBeliefMeasurement(ctx context.Context, m *types.BeliefMeasurement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO belief_measurements (agent_id, attribute, value, step, reasoning)
		 VALUES (?, ?, ?, ?, ?)`,
		m.AgentID, m.Attribute, m.Value, m.Step, m.Reasoning)
	if err != nil {
		return fmt.Errorf("insert belief measurement: %w", err)
	}
	return nil
}

// BeliefHistory returns an agent's measurements for an attribute in step order.
func (s *SQLiteStore) BeliefHistory(ctx context.Context, agentID, attribute string) ([]*types.BeliefMeasurement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_id, attribute, value, step, reasoning FROM belief_measurements
		 WHERE agent_id = ? AND attribute = ? ORDER BY step`, agentID, attribute)
	if err != nil {
		return nil, fmt.Errorf("query belief history: %w", err)
	}
	defer rows.Close()
	return collectBeliefs(rows)
}

// BeliefsAtStep returns all measurements at a step, optionally filtered by
// attribute ("" matches all).
func (s *SQLiteStore) BeliefsAtStep(ctx context.Context, step int, attribute string) ([]*types.BeliefMeasurement, error) {
	query := "SELECT agent_id, attribute, value, step, reasoning FROM belief_measurements WHERE step = ?"
	args := []any{step}
	if attribute != "" {
		query += " AND attribute = ?"
		args = append(args, attribute)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query beliefs at step: %w", err)
	}
	defer rows.Close()
	return collectBeliefs(rows)
}

// InsertRun records a simulation run in 'running' status.
func (s *SQLiteStore) InsertRun(ctx context.Context, run *types.SimulationRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO simulation_runs (run_id, config, status, total_steps, total_agents, seed)
		 VALUES (?, ?, 'running', ?, ?, ?)`,
		run.RunID, run.Config, run.TotalSteps, run.TotalAgents, run.Seed)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunStatus marks a run's status and completion time.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE simulation_runs SET status = ?, completed_at = ? WHERE run_id = ?",
		status, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

// Stats returns row counts per table for end-of-run summaries.
func (s *SQLiteStore) Stats(ctx context.Context) (map[string]int, error) {
	tables := []string{"agents", "posts", "follows", "interactions", "observations",
		"campaigns", "campaign_exposures", "belief_measurements"}
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out[t] = n
	}
	return out, nil
}

func (s *SQLiteStore) idColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) queryExposures(ctx context.Context, query string, args ...any) ([]*types.CampaignExposure, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exposures: %w", err)
	}
	defer rows.Close()

	var out []*types.CampaignExposure
	for rows.Next() {
		var e types.CampaignExposure
		var responded int
		var action sql.NullString
		if err := rows.Scan(&e.AgentID, &e.PostID, &e.CampaignID, &e.CascadeDepth,
			&e.Step, &responded, &action); err != nil {
			return nil, fmt.Errorf("scan exposure: %w", err)
		}
		e.Responded = responded != 0
		e.ActionType = types.ActionType(action.String)
		out = append(out, &e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*types.Post, error) {
	var p types.Post
	var pt string
	var parent sql.NullString
	if err := row.Scan(&p.ID, &p.AgentID, &p.Content, &pt, &parent,
		&p.CreatedStep, &p.LikeCount, &p.CommentCount, &p.CascadeDepth); err != nil {
		return nil, err
	}
	p.Type = types.PostType(pt)
	p.ParentID = parent.String
	return &p, nil
}

func collectPosts(rows *sql.Rows) ([]*types.Post, error) {
	var out []*types.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func collectBeliefs(rows *sql.Rows) ([]*types.BeliefMeasurement, error) {
	var out []*types.BeliefMeasurement
	for rows.Next() {
		var m types.BeliefMeasurement
		var reasoning sql.NullString
		if err := rows.Scan(&m.AgentID, &m.Attribute, &m.Value, &m.Step, &reasoning); err != nil {
			return nil, fmt.Errorf("scan belief: %w", err)
		}
		m.Reasoning = reasoning.String
		out = append(out, &m)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
