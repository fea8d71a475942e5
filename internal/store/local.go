// Package store persists all per-tenant state in SQLite: conversation
// transcripts, provisioned sites with their documents, onboarding
// profiles, and scheduled content pipelines. Every read and write is
// scoped by tenant ID.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"brandos/internal/logging"
	"brandos/internal/types"
)

// LocalStore implements tenant-scoped persistence using SQLite.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore initializes the SQLite database at the given path.
func NewLocalStore(path string) (*LocalStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &LocalStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the required tables.
func (s *LocalStore) initialize() error {
	conversationsTable := `
	CREATE TABLE IF NOT EXISTS conversations (
		tenant_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		citations_json TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (tenant_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_tenant ON conversations(tenant_id);
	`

	sitesTable := `
	CREATE TABLE IF NOT EXISTS sites (
		tenant_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		document_json TEXT NOT NULL,
		last_sync DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (tenant_id, site_id)
	);
	CREATE INDEX IF NOT EXISTS idx_sites_tenant ON sites(tenant_id);
	`

	profilesTable := `
	CREATE TABLE IF NOT EXISTS profiles (
		tenant_id TEXT PRIMARY KEY,
		profile_json TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	pipelineTable := `
	CREATE TABLE IF NOT EXISTS pipeline_posts (
		tenant_id TEXT NOT NULL,
		post_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		title TEXT NOT NULL,
		content_summary TEXT,
		status TEXT NOT NULL,
		publish_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (tenant_id, post_id)
	);
	CREATE INDEX IF NOT EXISTS idx_pipeline_tenant ON pipeline_posts(tenant_id);
	`

	for _, table := range []string{conversationsTable, sitesTable, profilesTable, pipelineTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// ========== Conversations ==========

// AppendTurns appends turns to a tenant's transcript in a single
// transaction. Either every turn lands or none does, so a failed
// exchange never leaves a dangling user turn.
func (s *LocalStore) AppendTurns(tenantID string, turns ...types.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow(
		"SELECT COALESCE(MAX(seq), -1) + 1 FROM conversations WHERE tenant_id = ?",
		tenantID,
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}

	for i, turn := range turns {
		var citationsJSON string
		if len(turn.Citations) > 0 {
			data, err := json.Marshal(turn.Citations)
			if err != nil {
				return fmt.Errorf("failed to marshal citations: %w", err)
			}
			citationsJSON = string(data)
		}
		if _, err := tx.Exec(
			"INSERT INTO conversations (tenant_id, seq, role, content, citations_json) VALUES (?, ?, ?, ?, ?)",
			tenantID, next+i, string(turn.Role), turn.Content, citationsJSON,
		); err != nil {
			return fmt.Errorf("failed to append turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turns: %w", err)
	}

	logging.StoreDebug("[Store] appended %d turn(s) for tenant %s", len(turns), tenantID)
	return nil
}

// History returns a tenant's transcript in insertion order.
func (s *LocalStore) History(tenantID string) ([]types.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT role, content, citations_json FROM conversations WHERE tenant_id = ? ORDER BY seq ASC",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var history []types.ConversationTurn
	for rows.Next() {
		var turn types.ConversationTurn
		var role, citationsJSON string
		if err := rows.Scan(&role, &turn.Content, &citationsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = types.Role(role)
		if citationsJSON != "" {
			if err := json.Unmarshal([]byte(citationsJSON), &turn.Citations); err != nil {
				logging.StoreError("[Store] bad citations for tenant %s: %v", tenantID, err)
			}
		}
		history = append(history, turn)
	}

	return history, rows.Err()
}

// ClearConversation removes a tenant's transcript. Other tenants are
// untouched.
func (s *LocalStore) ClearConversation(tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM conversations WHERE tenant_id = ?", tenantID)
	if err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	return nil
}

// ========== Sites ==========

// SiteRecord is a persisted site: provisioning metadata plus the
// serialized site document. The document is opaque to the store.
type SiteRecord struct {
	SiteID       string
	Name         string
	Status       string
	DocumentJSON []byte
	LastSync     time.Time
}

// SaveSite upserts a site record for a tenant.
func (s *LocalStore) SaveSite(tenantID string, rec SiteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.LastSync.IsZero() {
		rec.LastSync = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO sites (tenant_id, site_id, name, status, document_json, last_sync)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tenant_id, site_id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			document_json = excluded.document_json,
			last_sync = excluded.last_sync`,
		tenantID, rec.SiteID, rec.Name, rec.Status, string(rec.DocumentJSON), rec.LastSync,
	)
	if err != nil {
		return fmt.Errorf("failed to save site: %w", err)
	}
	return nil
}

// LoadSite returns a tenant's site by ID, or (nil, nil) when absent.
func (s *LocalStore) LoadSite(tenantID, siteID string) (*SiteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec SiteRecord
	var doc string
	err := s.db.QueryRow(
		"SELECT site_id, name, status, document_json, last_sync FROM sites WHERE tenant_id = ? AND site_id = ?",
		tenantID, siteID,
	).Scan(&rec.SiteID, &rec.Name, &rec.Status, &doc, &rec.LastSync)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	rec.DocumentJSON = []byte(doc)
	return &rec, nil
}

// ListSites returns all of a tenant's sites, most recently synced first.
func (s *LocalStore) ListSites(tenantID string) ([]SiteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT site_id, name, status, document_json, last_sync FROM sites WHERE tenant_id = ? ORDER BY last_sync DESC",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []SiteRecord
	for rows.Next() {
		var rec SiteRecord
		var doc string
		if err := rows.Scan(&rec.SiteID, &rec.Name, &rec.Status, &doc, &rec.LastSync); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		rec.DocumentJSON = []byte(doc)
		sites = append(sites, rec)
	}

	return sites, rows.Err()
}

// ========== Profiles ==========

// SaveProfile stores a tenant's onboarding profile, replacing any
// previous snapshot. Merge semantics live in the profile service.
func (s *LocalStore) SaveProfile(tenantID string, profile *types.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO profiles (tenant_id, profile_json, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(tenant_id) DO UPDATE SET
			profile_json = excluded.profile_json,
			updated_at = excluded.updated_at`,
		tenantID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns a tenant's profile, or (nil, nil) when the tenant
// has not onboarded.
func (s *LocalStore) GetProfile(tenantID string) (*types.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow(
		"SELECT profile_json FROM profiles WHERE tenant_id = ?", tenantID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile types.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// ========== Pipeline ==========

// ScheduledPost is one entry in a tenant's content pipeline.
type ScheduledPost struct {
	ID             string    `json:"id"`
	Platform       string    `json:"platform"`
	Title          string    `json:"title"`
	ContentSummary string    `json:"contentSummary"`
	Status         string    `json:"status"`
	PublishAt      time.Time `json:"publishAt"`
}

// SavePosts replaces a tenant's pipeline with the given posts in a
// single transaction.
func (s *LocalStore) SavePosts(tenantID string, posts []ScheduledPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pipeline_posts WHERE tenant_id = ?", tenantID); err != nil {
		return fmt.Errorf("failed to clear pipeline: %w", err)
	}
	for _, post := range posts {
		if _, err := tx.Exec(
			"INSERT INTO pipeline_posts (tenant_id, post_id, platform, title, content_summary, status, publish_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			tenantID, post.ID, post.Platform, post.Title, post.ContentSummary, post.Status, post.PublishAt,
		); err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
	}

	return tx.Commit()
}

// AddPost prepends a single post to a tenant's pipeline.
func (s *LocalStore) AddPost(tenantID string, post ScheduledPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO pipeline_posts (tenant_id, post_id, platform, title, content_summary, status, publish_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		tenantID, post.ID, post.Platform, post.Title, post.ContentSummary, post.Status, post.PublishAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add post: %w", err)
	}
	return nil
}

// Posts returns a tenant's pipeline ordered by publish time.
func (s *LocalStore) Posts(tenantID string) ([]ScheduledPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT post_id, platform, title, content_summary, status, publish_at FROM pipeline_posts WHERE tenant_id = ? ORDER BY publish_at ASC",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline: %w", err)
	}
	defer rows.Close()

	var posts []ScheduledPost
	for rows.Next() {
		var post ScheduledPost
		if err := rows.Scan(&post.ID, &post.Platform, &post.Title, &post.ContentSummary, &post.Status, &post.PublishAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// ClearPosts removes a tenant's pipeline.
func (s *LocalStore) ClearPosts(tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM pipeline_posts WHERE tenant_id = ?", tenantID)
	if err != nil {
		return fmt.Errorf("failed to clear pipeline: %w", err)
	}
	return nil
}
