package database

import (
	"database/sql"
	"fmt"
)

// SourceRepo handles folder and source persistence.
type SourceRepo struct {
	coordinator *Coordinator
}

var _ SourceRepository = (*SourceRepo)(nil)

func NewSourceRepository(coordinator *Coordinator) *SourceRepo {
	return &SourceRepo{coordinator: coordinator}
}

// SyncFolderTree reconciles the full desired folder/source set against the
// stored one inside a single transaction: folders and sources not yet stored
// are inserted, existing sources get their metadata and folder assignment
// updated, and stored folders or sources absent from the desired set are
// deleted, cascading to their articles.
func (r *SourceRepo) SyncFolderTree(folders []FolderGroup) error {
	return r.coordinator.WithTransaction(func(tx *sql.Tx) error {
		existingFolders := make(map[string]int64)
		rows, err := tx.Query("SELECT id, name FROM folders")
		if err != nil {
			return fmt.Errorf("failed to load folders: %w", err)
		}
		for rows.Next() {
			var id int64
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan folder row: %w", err)
			}
			existingFolders[name] = id
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating folder rows: %w", err)
		}

		existingSources := make(map[string]bool)
		rows, err = tx.Query("SELECT source_id FROM sources")
		if err != nil {
			return fmt.Errorf("failed to load sources: %w", err)
		}
		for rows.Next() {
			var sourceID string
			if err := rows.Scan(&sourceID); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan source row: %w", err)
			}
			existingSources[sourceID] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating source rows: %w", err)
		}

		desiredFolders := make(map[string]bool, len(folders))
		desiredSources := make(map[string]bool)

		for _, group := range folders {
			desiredFolders[group.Name] = true

			folderID, ok := existingFolders[group.Name]
			if !ok {
				res, err := tx.Exec("INSERT INTO folders (name) VALUES (?)", group.Name)
				if err != nil {
					return fmt.Errorf("failed to insert folder %q: %w", group.Name, err)
				}
				folderID, err = res.LastInsertId()
				if err != nil {
					return fmt.Errorf("failed to get folder id for %q: %w", group.Name, err)
				}
			}

			for _, src := range group.Sources {
				desiredSources[src.ID] = true
				_, err := tx.Exec(`
					INSERT INTO sources (source_id, folder_id, title, html_url, feed_url, avatar, update_time)
					VALUES (?, ?, ?, ?, ?, ?, ?)
					ON CONFLICT(source_id) DO UPDATE SET
						folder_id = excluded.folder_id,
						title = excluded.title,
						html_url = excluded.html_url,
						feed_url = excluded.feed_url,
						avatar = excluded.avatar,
						update_time = excluded.update_time
				`, src.ID, folderID, src.Title, src.HTMLURL, src.FeedURL, src.Avatar, src.UpdateTime)
				if err != nil {
					return fmt.Errorf("failed to upsert source %q: %w", src.ID, err)
				}
			}
		}

		for sourceID := range existingSources {
			if !desiredSources[sourceID] {
				if _, err := tx.Exec("DELETE FROM sources WHERE source_id = ?", sourceID); err != nil {
					return fmt.Errorf("failed to delete source %q: %w", sourceID, err)
				}
			}
		}

		for name, id := range existingFolders {
			if !desiredFolders[name] {
				if _, err := tx.Exec("DELETE FROM folders WHERE id = ?", id); err != nil {
					return fmt.Errorf("failed to delete folder %q: %w", name, err)
				}
			}
		}

		return nil
	})
}

// LoadFolderTree returns the stored folder/source hierarchy ordered by folder
// name.
func (r *SourceRepo) LoadFolderTree() ([]FolderGroup, error) {
	var groups []FolderGroup
	err := r.coordinator.Read(func(q Querier) error {
		rows, err := q.Query(`
			SELECT f.name, s.source_id, s.title, s.html_url, s.feed_url, s.avatar, s.update_time
			FROM folders f
			LEFT JOIN sources s ON s.folder_id = f.id
			ORDER BY f.name, s.title
		`)
		if err != nil {
			return fmt.Errorf("failed to load folder tree: %w", err)
		}
		defer rows.Close()

		index := make(map[string]int)
		for rows.Next() {
			var folderName string
			var sourceID, title, htmlURL, feedURL, avatar sql.NullString
			var updateTime sql.NullTime
			if err := rows.Scan(&folderName, &sourceID, &title, &htmlURL, &feedURL, &avatar, &updateTime); err != nil {
				return fmt.Errorf("failed to scan folder tree row: %w", err)
			}

			pos, ok := index[folderName]
			if !ok {
				pos = len(groups)
				index[folderName] = pos
				groups = append(groups, FolderGroup{Name: folderName})
			}

			if sourceID.Valid {
				info := SourceInfo{
					ID:      sourceID.String,
					Title:   title.String,
					HTMLURL: htmlURL.String,
					FeedURL: feedURL.String,
					Avatar:  avatar.String,
				}
				if updateTime.Valid {
					t := updateTime.Time
					info.UpdateTime = &t
				}
				groups[pos].Sources = append(groups[pos].Sources, info)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// GetAllSources returns every subscribed source.
func (r *SourceRepo) GetAllSources() ([]Source, error) {
	var sources []Source
	err := r.coordinator.Read(func(q Querier) error {
		rows, err := q.Query(`
			SELECT id, source_id, folder_id, title, html_url, feed_url, avatar, update_time
			FROM sources
			ORDER BY title
		`)
		if err != nil {
			return fmt.Errorf("failed to get sources: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			src, err := scanSource(rows)
			if err != nil {
				return err
			}
			sources = append(sources, *src)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// GetSource returns a single source by its stable identifier.
func (r *SourceRepo) GetSource(sourceID string) (*Source, error) {
	var src *Source
	err := r.coordinator.Read(func(q Querier) error {
		row := q.QueryRow(`
			SELECT id, source_id, folder_id, title, html_url, feed_url, avatar, update_time
			FROM sources
			WHERE source_id = ?
		`, sourceID)

		var s Source
		var updateTime sql.NullTime
		err := row.Scan(&s.ID, &s.SourceID, &s.FolderID, &s.Title, &s.HTMLURL, &s.FeedURL, &s.Avatar, &updateTime)
		if err == sql.ErrNoRows {
			return fmt.Errorf("source %q: %w", sourceID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get source %q: %w", sourceID, err)
		}
		if updateTime.Valid {
			t := updateTime.Time
			s.UpdateTime = &t
		}
		src = &s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

// CheckSourceExists reports whether a source with the given feed URL or
// source id is already subscribed.
func (r *SourceRepo) CheckSourceExists(urlOrID string) (bool, error) {
	var exists bool
	err := r.coordinator.Read(func(q Querier) error {
		var count int
		err := q.QueryRow(
			"SELECT COUNT(*) FROM sources WHERE feed_url = ? OR source_id = ?",
			urlOrID, urlOrID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check source existence: %w", err)
		}
		exists = count > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*Source, error) {
	var s Source
	var updateTime sql.NullTime
	if err := row.Scan(&s.ID, &s.SourceID, &s.FolderID, &s.Title, &s.HTMLURL, &s.FeedURL, &s.Avatar, &updateTime); err != nil {
		return nil, fmt.Errorf("failed to scan source row: %w", err)
	}
	if updateTime.Valid {
		t := updateTime.Time
		s.UpdateTime = &t
	}
	return &s, nil
}
