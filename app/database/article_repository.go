package database

import (
	"cmp"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// SummaryLength is the excerpt length for article list views.
const SummaryLength = 100

// ArticleRepo handles article persistence and the derived search index.
type ArticleRepo struct {
	coordinator *Coordinator
}

var _ ArticleRepository = (*ArticleRepo)(nil)

func NewArticleRepository(coordinator *Coordinator) *ArticleRepo {
	return &ArticleRepo{coordinator: coordinator}
}

// IngestArticles stores the posts that are not yet known, keyed by guid, and
// mirrors each insert into the search index inside the same transaction.
// Posts whose guid already exists anywhere in the store are skipped, never
// updated. Returns the number of newly stored articles. The whole batch is
// atomic: a failure mid-batch leaves the prior state untouched.
func (r *ArticleRepo) IngestArticles(sourceID string, posts []Post) (int, error) {
	newCount := 0
	err := r.coordinator.WithTransaction(func(tx *sql.Tx) error {
		for _, post := range posts {
			if post.GUID == "" {
				slog.Warn("Skipping post without guid", "source_id", sourceID, "title", post.Title)
				continue
			}

			var one int
			err := tx.QueryRow("SELECT 1 FROM articles WHERE guid = ?", post.GUID).Scan(&one)
			if err == nil {
				continue
			}
			if err != sql.ErrNoRows {
				return fmt.Errorf("failed to check guid %q: %w", post.GUID, err)
			}

			body := cmp.Or(post.ContentEncoded, post.Description)

			res, err := tx.Exec(`
				INSERT INTO articles (source_id, guid, title, author, link, content, read, favorite, update_time)
				VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?)
			`, sourceID, post.GUID, post.Title, post.Author, post.Link, encodeContent(body), post.UpdateTime)
			if err != nil {
				return fmt.Errorf("failed to insert article %q: %w", post.GUID, err)
			}

			articleID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get article id for %q: %w", post.GUID, err)
			}

			_, err = tx.Exec(`
				INSERT INTO article_index (article_id, source_id, title, content, author, update_time)
				VALUES (?, ?, ?, ?, ?, ?)
			`, articleID, sourceID, indexText(post.Title), indexText(body), indexText(post.Author), post.UpdateTime)
			if err != nil {
				return fmt.Errorf("failed to index article %q: %w", post.GUID, err)
			}

			newCount++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newCount, nil
}

// QueryArticlesBySource returns list-view summaries for one source, newest
// first.
func (r *ArticleRepo) QueryArticlesBySource(sourceID string) ([]ArticleSummary, error) {
	return r.querySummaries(`
		WHERE a.source_id = ?
		ORDER BY a.update_time DESC
	`, sourceID)
}

// QueryArticleByGuidOrLink looks an article up by guid first, then falls back
// to the stored link. The guid match wins when both exist. Returns
// ErrNotFound when neither matches.
func (r *ArticleRepo) QueryArticleByGuidOrLink(key string) (*Article, error) {
	var article *Article
	err := r.coordinator.Read(func(q Querier) error {
		const selectArticle = `
			SELECT id, source_id, guid, title, author, link, content, read, favorite, update_time
			FROM articles
		`

		a, err := scanArticle(q.QueryRow(selectArticle+"WHERE guid = ?", key))
		if err == sql.ErrNoRows {
			a, err = scanArticle(q.QueryRow(selectArticle+"WHERE link = ? ORDER BY update_time DESC LIMIT 1", key))
		}
		if err == sql.ErrNoRows {
			return fmt.Errorf("article %q: %w", key, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to query article %q: %w", key, err)
		}
		article = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// MarkRead updates the read flag of a single article.
func (r *ArticleRepo) MarkRead(guid string, read bool) error {
	return r.updateFlag("read", guid, read)
}

// SetFavorite updates the favorite flag of a single article.
func (r *ArticleRepo) SetFavorite(guid string, favorite bool) error {
	return r.updateFlag("favorite", guid, favorite)
}

func (r *ArticleRepo) updateFlag(column, guid string, value bool) error {
	return r.coordinator.Write(func(e Execer) error {
		res, err := e.Exec("UPDATE articles SET "+column+" = ? WHERE guid = ?", boolToInt(value), guid)
		if err != nil {
			return fmt.Errorf("failed to update %s for %q: %w", column, guid, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows for %q: %w", guid, err)
		}
		if affected == 0 {
			return fmt.Errorf("article %q: %w", guid, ErrNotFound)
		}
		return nil
	})
}

// QueryFavorites returns all favorited articles, newest first.
func (r *ArticleRepo) QueryFavorites() ([]ArticleSummary, error) {
	return r.querySummaries(`
		WHERE a.favorite = 1
		ORDER BY a.update_time DESC
	`)
}

// ClearAllFavorites resets the favorite flag on every article.
func (r *ArticleRepo) ClearAllFavorites() error {
	return r.coordinator.Write(func(e Execer) error {
		if _, err := e.Exec("UPDATE articles SET favorite = 0 WHERE favorite = 1"); err != nil {
			return fmt.Errorf("failed to clear favorites: %w", err)
		}
		return nil
	})
}

// Search runs a text query against the search index, narrowed by the given
// options, and joins results back to their source and folder for display
// metadata. Results are ordered newest first and capped at opts.Limit
// (DefaultSearchLimit when unset).
func (r *ArticleRepo) Search(query string, opts SearchOptions) ([]ArticleSummary, error) {
	needle := "%" + escapeLike(indexText(query)) + "%"

	var sb strings.Builder
	sb.WriteString(`
		SELECT a.guid, a.source_id, s.title, f.name, a.title, a.author, a.link, a.content,
		       a.read, a.favorite, a.update_time
		FROM article_index i
		JOIN articles a ON a.id = i.article_id
		JOIN sources s ON s.source_id = i.source_id
		JOIN folders f ON f.id = s.folder_id
		WHERE (i.title LIKE ? ESCAPE '\' OR i.content LIKE ? ESCAPE '\' OR i.author LIKE ? ESCAPE '\')
	`)
	args := []any{needle, needle, needle}

	if opts.FolderID != nil {
		sb.WriteString(" AND f.id = ?")
		args = append(args, *opts.FolderID)
	}
	if opts.DateFrom != nil {
		sb.WriteString(" AND i.update_time >= ?")
		args = append(args, *opts.DateFrom)
	}
	if opts.DateTo != nil {
		sb.WriteString(" AND i.update_time <= ?")
		args = append(args, *opts.DateTo)
	}

	limit := opts.Limit
	if limit <= 0 || limit > DefaultSearchLimit {
		limit = DefaultSearchLimit
	}
	sb.WriteString(" ORDER BY i.update_time DESC LIMIT ?")
	args = append(args, limit)

	var results []ArticleSummary
	err := r.coordinator.Read(func(q Querier) error {
		rows, err := q.Query(sb.String(), args...)
		if err != nil {
			return fmt.Errorf("failed to search articles: %w", err)
		}
		defer rows.Close()

		results, err = scanSummaries(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ArticleRepo) querySummaries(clause string, args ...any) ([]ArticleSummary, error) {
	var summaries []ArticleSummary
	err := r.coordinator.Read(func(q Querier) error {
		rows, err := q.Query(`
			SELECT a.guid, a.source_id, s.title, f.name, a.title, a.author, a.link, a.content,
			       a.read, a.favorite, a.update_time
			FROM articles a
			JOIN sources s ON s.source_id = a.source_id
			JOIN folders f ON f.id = s.folder_id
		`+clause, args...)
		if err != nil {
			return fmt.Errorf("failed to query articles: %w", err)
		}
		defer rows.Close()

		summaries, err = scanSummaries(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func scanSummaries(rows *sql.Rows) ([]ArticleSummary, error) {
	var summaries []ArticleSummary
	for rows.Next() {
		var s ArticleSummary
		var content string
		var read, favorite int
		err := rows.Scan(&s.GUID, &s.SourceID, &s.SourceTitle, &s.FolderName, &s.Title,
			&s.Author, &s.Link, &content, &read, &favorite, &s.UpdateTime)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		s.Summary = summarize(decodeContent(content), SummaryLength)
		s.Read = read == 1
		s.Favorite = favorite == 1
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}
	return summaries, nil
}

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	var content string
	var read, favorite int
	err := row.Scan(&a.ID, &a.SourceID, &a.GUID, &a.Title, &a.Author, &a.Link,
		&content, &read, &favorite, &a.UpdateTime)
	if err != nil {
		return nil, err
	}
	a.Content = decodeContent(content)
	a.Read = read == 1
	a.Favorite = favorite == 1
	return &a, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
