package sqlxrepos

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/board"
)

// the first placeholder is the user the "liked" flag is computed for
const boardListQuery = `SELECT b.id, b.church_id, b.author_id, b.title, b.content, b.post_type, b.audience, b.ministry_id,
		b.cell_id, b.pinned, b.allow_comments, b.expires_at, b.created_at,
		u.name AS author_name, m.name AS ministry_name, c.name AS cell_name,
		(SELECT COUNT(*) FROM board_likes l WHERE l.post_id = b.id) AS likes,
		(SELECT COUNT(*) FROM board_comments bc WHERE bc.post_id = b.id) AS comments,
		EXISTS (SELECT 1 FROM board_likes l WHERE l.post_id = b.id AND l.user_id = ?) AS liked
	FROM board_posts b
	LEFT JOIN users u ON u.id = b.author_id
	LEFT JOIN ministries m ON m.id = b.ministry_id
	LEFT JOIN cells c ON c.id = b.cell_id
	WHERE b.church_id = ?`

type boardRepository struct{}

var _ board.Repository = (*boardRepository)(nil)

func NewBoardRepository() board.Repository {
	return &boardRepository{}
}

func (repo *boardRepository) MinistryExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM ministries WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *boardRepository) CellExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM cells WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *boardRepository) QueryPosts(
	ctx context.Context,
	db core.DBExecutor,
	churchID, userID string,
	filter board.Filter,
	now time.Time,
) ([]board.PostListItem, error) {
	query := boardListQuery + " AND (b.expires_at IS NULL OR b.expires_at >= ?)"
	args := []interface{}{userID, churchID, now}
	if filter.Type != "" {
		query += " AND b.post_type = ?"
		args = append(args, filter.Type)
	}
	if filter.Audience != "" {
		query += " AND b.audience = ?"
		args = append(args, filter.Audience)
	}
	query += " ORDER BY b.pinned DESC, b.created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	posts := make([]board.PostListItem, 0)
	if err := selectAll(ctx, db, &posts, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	return posts, nil
}

func (repo *boardRepository) GetPost(ctx context.Context, db core.DBExecutor, churchID, userID, id string) (board.PostListItem, error) {
	var p board.PostListItem
	if err := get(ctx, db, &p, board.ErrNotFound, boardListQuery+" AND b.id = ?", userID, churchID, id); err != nil {
		return board.PostListItem{}, err
	}
	return p, nil
}

func (repo *boardRepository) CreatePost(ctx context.Context, db core.DBExecutor, p board.Post) (board.Post, error) {
	p.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO board_posts
		(id, church_id, author_id, title, content, post_type, audience, ministry_id, cell_id, pinned, allow_comments,
			expires_at, created_at)
		VALUES (:id, :church_id, :author_id, :title, :content, :post_type, :audience, :ministry_id, :cell_id, :pinned,
			:allow_comments, :expires_at, :created_at)`, p)
	if err != nil {
		return board.Post{}, errors.Wrap(err, "inserting post")
	}
	return p, nil
}

func (repo *boardRepository) DeletePost(ctx context.Context, db core.DBExecutor, churchID, id string) error {
	if _, err := exec(ctx, db, "DELETE FROM board_likes WHERE post_id = ?", id); err != nil {
		return errors.Wrap(err, "deleting likes")
	}
	if _, err := exec(ctx, db, "DELETE FROM board_comments WHERE post_id = ?", id); err != nil {
		return errors.Wrap(err, "deleting comments")
	}
	return execOne(ctx, db, board.ErrNotFound, "DELETE FROM board_posts WHERE church_id = ? AND id = ?", churchID, id)
}

func (repo *boardRepository) ToggleLike(ctx context.Context, db core.DBExecutor, postID, userID string, at time.Time) (bool, error) {
	res, err := exec(ctx, db, "DELETE FROM board_likes WHERE post_id = ? AND user_id = ?", postID, userID)
	if err != nil {
		return false, errors.Wrap(err, "deleting like")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	_, err = exec(ctx, db, "INSERT INTO board_likes (post_id, user_id, created_at) VALUES (?, ?, ?)", postID, userID, at)
	if err != nil {
		return false, errors.Wrap(err, "inserting like")
	}
	return true, nil
}

func (repo *boardRepository) QueryComments(ctx context.Context, db core.DBExecutor, postID string) ([]board.CommentListItem, error) {
	comments := make([]board.CommentListItem, 0)
	err := selectAll(ctx, db, &comments, `SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, u.name AS author_name
		FROM board_comments c LEFT JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ? ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	return comments, nil
}

func (repo *boardRepository) CreateComment(ctx context.Context, db core.DBExecutor, c board.Comment) (board.Comment, error) {
	c.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO board_comments (id, post_id, author_id, content, created_at)
		VALUES (:id, :post_id, :author_id, :content, :created_at)`, c)
	if err != nil {
		return board.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return c, nil
}

const prayerColumns = `w.id, w.church_id, w.author_id, w.request, w.is_anonymous, w.praying_count, w.answered, w.testimony,
	w.answered_at, w.created_at`

func (repo *boardRepository) QueryPrayers(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	answered bool,
) ([]board.PrayerListItem, error) {
	prayers := make([]board.PrayerListItem, 0)
	err := selectAll(ctx, db, &prayers, `SELECT `+prayerColumns+`, u.name AS author_name
		FROM prayer_wall w LEFT JOIN users u ON u.id = w.author_id
		WHERE w.church_id = ? AND w.answered = ?
		ORDER BY w.created_at DESC`, churchID, answered)
	if err != nil {
		return nil, errors.Wrap(err, "querying prayer requests")
	}
	return prayers, nil
}

func (repo *boardRepository) GetPrayer(ctx context.Context, db core.DBExecutor, churchID, id string) (board.PrayerRequest, error) {
	var p board.PrayerRequest
	err := get(ctx, db, &p, board.ErrPrayerNotFound, "SELECT "+prayerColumns+" FROM prayer_wall w WHERE w.church_id = ? AND w.id = ?",
		churchID, id)
	if err != nil {
		return board.PrayerRequest{}, err
	}
	return p, nil
}

func (repo *boardRepository) CreatePrayer(ctx context.Context, db core.DBExecutor, p board.PrayerRequest) (board.PrayerRequest, error) {
	p.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO prayer_wall
		(id, church_id, author_id, request, is_anonymous, praying_count, answered, testimony, answered_at, created_at)
		VALUES (:id, :church_id, :author_id, :request, :is_anonymous, :praying_count, :answered, :testimony, :answered_at,
			:created_at)`, p)
	if err != nil {
		return board.PrayerRequest{}, errors.Wrap(err, "inserting prayer request")
	}
	return p, nil
}

func (repo *boardRepository) IncrementPraying(ctx context.Context, db core.DBExecutor, churchID, id string) error {
	return execOne(ctx, db, board.ErrPrayerNotFound,
		"UPDATE prayer_wall SET praying_count = praying_count + 1 WHERE church_id = ? AND id = ?", churchID, id)
}

func (repo *boardRepository) UpdatePrayer(ctx context.Context, db core.DBExecutor, p board.PrayerRequest) (board.PrayerRequest, error) {
	_, err := namedExec(ctx, db, `UPDATE prayer_wall SET
		request = :request, is_anonymous = :is_anonymous, answered = :answered, testimony = :testimony,
		answered_at = :answered_at
		WHERE id = :id AND church_id = :church_id`, p)
	if err != nil {
		return board.PrayerRequest{}, errors.Wrap(err, "updating prayer request")
	}
	return p, nil
}
