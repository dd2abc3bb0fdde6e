package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/rehearsal-room-reservation/internal/model"
	"github.com/iliyamo/rehearsal-room-reservation/internal/utils"
)

// MannerScoreRookie is the seed manner score for fresh accounts. The
// first evaluation replaces it with a numeric string; later ones are
// averaged in.
const MannerScoreRookie = "ROOKIE"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")
var ErrNicknameExists = errors.New("nickname already exists")

// Create inserts a user and returns its ID. Email and nickname are
// checked for duplicates up front so callers get a specific sentinel;
// the unique indexes remain the last line of defence under races.
func (r *UserRepo) Create(ctx context.Context, email, password, nickname, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	nickname = strings.TrimSpace(nickname)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=?", email).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrEmailExists
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE nickname=?", nickname).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrNicknameExists
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, nickname, role, manner_score) VALUES (?,?,?,?,?)",
		email, hash, nickname, role, MannerScoreRookie)
	if err != nil {
		low := strings.ToLower(err.Error())
		if strings.Contains(low, "1062") || strings.Contains(low, "unique") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT id,email,password_hash,nickname,role,manner_score,badges,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT id,email,password_hash,nickname,role,manner_score,badges,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1", id)
}

// GetByNickname fetches a user by nickname.
func (r *UserRepo) GetByNickname(ctx context.Context, nickname string) (model.User, error) {
	return r.scanOne(ctx, "SELECT id,email,password_hash,nickname,role,manner_score,badges,is_active,created_at,updated_at FROM users WHERE nickname=? LIMIT 1", nickname)
}

func (r *UserRepo) scanOne(ctx context.Context, q string, arg interface{}) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Nickname, &u.Role,
		&u.MannerScore, &u.Badges, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ApplyMannerScoreTx folds one evaluation score into a user's manner
// score within the caller's transaction. The rookie seed is replaced by
// the first score; subsequent scores are averaged with the current
// value, mirroring how the service has always computed manner.
func (r *UserRepo) ApplyMannerScoreTx(ctx context.Context, tx *sql.Tx, nickname string, score int) error {
	var current string
	err := tx.QueryRowContext(ctx,
		"SELECT manner_score FROM users WHERE nickname=?", nickname).Scan(&current)
	if err != nil {
		return err
	}
	next := strconv.Itoa(score)
	if current != MannerScoreRookie {
		prev, convErr := strconv.Atoi(current)
		if convErr == nil {
			next = strconv.Itoa((prev + score) / 2)
		}
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE users SET manner_score=? WHERE nickname=?", next, nickname)
	return err
}

// IncrementBadgesTx awards one mood-maker badge within the caller's
// transaction.
func (r *UserRepo) IncrementBadgesTx(ctx context.Context, tx *sql.Tx, nickname string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET badges = badges + 1 WHERE nickname=?", nickname)
	return err
}
