package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/startracker/internal/model"
)

type ChildStore struct {
	db *sql.DB
}

func NewChildStore(db *sql.DB) *ChildStore {
	return &ChildStore{db: db}
}

func scanChild(scanner interface{ Scan(...any) error }) (*model.Child, error) {
	var c model.Child
	var birthDate sql.NullString
	var username sql.NullString

	err := scanner.Scan(&c.ID, &c.UserID, &c.Name, &c.AvatarURL, &birthDate, &username, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if birthDate.Valid {
		c.BirthDate = &birthDate.String
	}
	if username.Valid {
		c.Username = &username.String
	}
	return &c, nil
}

const childCols = `id, user_id, name, avatar_url, birth_date, username, created_at`

func (s *ChildStore) Create(userID int64, name, avatarURL string, birthDate *string) (*model.Child, error) {
	var bd sql.NullString
	if birthDate != nil && *birthDate != "" {
		bd = sql.NullString{String: *birthDate, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO children (user_id, name, avatar_url, birth_date) VALUES (?, ?, ?, ?)`,
		userID, name, avatarURL, bd,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChildStore) GetByID(id int64) (*model.Child, error) {
	row := s.db.QueryRow(`SELECT `+childCols+` FROM children WHERE id = ?`, id)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

// GetByUsername looks up a child by their login credential username.
func (s *ChildStore) GetByUsername(username string) (*model.Child, error) {
	row := s.db.QueryRow(`SELECT `+childCols+` FROM children WHERE username = ?`, strings.ToLower(username))
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child by username: %w", err)
	}
	return c, nil
}

func (s *ChildStore) List() ([]model.Child, error) {
	rows, err := s.db.Query(`SELECT ` + childCols + ` FROM children ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

func (s *ChildStore) Update(id int64, name, avatarURL string, birthDate *string) (*model.Child, error) {
	var bd sql.NullString
	if birthDate != nil && *birthDate != "" {
		bd = sql.NullString{String: *birthDate, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE children SET name = ?, avatar_url = ?, birth_date = ? WHERE id = ?`,
		name, avatarURL, bd, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update child: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a child. Evaluations, redemptions, challenge progress, and
// ledger transactions go with it via foreign key cascades.
func (s *ChildStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM children WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	return nil
}

// SetCredential attaches a login credential so the child can sign in and
// view their own dashboard. The username is stored lowercase.
func (s *ChildStore) SetCredential(id int64, username, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE children SET username = ?, password_hash = ? WHERE id = ?`,
		strings.ToLower(username), passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

func (s *ChildStore) ClearCredential(id int64) error {
	_, err := s.db.Exec(`UPDATE children SET username = NULL, password_hash = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// GetPasswordHash returns the child's credential hash, or "" if none is set.
func (s *ChildStore) GetPasswordHash(id int64) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRow(`SELECT password_hash FROM children WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash.String, nil
}
