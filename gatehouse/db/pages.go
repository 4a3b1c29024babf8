package db

import (
	"database/sql"
	"errors"
	"time"

	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/models"
)

func PageExists(e Execer, path string) (bool, error) {
	var n int
	err := e.QueryRow(`select count(1) from pages where path = ?`, path).Scan(&n)
	return n > 0, err
}

func AddPage(e Execer, path, content string, authorId int64, now time.Time) error {
	_, err := e.Exec(`
		insert into pages (path, content, author_id, created_at)
		values (?, ?, ?, ?)
	`, path, content, authorId, fmtTime(now))
	return err
}

func PutPage(e Execer, path, content string, authorId int64, now time.Time) error {
	_, err := e.Exec(`
		insert into pages (path, content, author_id, created_at)
		values (?, ?, ?, ?)
		on conflict (path) do update set content = excluded.content
	`, path, content, authorId, fmtTime(now))
	return err
}

func GetPage(e Execer, path string) (*models.Page, error) {
	var p models.Page
	var createdAt string

	err := e.QueryRow(`
		select path, content, author_id, created_at from pages where path = ?
	`, path).Scan(&p.Path, &p.Content, &p.AuthorId, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Created = parseTime(createdAt)
	return &p, nil
}
