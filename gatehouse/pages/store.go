package pages

import (
	"time"

	"quorum.wiki/core/gatehouse/db"
)

// SQLStore keeps record pages in the gatehouse database. A wiki
// integration would implement Store against the host's page tables.
type SQLStore struct {
	db  db.Execer
	now func() time.Time
}

func NewSQLStore(e db.Execer) *SQLStore {
	return &SQLStore{db: e, now: time.Now}
}

func (s *SQLStore) Exists(path string) (bool, error) {
	return db.PageExists(s.db, path)
}

func (s *SQLStore) Create(path, content string, authorId int64) error {
	return db.AddPage(s.db, path, content, authorId, s.now())
}

func (s *SQLStore) Put(path, content string, authorId int64) error {
	return db.PutPage(s.db, path, content, authorId, s.now())
}
