package db

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/models"
)

func scanUser(row inviteScanner) (*models.User, error) {
	var u models.User
	var createdAt string

	err := row.Scan(&u.Id, &u.Name, &u.Kind, &u.EntityType, &createdAt)
	if err != nil {
		return nil, err
	}

	u.Created = parseTime(createdAt)
	return &u, nil
}

func AddUser(e Execer, u *models.User) error {
	res, err := e.Exec(`
		insert into users (name, kind, entity_type, created_at)
		values (?, ?, ?, ?)
	`, u.Name, u.Kind, u.EntityType, fmtTime(*u.Created))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return faults.ErrConflict
		}
		return err
	}

	u.Id, err = res.LastInsertId()
	return err
}

func getUser(e Execer, filters ...filter) (*models.User, error) {
	where, args := whereClause(filters)
	row := e.QueryRow(`select id, name, kind, entity_type, created_at from users`+where, args...)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.ErrNotFound
	}
	return u, err
}

func GetUserById(e Execer, id int64) (*models.User, error) {
	return getUser(e, FilterEq("id", id))
}

func GetUserByName(e Execer, name string) (*models.User, error) {
	return getUser(e, FilterEq("name", name))
}

// SetUserEntityType records whether an identity is a human or a bot,
// as declared by its consuming invite.
func SetUserEntityType(e Execer, id int64, entity models.EntityType) error {
	_, err := e.Exec(`update users set entity_type = ? where id = ?`, entity, id)
	return err
}

func GetAllUsers(e Execer) ([]models.User, error) {
	rows, err := e.Query(`select id, name, kind, entity_type, created_at from users order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
