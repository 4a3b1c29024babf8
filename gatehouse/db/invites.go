package db

import (
	"database/sql"
	"errors"
	"time"

	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/models"
)

const inviteColumns = `
	id, code, inviter_id, invitee_name, entity_type, relationship_type,
	notes, created_at, expires_at, used_at, used_by_id
`

type inviteScanner interface {
	Scan(dest ...any) error
}

func scanInvite(row inviteScanner) (*models.Invite, error) {
	var inv models.Invite
	var inviteeName, notes sql.Null[string]
	var createdAt string
	var expiresAt, usedAt sql.Null[string]
	var usedById sql.Null[int64]

	err := row.Scan(
		&inv.Id,
		&inv.Code,
		&inv.InviterId,
		&inviteeName,
		&inv.EntityType,
		&inv.RelationshipType,
		&notes,
		&createdAt,
		&expiresAt,
		&usedAt,
		&usedById,
	)
	if err != nil {
		return nil, err
	}

	if inviteeName.Valid {
		inv.InviteeName = &inviteeName.V
	}
	if notes.Valid {
		inv.Notes = &notes.V
	}
	inv.Created = parseTime(createdAt)
	if expiresAt.Valid {
		inv.Expires = parseTime(expiresAt.V)
	}
	if usedAt.Valid {
		inv.Used = parseTime(usedAt.V)
	}
	if usedById.Valid {
		inv.UsedById = &usedById.V
	}

	return &inv, nil
}

func getInvite(e Execer, filters ...filter) (*models.Invite, error) {
	where, args := whereClause(filters)
	row := e.QueryRow(`select `+inviteColumns+` from invites`+where, args...)

	inv, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.ErrNotFound
	}
	return inv, err
}

func listInvites(e Execer, tail string, filters []filter, extra ...any) ([]models.Invite, error) {
	where, args := whereClause(filters)
	args = append(args, extra...)

	rows, err := e.Query(`select `+inviteColumns+` from invites`+where+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

func AddInvite(e Execer, inv *models.Invite) error {
	var inviteeName, notes, expiresAt any
	if inv.InviteeName != nil {
		inviteeName = *inv.InviteeName
	}
	if inv.Notes != nil {
		notes = *inv.Notes
	}
	if inv.Expires != nil {
		expiresAt = fmtTime(*inv.Expires)
	}

	res, err := e.Exec(`
		insert into invites (code, inviter_id, invitee_name, entity_type,
			relationship_type, notes, created_at, expires_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.Code, inv.InviterId, inviteeName, inv.EntityType,
		inv.RelationshipType, notes, fmtTime(*inv.Created), expiresAt)
	if err != nil {
		return err
	}

	inv.Id, err = res.LastInsertId()
	return err
}

func GetInviteByCode(e Execer, code string) (*models.Invite, error) {
	return getInvite(e, FilterEq("code", code))
}

func GetInviteById(e Execer, id int64) (*models.Invite, error) {
	return getInvite(e, FilterEq("id", id))
}

// GetInviteForUser returns the invite consumed to create userId, or
// ErrNotFound for genesis users.
func GetInviteForUser(e Execer, userId int64) (*models.Invite, error) {
	return getInvite(e, FilterEq("used_by_id", userId))
}

// GetUnusedInviteByName finds an unused invite whose intended
// recipient matches name. Used to prefill signup, never to enforce.
func GetUnusedInviteByName(e Execer, name string) (*models.Invite, error) {
	return getInvite(e, FilterEq("invitee_name", name), FilterIs("used_at", nil))
}

func GetInvitesByInviter(e Execer, inviterId int64) ([]models.Invite, error) {
	return listInvites(e, " order by created_at desc",
		[]filter{FilterEq("inviter_id", inviterId)})
}

func GetAllInvites(e Execer, limit, offset int) ([]models.Invite, error) {
	return listInvites(e, " order by created_at desc limit ? offset ?", nil, limit, offset)
}

// ConsumeInvite atomically marks an invite used. The guard on used_at
// makes concurrent consumers of the same code linearizable: exactly
// one update takes effect. Expiry is checked in the same statement so
// an expired code can never be consumed.
func ConsumeInvite(e Execer, code string, userId int64, now time.Time) (bool, error) {
	res, err := e.Exec(`
		update invites
		set used_at = ?, used_by_id = ?
		where code = ?
		and used_at is null
		and (expires_at is null or expires_at > ?)
	`, fmtTime(now), userId, code, fmtTime(now))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// RevokeInvite deletes an invite only while it is unused, preserving
// the audit trail of consumed codes.
func RevokeInvite(e Execer, id int64) (bool, error) {
	res, err := e.Exec(`
		delete from invites
		where id = ?
		and used_at is null
	`, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}
