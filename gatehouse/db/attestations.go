package db

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/models"
)

const attestationColumns = `
	id, subject_id, attester_id, attestation_type, body, created_at
`

func scanAttestation(row inviteScanner) (*models.Attestation, error) {
	var att models.Attestation
	var createdAt string

	err := row.Scan(
		&att.Id,
		&att.SubjectId,
		&att.AttesterId,
		&att.Type,
		&att.Body,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	att.Created = parseTime(createdAt)
	return &att, nil
}

// AddAttestation inserts a record, relying on the unique
// (subject_id, attester_id) index to close the create-create race.
// A lost race surfaces as ErrConflict.
func AddAttestation(e Execer, att *models.Attestation) error {
	res, err := e.Exec(`
		insert into attestations (subject_id, attester_id, attestation_type, body, created_at)
		values (?, ?, ?, ?, ?)
	`, att.SubjectId, att.AttesterId, att.Type, att.Body, fmtTime(*att.Created))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return faults.ErrConflict
		}
		return err
	}

	att.Id, err = res.LastInsertId()
	return err
}

func GetAttestation(e Execer, subjectId, attesterId int64) (*models.Attestation, error) {
	row := e.QueryRow(`
		select `+attestationColumns+`
		from attestations
		where subject_id = ? and attester_id = ?
	`, subjectId, attesterId)

	att, err := scanAttestation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.ErrNotFound
	}
	return att, err
}

func UpdateAttestation(e Execer, subjectId, attesterId int64, typ models.AttestationType, body string) error {
	res, err := e.Exec(`
		update attestations
		set attestation_type = ?, body = ?
		where subject_id = ? and attester_id = ?
	`, typ, body, subjectId, attesterId)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return faults.ErrNotFound
	}
	return nil
}

func GetAttestationsForSubject(e Execer, subjectId int64) ([]models.Attestation, error) {
	return listAttestations(e, FilterEq("subject_id", subjectId))
}

func GetAttestationsByAttester(e Execer, attesterId int64) ([]models.Attestation, error) {
	return listAttestations(e, FilterEq("attester_id", attesterId))
}

func listAttestations(e Execer, filters ...filter) ([]models.Attestation, error) {
	where, args := whereClause(filters)
	rows, err := e.Query(`
		select `+attestationColumns+`
		from attestations
		`+where+`
		order by created_at desc
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attestations []models.Attestation
	for rows.Next() {
		att, err := scanAttestation(rows)
		if err != nil {
			return nil, err
		}
		attestations = append(attestations, *att)
	}
	return attestations, rows.Err()
}
