package models

import "time"

// AttestationType is the typed relationship an attester claims with
// the subject. Humans and bots have separate vocabularies.
type AttestationType string

const (
	// human subjects, strongest to weakest
	AttRecordedOrPerformed AttestationType = "recorded-or-performed"
	AttCollaborated        AttestationType = "collaborated"
	AttSeenPerform         AttestationType = "seen-perform"
	AttIrlBuds             AttestationType = "irl-buds"
	AttMetInPerson         AttestationType = "met-in-person"
	AttOnlineOnly          AttestationType = "online-only"

	// bot subjects
	AttOperator   AttestationType = "operator"
	AttAuthorized AttestationType = "authorized"
	AttReviewed   AttestationType = "reviewed"
	AttVouched    AttestationType = "vouched"
)

func HumanAttestationTypes() []AttestationType {
	return []AttestationType{
		AttRecordedOrPerformed, AttCollaborated, AttSeenPerform,
		AttIrlBuds, AttMetInPerson, AttOnlineOnly,
	}
}

func BotAttestationTypes() []AttestationType {
	return []AttestationType{AttOperator, AttAuthorized, AttReviewed, AttVouched}
}

// ValidFor reports whether this type belongs to the vocabulary of the
// given subject entity kind.
func (a AttestationType) ValidFor(entity EntityType) bool {
	var set []AttestationType
	switch entity {
	case EntityBot:
		set = BotAttestationTypes()
	default:
		set = HumanAttestationTypes()
	}
	for _, t := range set {
		if t == a {
			return true
		}
	}
	return false
}

// Attestation is one member vouching for another. At most one record
// exists per (subject, attester) pair, enforced by a unique index.
type Attestation struct {
	Id         int64
	SubjectId  int64
	AttesterId int64
	Type       AttestationType
	Body       string
	Created    *time.Time
}
