// Package pages emits the durable record pages the engine writes into
// the wiki's content store. The engine is agnostic to rendering; it
// only produces content strings and asks for protection afterwards.
package pages

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"quorum.wiki/core/gatehouse/models"
)

// Store is the engine's boundary with the durable content store.
type Store interface {
	Exists(path string) (bool, error)
	Create(path, content string, authorId int64) error
	Put(path, content string, authorId int64) error
}

func AttestationPath(subject, attester string) string {
	return fmt.Sprintf("User:%s/Attestations/by-%s", subject, attester)
}

func InviteRecordPath(subject string) string {
	return fmt.Sprintf("User:%s/Attestations/invite-record", subject)
}

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips markup from member-supplied freeform text before it
// is embedded in a record page.
func Sanitize(text string) string {
	return strings.TrimSpace(sanitizer.Sanitize(text))
}

// InviteRecordContent builds the origin record written when a signup
// consumes an invite.
func InviteRecordContent(subjectName, inviterName string, inv *models.Invite) string {
	var b strings.Builder

	fmt.Fprintf(&b, "{{InviteRecord\n")
	fmt.Fprintf(&b, "|entity_type=%s\n", inv.EntityType)
	fmt.Fprintf(&b, "|relationship_type=%s\n", inv.RelationshipType)
	fmt.Fprintf(&b, "|invited_by=User:%s\n", inviterName)
	if inv.Used != nil {
		fmt.Fprintf(&b, "|invited_at=%s\n", inv.Used.UTC().Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "|invite_code_id=%d\n", inv.Id)
	if inv.InviteeName != nil && *inv.InviteeName != subjectName {
		fmt.Fprintf(&b, "|known_as=%s\n", *inv.InviteeName)
	}
	fmt.Fprintf(&b, "}}\n")

	if inv.Notes != nil {
		fmt.Fprintf(&b, "\n%s\n", Sanitize(*inv.Notes))
	}

	fmt.Fprintf(&b, "\n[[Category:%s Users]]\n", title(string(inv.EntityType)))
	fmt.Fprintf(&b, "[[Category:Attestations]]\n")
	fmt.Fprintf(&b, "[[Invited by::User:%s]]\n", inviterName)
	fmt.Fprintf(&b, "[[Entity type::%s]]\n", inv.EntityType)
	fmt.Fprintf(&b, "[[Attestation type::%s]]\n", inv.RelationshipType)

	return b.String()
}

// AttestationContent builds the page for one member vouching for
// another. Body text is sanitized; everything else is typed data.
func AttestationContent(subjectName, attesterName string, att *models.Attestation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "{{Attestation\n")
	fmt.Fprintf(&b, "|attester=User:%s\n", attesterName)
	fmt.Fprintf(&b, "|subject=User:%s\n", subjectName)
	if att.Created != nil {
		fmt.Fprintf(&b, "|created=%s\n", att.Created.UTC().Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "|attestation_type=%s\n", att.Type)
	fmt.Fprintf(&b, "}}\n")

	if body := Sanitize(att.Body); body != "" {
		fmt.Fprintf(&b, "\n%s\n", body)
	}

	fmt.Fprintf(&b, "\n[[Category:Attestations]]\n")
	fmt.Fprintf(&b, "[[Category:Attestations by %s]]\n", attesterName)
	fmt.Fprintf(&b, "[[Attested by::User:%s]]\n", attesterName)
	fmt.Fprintf(&b, "[[Subject of attestation::User:%s]]\n", subjectName)
	fmt.Fprintf(&b, "[[Attestation type::%s]]\n", att.Type)

	return b.String()
}

// GenesisContent marks a member who predates the invitation system.
func GenesisContent(name string, entity models.EntityType, date string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "{{InviteRecord\n")
	fmt.Fprintf(&b, "|entity_type=%s\n", entity)
	fmt.Fprintf(&b, "|invited_by=Genesis\n")
	fmt.Fprintf(&b, "|invited_at=%s\n", date)
	fmt.Fprintf(&b, "|genesis=true\n")
	fmt.Fprintf(&b, "}}\n")
	fmt.Fprintf(&b, "\n[[Category:Genesis Users]]\n")
	fmt.Fprintf(&b, "[[Category:%s Users]]\n", title(string(entity)))
	fmt.Fprintf(&b, "[[Entity type::%s]]\n", entity)
	fmt.Fprintf(&b, "[[Genesis user::true]]\n")

	return b.String()
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
