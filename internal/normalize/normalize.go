// Package normalize turns raw source fields into their canonical form.
// Every function is pure and total: malformed input degrades to a
// sentinel or empty value, never to an error, so one bad row cannot
// abort a batch.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/mferreira/socioctl/internal/domain"
)

const (
	nifCountryPrefix = "PT-"
	nifMaxLen        = 9
	phonePrefix      = "(351)"
	phoneMaxLen      = 20
	optionalMaxLen   = 255
	postalCodeMaxLen = 10
)

// ExcludedNIF is the placeholder tax id the legacy system assigned to
// members without one. Rows carrying it are not migratable.
const ExcludedNIF = "999999990"

// Sentinel name pair emitted when a row has no usable name.
const (
	NoFirstName = "Sem Nome"
	NoLastName  = "Sem Apelido"
)

// RawRow is the untyped view of one source row, keyed by concern rather
// than by spreadsheet column.
type RawRow struct {
	MemberNumber string
	Name         string
	Email        string
	NIF          string
	Phone        string
	Address      string
	PostalCode   string
	City         string
	BirthDate    string
	StatusLabel  string
	MemberSince  string
}

// Record assembles the canonical record for one raw row.
func Record(raw RawRow) domain.Record {
	first, last := SplitName(raw.Name)
	return domain.Record{
		MemberNumber: strings.TrimSpace(raw.MemberNumber),
		RawName:      strings.TrimSpace(raw.Name),
		FirstName:    first,
		LastName:     last,
		Email:        Email(raw.Email),
		NIF:          NIF(raw.NIF),
		Phone:        Phone(raw.Phone),
		Address:      Optional(raw.Address, optionalMaxLen),
		PostalCode:   Optional(raw.PostalCode, postalCodeMaxLen),
		City:         Optional(raw.City, optionalMaxLen),
		BirthDate:    Date(raw.BirthDate),
		Status:       StatusFromLabel(raw.StatusLabel),
		MemberSince:  Date(raw.MemberSince),
	}
}

// Email trims and lower-cases the address. Empty or whitespace-only
// input yields "".
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NIF strips the country prefix, upper-cases, and truncates to the
// maximum tax-id length. Blank input yields "".
func NIF(raw string) string {
	nif := strings.ToUpper(strings.TrimSpace(raw))
	nif = strings.TrimPrefix(nif, nifCountryPrefix)
	if len(nif) > nifMaxLen {
		nif = nif[:nifMaxLen]
	}
	return nif
}

// Phone rewrites the legacy "(351)" prefix as "+351" and truncates.
func Phone(raw string) string {
	phone := strings.TrimSpace(raw)
	if strings.HasPrefix(phone, phonePrefix) {
		phone = "+351" + phone[len(phonePrefix):]
	}
	if len(phone) > phoneMaxLen {
		phone = phone[:phoneMaxLen]
	}
	return phone
}

// SplitName splits a full name into (first, last). The first token
// becomes the first name; remaining tokens are joined as the last name,
// each capitalized. A single-token name gets "." as last name so the
// remote service's required field is satisfied. An empty name yields the
// sentinel pair.
func SplitName(raw string) (first, last string) {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return NoFirstName, NoLastName
	}
	first = capitalize(parts[0])
	if len(parts) == 1 {
		return first, "."
	}
	rest := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		rest = append(rest, capitalize(p))
	}
	return first, strings.Join(rest, " ")
}

// statusLabels is the closed mapping from legacy state labels to the
// remote enum. Unknown labels fall back to pending.
var statusLabels = map[string]domain.MembershipStatus{
	"Activo":        domain.StatusActive,
	"Utente":        domain.StatusPending,
	"Desistente":    domain.StatusCancelled,
	"Pré-Inscrição": domain.StatusPending,
}

// StatusFromLabel maps a legacy membership-state label to the enum.
func StatusFromLabel(label string) domain.MembershipStatus {
	if s, ok := statusLabels[strings.TrimSpace(label)]; ok {
		return s
	}
	return domain.StatusPending
}

// Optional trims and truncates a free-form field; blank yields "".
// Truncation counts runes so accented text is never split mid-character.
func Optional(raw string, maxLen int) string {
	s := strings.TrimSpace(raw)
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
}

// Date parses the handful of formats seen in exports. Unparseable input
// yields nil, never an error.
func Date(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
