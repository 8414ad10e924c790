// Package siblings analyzes shared-email groups in the source: families
// registering several athletes under one address. Whether the extra
// members should be created under alias addresses is a judgement call,
// so the analyzer only surfaces the groups as manual-review work and
// derives the aliases it would use; nothing is created without an
// explicit apply.
package siblings

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mferreira/socioctl/internal/domain"
)

// Group is a set of records sharing one email.
type Group struct {
	Email   string
	Members []domain.Record
}

// Groups returns every shared-email group, sorted by email. Records
// without an email never group.
func Groups(records []domain.Record) []Group {
	byEmail := make(map[string][]domain.Record)
	for _, rec := range records {
		if rec.Email == "" {
			continue
		}
		byEmail[rec.Email] = append(byEmail[rec.Email], rec)
	}

	var groups []Group
	for email, members := range byEmail {
		if len(members) > 1 {
			groups = append(groups, Group{Email: email, Members: members})
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Email < groups[j].Email })
	return groups
}

// Classify marks the second and later members of each shared-email
// group as requiring manual review, keyed by member number. The first
// member owns the address and migrates normally under it; Plan then
// derives aliases for the held-back rest. Records outside any group are
// absent from the map.
func Classify(records []domain.Record) map[string]domain.Classification {
	marked := make(map[string]domain.Classification)
	for _, g := range Groups(records) {
		for _, rec := range g.Members[1:] {
			if rec.MemberNumber != "" {
				marked[rec.MemberNumber] = domain.ClassManualReviewRequired
			}
		}
	}
	return marked
}

var aliasSanitize = regexp.MustCompile(`[^a-z0-9]`)

// Alias derives the plus-addressed email for a non-first group member:
// local+firstname@domain, first name lower-cased and stripped to
// alphanumerics. Returns "" when the email or name is unusable.
func Alias(email, firstName string) string {
	local, dom, ok := strings.Cut(email, "@")
	if !ok || local == "" || dom == "" {
		return ""
	}
	name := aliasSanitize.ReplaceAllString(strings.ToLower(firstName), "")
	if name == "" {
		return ""
	}
	return local + "+" + name + "@" + dom
}

// Plan lists the creations an apply pass would perform for one group:
// the first member was already migrated under the original email by the
// migrate pass, the rest get aliases. Members whose alias cannot be
// derived are returned separately for manual handling.
func Plan(g Group) (create []domain.Record, unresolvable []domain.Record) {
	for i, rec := range g.Members {
		if i == 0 {
			continue
		}
		alias := Alias(g.Email, rec.FirstName)
		if alias == "" {
			unresolvable = append(unresolvable, rec)
			continue
		}
		rec.Email = alias
		create = append(create, rec)
	}
	return create, unresolvable
}
