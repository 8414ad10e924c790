package normalize

import (
	"testing"

	"github.com/mferreira/socioctl/internal/domain"
)

func TestNIF(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips country prefix", "PT-123456789", "123456789"},
		{"uppercases", "pt-123456789", "123456789"},
		{"truncates", "1234567890123", "123456789"},
		{"blank", "   ", ""},
		{"empty", "", ""},
		{"plain", "212121212", "212121212"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NIF(tt.in); got != tt.want {
				t.Errorf("NIF(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"rewrites country code", "(351)912345678", "+351912345678"},
		{"leaves plain numbers", "912345678", "912345678"},
		{"truncates", "+3519123456789999999999", "+3519123456789999999"},
		{"blank", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phone(tt.in); got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantFirst string
		wantLast  string
	}{
		{"two tokens", "joão silva", "João", "Silva"},
		{"many tokens", "MARIA DE LURDES SANTOS", "Maria", "De Lurdes Santos"},
		{"single token", "Madonna", "Madonna", "."},
		{"empty", "   ", NoFirstName, NoLastName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitName(tt.in)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)",
					tt.in, first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestStatusFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  domain.MembershipStatus
	}{
		{"Activo", domain.StatusActive},
		{"Utente", domain.StatusPending},
		{"Desistente", domain.StatusCancelled},
		{"Pré-Inscrição", domain.StatusPending},
		{"  Activo  ", domain.StatusActive},
		{"something else", domain.StatusPending},
		{"", domain.StatusPending},
	}
	for _, tt := range tests {
		if got := StatusFromLabel(tt.label); got != tt.want {
			t.Errorf("StatusFromLabel(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	if Date("not a date") != nil {
		t.Error("expected nil for unparseable date")
	}
	if Date("") != nil {
		t.Error("expected nil for empty date")
	}
	got := Date("1984-03-15")
	if got == nil || got.Year() != 1984 || got.Month() != 3 || got.Day() != 15 {
		t.Errorf("Date(1984-03-15) = %v", got)
	}
	if d := Date("15/03/1984"); d == nil || d.Day() != 15 {
		t.Errorf("day-first layout not parsed: %v", d)
	}
}

func TestRecordIsDeterministic(t *testing.T) {
	raw := RawRow{
		MemberNumber: "7879",
		Name:         "joão miguel silva",
		Email:        "  JOAO@Example.COM ",
		NIF:          "pt-123456789",
		Phone:        "(351)912345678",
		StatusLabel:  "Activo",
		BirthDate:    "1984-03-15",
	}
	a := Record(raw)
	b := Record(raw)
	if a.Email != "joao@example.com" {
		t.Errorf("email not normalized: %q", a.Email)
	}
	if a.FullNameKey() != "joão miguel silva" {
		t.Errorf("full name key = %q", a.FullNameKey())
	}
	if a.FirstName != b.FirstName || a.Email != b.Email || a.NIF != b.NIF || a.Status != b.Status {
		t.Error("Record is not deterministic")
	}
}
