package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mferreira/socioctl/internal/domain"
)

const sample = `Sócio: Número,Nome,Endereço de e-mail,NIF,NºTelefone/Telemóvel,Morada,Código Postal,Data de Nascimento,Estado Actual,Cliente desde
7879,João Miguel Silva,JOAO@Example.com,PT-123456789,(351)912345678,Rua das Flores 1,4000-100,1984-03-15,Activo,2010-01-01
7880,Maria Costa,maria@example.com,PT-999999990,,,,,Utente,
7881,Rui Lopes,,212121212,,,,,Desistente,
7879,João Miguel Silva,joao@example.com,PT-123456789,,,,,Activo,
`

func TestParse(t *testing.T) {
	result, err := Parse([]byte(sample))
	require.NoError(t, err)

	// Placeholder NIF excluded, duplicate member number collapsed.
	assert.Equal(t, 1, result.ExcludedNIF)
	assert.Equal(t, 1, result.Duplicates)
	require.Len(t, result.Records, 2)

	joao := result.Records[0]
	assert.Equal(t, "7879", joao.MemberNumber)
	assert.Equal(t, "joao@example.com", joao.Email)
	assert.Equal(t, "João", joao.FirstName)
	assert.Equal(t, "Miguel Silva", joao.LastName)
	assert.Equal(t, "123456789", joao.NIF)
	assert.Equal(t, "+351912345678", joao.Phone)
	assert.Equal(t, domain.StatusActive, joao.Status)
	require.NotNil(t, joao.BirthDate)
	assert.Equal(t, 1984, joao.BirthDate.Year())

	// No-email rows are kept; the matcher skips them with a reason.
	rui := result.Records[1]
	assert.Equal(t, "", rui.Email)
	assert.Equal(t, domain.StatusCancelled, rui.Status)
}

func TestParseSemicolonDelimiter(t *testing.T) {
	data := "Nome;Endereço de e-mail;Estado Actual\nAna Pires;ana@example.com;Activo\n"
	result, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "ana@example.com", result.Records[0].Email)
}

func TestParseWindows1252(t *testing.T) {
	// "José" with é encoded as the single Windows-1252 byte 0xE9, which
	// makes the file invalid UTF-8 and triggers the legacy decode path.
	data := append([]byte("Nome,Email\nJos"), 0xE9)
	data = append(data, []byte(" Sousa,jose@example.com\n")...)

	result, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "José", result.Records[0].FirstName)
}

func TestParseUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Nome,Email\nAna,ana@example.com\n")...)
	result, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "ana@example.com", result.Records[0].Email)
}

func TestParseRequiresEmailColumn(t *testing.T) {
	_, err := Parse([]byte("Nome,NIF\nAna,123\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email column")
}

func TestParseRaggedRows(t *testing.T) {
	data := "Nome,Endereço de e-mail,NIF\nAna Pires,ana@example.com\n"
	result, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "", result.Records[0].NIF)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
}
