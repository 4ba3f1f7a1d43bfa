package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConvenzioneRef(t *testing.T) {
	ref, err := ParseConvenzioneRef("Confartigianato Vicenza | ifad | formazione_ifad")
	require.NoError(t, err)
	assert.Equal(t, "Confartigianato Vicenza", ref.Name)
	assert.Equal(t, "ifad", ref.Host)
	assert.Equal(t, "formazione_ifad", ref.Database)
}

func TestParseConvenzioneRefMalformed(t *testing.T) {
	for _, raw := range []string{"", "solo-nome", "nome|host", "nome|host|db|extra", "nome||db"} {
		_, err := ParseConvenzioneRef(raw)
		require.Error(t, err, "raw %q", raw)
	}
}

func TestParseCourseRef(t *testing.T) {
	ref, err := ParseCourseRef("SIC-BASE|Sicurezza Base 16h")
	require.NoError(t, err)
	assert.Equal(t, "SIC-BASE", ref.Code)
	assert.Equal(t, "Sicurezza Base 16h", ref.Name)
}

func TestParseCourseRefMalformed(t *testing.T) {
	for _, raw := range []string{"", "SIC-BASE", "|Sicurezza Base", "a|b|c"} {
		_, err := ParseCourseRef(raw)
		require.Error(t, err, "raw %q", raw)
	}
}
