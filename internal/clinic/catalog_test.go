package clinic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	catalog := Default()
	require.NotNil(t, catalog)
	assert.NotEmpty(t, catalog.AppointmentTypes)
	assert.Contains(t, catalog.AppointmentTypes, "內科")
	assert.Len(t, catalog.Doctors, 3)
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		catalog, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().AppointmentTypes, catalog.AppointmentTypes)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("partial file falls back per section", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		payload := `{"clinic_name":"康和診所","appointment_types":["中醫","針灸"]}`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

		catalog, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "康和診所", catalog.ClinicName)
		assert.Equal(t, []string{"中醫", "針灸"}, catalog.AppointmentTypes)
		assert.Len(t, catalog.Doctors, 3)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
