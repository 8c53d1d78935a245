package users

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestActiveUsersFiltersInactive(t *testing.T) {
	path := writeUsersFile(t, `
- id: u1
  name: Alice
  api_key: k1
  api_secret: s1
  active: true
  created_at: 2024-01-02T00:00:00Z
- id: u2
  name: Bob
  api_key: k2
  api_secret: s2
  active: false
`)

	active, err := NewStore(path).ActiveUsers()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "u1", active[0].ID)
	assert.Equal(t, "Alice", active[0].Name)
	assert.Equal(t, "k1", active[0].APIKey)
}

func TestActiveUsersRejectsMissingID(t *testing.T) {
	path := writeUsersFile(t, `
- name: NoID
  active: true
`)

	_, err := NewStore(path).ActiveUsers()
	require.Error(t, err)
}

func TestActiveUsersMissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "absent.yml")).ActiveUsers()
	require.Error(t, err)
}
