package users

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vportnov/balancetrack/internal/domain"
)

type record struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	APIKey    string    `yaml:"api_key"`
	APISecret string    `yaml:"api_secret"`
	Active    bool      `yaml:"active"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Store reads user records from a yaml file. The file is the system's user
// directory; it is read once at startup by the registry.
type Store struct {
	path string
}

// NewStore creates a store reading from path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// ActiveUsers loads the user file and returns only users flagged active.
// Records without an id are rejected.
func (s *Store) ActiveUsers() ([]domain.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "read users file")
	}

	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "parse users file")
	}

	var active []domain.User
	for _, r := range records {
		if r.ID == "" {
			return nil, errors.Errorf("user record without id in %s", s.path)
		}
		if !r.Active {
			continue
		}
		active = append(active, domain.User{
			ID:        r.ID,
			Name:      r.Name,
			APIKey:    r.APIKey,
			APISecret: r.APISecret,
			Active:    r.Active,
			CreatedAt: r.CreatedAt,
		})
	}
	return active, nil
}
