package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"eventhub/internal/model"

	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	model.User
	// Password is optional; seeded users without one set it through the reset flow.
	Password string `json:"password"`
}

// SeedUsers upserts the users listed in a JSON array file.
func SeedUsers(ctx context.Context, r Repository, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var users []seedUser
	if err := json.Unmarshal(raw, &users); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}
	for i := range users {
		u := users[i].User
		if u.ID <= 0 {
			return i, fmt.Errorf("seed user %d: id must be positive", i)
		}
		if users[i].Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(users[i].Password), bcrypt.DefaultCost)
			if err != nil {
				return i, fmt.Errorf("seed user %d: hash password: %w", u.ID, err)
			}
			u.PasswordHash = string(hash)
		}
		if err := r.SaveUser(ctx, &u); err != nil {
			return i, fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}
	return len(users), nil
}
