package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	mdshared "github.com/sentosa-erp/sentosa/internal/masterdata/shared"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

type memoryRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[int64]User{}}
}

func (r *memoryRepo) List(ctx context.Context, filters mdshared.ListFilters) ([]User, int64, error) {
	out := []User{}
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.NotFoundf("user %d not found", id)
	}
	return u, nil
}

func (r *memoryRepo) Create(ctx context.Context, user User) (User, error) {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, user User) error {
	existing, ok := r.users[id]
	if !ok {
		return shared.NotFoundf("user %d not found", id)
	}
	existing.Name = user.Name
	existing.Email = user.Email
	if user.PasswordHash != "" {
		existing.PasswordHash = user.PasswordHash
	}
	r.users[id] = existing
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return shared.NotFoundf("user %d not found", id)
	}
	delete(r.users, id)
	return nil
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), Input{
		Name: "Admin", Email: "admin@sentosa.local", Password: "sentosa-admin",
	})
	require.NoError(t, err)
	require.NotEqual(t, "sentosa-admin", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("sentosa-admin")))
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Email: "a@b.c", Password: "long-enough"})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, Input{Name: "A", Password: "long-enough"})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, Input{Name: "A", Email: "a@b.c"})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, Input{Name: "A", Email: "a@b.c", Password: "short"})
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestUpdateKeepsHashWhenPasswordEmpty(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Name: "Admin", Email: "admin@sentosa.local", Password: "sentosa-admin"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, Input{Name: "Administrator", Email: "admin@sentosa.local"})
	require.NoError(t, err)
	require.Equal(t, "Administrator", updated.Name)
	require.Equal(t, created.PasswordHash, updated.PasswordHash)

	rotated, err := svc.Update(ctx, created.ID, Input{Name: "Administrator", Email: "admin@sentosa.local", Password: "new-password"})
	require.NoError(t, err)
	require.NotEqual(t, created.PasswordHash, rotated.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(rotated.PasswordHash), []byte("new-password")))
}
