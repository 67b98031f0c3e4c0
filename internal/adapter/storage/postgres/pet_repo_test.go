package postgres

import (
	"context"
	"testing"
	"time"

	"pet-auction-house/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPet(ownerID uuid.UUID) *domain.Pet {
	return &domain.Pet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      "Misha",
		Breed:     domain.BreedCat,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func petColumns() []string {
	return []string{"id", "owner_id", "name", "breed", "created_at"}
}

func petRow(p *domain.Pet) *pgxmock.Rows {
	return pgxmock.NewRows(petColumns()).AddRow(
		p.ID, p.OwnerID, p.Name, p.Breed, p.CreatedAt,
	)
}

func TestPetRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPetRepo(mock)
	p := newTestPet(uuid.New())

	mock.ExpectExec("INSERT INTO pets").
		WithArgs(p.ID, p.OwnerID, p.Name, p.Breed, p.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPetRepo(mock)
	p := newTestPet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM pets WHERE id").
		WithArgs(p.ID).
		WillReturnRows(petRow(p))

	result, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, domain.BreedCat, result.Breed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPetRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM pets WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(petColumns()))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetRepo_ListByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPetRepo(mock)
	ownerID := uuid.New()
	p1, p2 := newTestPet(ownerID), newTestPet(ownerID)
	p2.Name = "Quill"
	p2.Breed = domain.BreedHedgehog

	rows := pgxmock.NewRows(petColumns()).
		AddRow(p1.ID, p1.OwnerID, p1.Name, p1.Breed, p1.CreatedAt).
		AddRow(p2.ID, p2.OwnerID, p2.Name, p2.Breed, p2.CreatedAt)

	mock.ExpectQuery("SELECT .+ FROM pets WHERE owner_id").
		WithArgs(ownerID).
		WillReturnRows(rows)

	pets, err := repo.ListByOwner(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, pets, 2)
	assert.Equal(t, "Misha", pets[0].Name)
	assert.Equal(t, "Quill", pets[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetRepo_UpdateOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPetRepo(mock)
	p := newTestPet(uuid.New())
	newOwner := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE pets SET owner_id").
		WithArgs(newOwner, p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateOwner(context.Background(), tx, p.ID, newOwner)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
