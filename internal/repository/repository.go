package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every data-access interface. Services take the
// aggregate so a transaction can hand them a tx-bound copy.
type Repository struct {
	User    UserRepository
	Group   GroupRepository
	Vehicle VehicleRepository
	Child   ChildRepository
	Request RequestRepository
	Carpool CarpoolRepository
	Message MessageRepository
	Place   PlaceRepository
	Friend  FriendRepository
	Tx      Transactor
}

// Transactor runs fn against a repository whose writes commit or roll back together.
type Transactor interface {
	Transaction(ctx context.Context, fn func(repo *Repository) error) error
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:    NewUserRepo(db),
		Group:   NewGroupRepo(db),
		Vehicle: NewVehicleRepo(db),
		Child:   NewChildRepo(db),
		Request: NewRequestRepo(db),
		Carpool: NewCarpoolRepo(db),
		Message: NewMessageRepo(db),
		Place:   NewPlaceRepo(db),
		Friend:  NewFriendRepo(db),
		Tx:      &gormTransactor{db: db},
	}
}

type gormTransactor struct {
	db *gorm.DB
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(repo *Repository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
