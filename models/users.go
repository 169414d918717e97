package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the identity namespace every recipe, tag and ingredient belongs to.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" firestore:"-" json:"-"`

	ID        int64     `bun:"id,pk,autoincrement" firestore:"id" json:"id"`
	Email     string    `bun:"email,notnull,unique" firestore:"email" json:"email"`
	Token     string    `bun:"token,notnull,unique" firestore:"token" json:"-"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" firestore:"created_at" json:"created_at"`
}
