package customer

import "time"

// Customer is the owning entity for a profile image. ProfileImageID holds the
// blob key reference; at most one is active per customer and a new upload
// overwrites it (old blobs are never garbage-collected).
type Customer struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name             string    `gorm:"column:name" json:"name"`
	Email            string    `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash     string    `gorm:"column:password_hash" json:"-"`
	Age              int       `gorm:"column:age" json:"age"`
	Gender           string    `gorm:"column:gender" json:"gender"`
	ProfileImageID   string    `gorm:"column:profile_image_id" json:"profile_image_id,omitempty"`
	ProfileImageType string    `gorm:"column:profile_image_type" json:"-"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"-"`
}

func (Customer) TableName() string { return "customers" }
