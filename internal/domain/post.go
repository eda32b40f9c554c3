package domain

import "time"

type Post struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;index;not null" json:"userId"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:2048;not null" json:"description"`
	ImageURL    string    `gorm:"size:512;not null" json:"imageUrl"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	User     User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tags     []Tag        `gorm:"many2many:post_tags" json:"tags,omitempty"`
	Comments []Comment    `gorm:"foreignKey:PostID" json:"-"`
	Ratings  []PostRating `gorm:"foreignKey:PostID" json:"-"`
}

func (Post) TableName() string { return "posts" }

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;index;not null" json:"userId"`
	PostID    string    `gorm:"size:36;index;not null" json:"postId"`
	Message   string    `gorm:"size:1024;not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Comment) TableName() string { return "comments" }

type Tag struct {
	Name string `gorm:"primaryKey;size:64" json:"name"`
}

func (Tag) TableName() string { return "tags" }

type PostRating struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	PostID string `gorm:"size:36;not null;uniqueIndex:idx_post_rater" json:"postId"`
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_post_rater" json:"userId"`
	Rating int    `gorm:"not null" json:"rating"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PostRating) TableName() string { return "post_ratings" }
