package model

import "time"

type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	PostID    string    `json:"postId"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}
