package models

import "time"

type User struct {
	ID         int64
	Email      string
	Username   string
	PassHash   []byte
	IsVerified bool
}

// UserPrivate is a user without its password hash.
// It is what the user may see about themself and what a session stores.
type UserPrivate struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Verified bool   `json:"verified"`
}

// UserPublic is what anyone may see about a user.
type UserPublic struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// * Private возвращает копию пользователя без хеша пароля
func (u User) Private() UserPrivate {
	return UserPrivate{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Verified: u.IsVerified,
	}
}

func (u User) Public() UserPublic {
	return UserPublic{
		ID:       u.ID,
		Username: u.Username,
	}
}

// Message is an email queued for delivery.
type Message struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Link    string `json:"link"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
	Purpose string `json:"purpose"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Publisher struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Series struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Author struct {
	ID          int64  `json:"id"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Description string `json:"description"`
}

type Book struct {
	ID            int64      `json:"id"`
	ISBN13        string     `json:"isbn13"`
	Title         string     `json:"title"`
	ParutionDate  time.Time  `json:"parutionDate"`
	Summary       string     `json:"summary"`
	Pages         int32      `json:"pages"`
	CoverFilename string     `json:"coverFilename"`
	Genre         *Genre     `json:"genre,omitempty"`
	Publisher     *Publisher `json:"publisher,omitempty"`
	Series        *Series    `json:"series,omitempty"`
	Authors       []Author   `json:"authors"`
}
