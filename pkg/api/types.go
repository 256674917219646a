package api

import (
	"encoding/json"
)

// User is an identity. EmailAddress is the unique login key; PasswordHash is
// never serialized.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress"`
	PasswordHash string `json:"-"`
}

// Owner returns the summary of u embedded in course projections.
func (u *User) Owner() *Owner {
	return &Owner{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		EmailAddress: u.EmailAddress,
	}
}

// Owner is the projection of a user nested in a course.
type Owner struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress"`
}

// UserProfile is the projection returned for the authenticated user: the
// user and the courses they own (without the nested owner).
type UserProfile struct {
	User
	Courses []Course `json:"courses"`
}

// Course is a resource owned by exactly one user. UserID never changes after
// creation. User is populated by stores that join the owner.
type Course struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	EstimatedTime   *string `json:"estimatedTime"`
	MaterialsNeeded *string `json:"materialsNeeded"`
	UserID          int64   `json:"userId"`
	User            *Owner  `json:"user,omitempty"`
}

// OwnerID returns the owning user ID.
func (c *Course) OwnerID() int64 {
	return c.UserID
}

// Field is a JSON string that remembers whether it was present in the body
// and whether it was null. An absent key leaves Set false.
type Field struct {
	Set   bool
	Valid bool
	Value string
}

// String returns a present, non-null Field.
func String(s string) Field {
	return Field{Set: true, Valid: true, Value: s}
}

// Null returns a present, null Field.
func Null() Field {
	return Field{Set: true}
}

// UnmarshalJSON records presence and nullness.
func (f *Field) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Valid = false
		f.Value = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	f.Valid = true
	f.Value = s
	return nil
}

// Ptr returns the value as a nullable string.
func (f Field) Ptr() *string {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func fieldFromPtr(p *string) Field {
	if p == nil {
		return Null()
	}
	return String(*p)
}

// UserInput is the body of a create-user request. UnconfirmedPassword holds
// the plaintext; Password is its confirmation. Neither is persisted.
type UserInput struct {
	FirstName           Field `json:"firstName"`
	LastName            Field `json:"lastName"`
	EmailAddress        Field `json:"emailAddress"`
	Password            Field `json:"password"`
	UnconfirmedPassword Field `json:"unconfirmedPassword"`
}

// CourseInput is the body of a create or update course request. Any userId
// in the body is ignored: the owner always comes from the authenticated user.
type CourseInput struct {
	Title           Field `json:"title"`
	Description     Field `json:"description"`
	EstimatedTime   Field `json:"estimatedTime"`
	MaterialsNeeded Field `json:"materialsNeeded"`
}
