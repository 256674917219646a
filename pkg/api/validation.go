package api

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// User field messages.
const (
	MsgFirstNameRequired = "A first name is required"
	MsgFirstNameEmpty    = "Please provide a first name"
	MsgLastNameRequired  = "A last name is required"
	MsgLastNameEmpty     = "Please provide a last name"
	MsgEmailRequired     = "An email is required"
	MsgEmailInvalid      = "Please provide a valid email address"
	MsgEmailEmpty        = "Please provide an email"
	MsgEmailExists       = "The email you entered already exists"
	MsgPasswordRequired  = "A password is required"
	MsgPasswordEmpty     = "Please provide a password"
	MsgPasswordLength    = "The password should be between 8 and 20 characters in length"
)

// Course field messages.
const (
	MsgTitleRequired       = "A title is required"
	MsgTitleEmpty          = "Please provide a title"
	MsgDescriptionRequired = "A description is required"
	MsgDescriptionEmpty    = "Please provide a description"
	MsgOwnerRequired       = "A course owner is required"
)

// Password length bounds, in characters.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 20
)

// ErrSecretNotHashable is wrapped by hashers when a secret is structurally
// unusable (for example longer than the algorithm accepts). NewUser treats
// it as "no hash", not as a server fault.
var ErrSecretNotHashable = errors.New("secret cannot be hashed")

// SecretHasher produces a one-way hash of a plaintext secret.
type SecretHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
}

// violations accumulates messages in the order validators run.
type violations []string

// field runs the validators of a non-nullable field. A missing or null value
// reports only nullMsg; otherwise every failing check is reported in order.
func (v *violations) field(f Field, nullMsg string, checks ...check) {
	if !f.Set || !f.Valid {
		*v = append(*v, nullMsg)
		return
	}
	for _, c := range checks {
		if !c.ok(f.Value) {
			*v = append(*v, c.msg)
		}
	}
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return NewFieldViolation(v...)
}

type check struct {
	ok  func(string) bool
	msg string
}

func notEmpty(msg string) check {
	return check{ok: func(s string) bool { return strings.TrimSpace(s) != "" }, msg: msg}
}

func isEmail(msg string) check {
	return check{ok: ValidEmail, msg: msg}
}

func length(min, max int, msg string) check {
	return check{ok: func(s string) bool {
		n := utf8.RuneCountInString(s)
		return n >= min && n <= max
	}, msg: msg}
}

// ValidEmail reports whether s is a bare addr-spec with a dotted domain.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

// NewUser validates in and builds a User ready to be persisted. The hash is
// computed only when the plaintext and its confirmation are both present and
// equal; otherwise the hash stays empty and the missing-hash constraint
// fails. All violations are returned together as a *ValidationError. Hasher
// failures other than ErrSecretNotHashable are returned unchanged.
func NewUser(ctx context.Context, in UserInput, hasher SecretHasher) (*User, error) {
	var hash string
	if in.UnconfirmedPassword.Valid && in.Password.Valid && in.Password.Value == in.UnconfirmedPassword.Value {
		h, err := hasher.Hash(ctx, in.Password.Value)
		switch {
		case err == nil:
			hash = h
		case errors.Is(err, ErrSecretNotHashable):
		default:
			return nil, err
		}
	}

	var v violations
	v.field(in.FirstName, MsgFirstNameRequired, notEmpty(MsgFirstNameEmpty))
	v.field(in.LastName, MsgLastNameRequired, notEmpty(MsgLastNameEmpty))
	v.field(in.EmailAddress, MsgEmailRequired, isEmail(MsgEmailInvalid), notEmpty(MsgEmailEmpty))
	v.field(in.UnconfirmedPassword, MsgPasswordRequired,
		notEmpty(MsgPasswordEmpty),
		length(MinPasswordLength, MaxPasswordLength, MsgPasswordLength),
	)
	if hash == "" {
		v = append(v, MsgPasswordRequired)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	return &User{
		FirstName:    in.FirstName.Value,
		LastName:     in.LastName.Value,
		EmailAddress: in.EmailAddress.Value,
		PasswordHash: hash,
	}, nil
}

// NewCourse validates in and builds a Course owned by ownerID.
func NewCourse(in CourseInput, ownerID int64) (*Course, error) {
	if err := validateCourse(in, ownerID); err != nil {
		return nil, err
	}
	return &Course{
		Title:           in.Title.Value,
		Description:     in.Description.Value,
		EstimatedTime:   in.EstimatedTime.Ptr(),
		MaterialsNeeded: in.MaterialsNeeded.Ptr(),
		UserID:          ownerID,
	}, nil
}

// Apply returns a copy of c with the fields present in in replaced, after
// validating the merged result. Absent fields keep their stored value and
// the owner never changes. c is not modified.
func (c *Course) Apply(in CourseInput) (*Course, error) {
	merged := CourseInput{
		Title:           String(c.Title),
		Description:     String(c.Description),
		EstimatedTime:   fieldFromPtr(c.EstimatedTime),
		MaterialsNeeded: fieldFromPtr(c.MaterialsNeeded),
	}
	if in.Title.Set {
		merged.Title = in.Title
	}
	if in.Description.Set {
		merged.Description = in.Description
	}
	if in.EstimatedTime.Set {
		merged.EstimatedTime = in.EstimatedTime
	}
	if in.MaterialsNeeded.Set {
		merged.MaterialsNeeded = in.MaterialsNeeded
	}

	updated, err := NewCourse(merged, c.UserID)
	if err != nil {
		return nil, err
	}
	updated.ID = c.ID
	updated.User = c.User
	return updated, nil
}

func validateCourse(in CourseInput, ownerID int64) error {
	var v violations
	v.field(in.Title, MsgTitleRequired, notEmpty(MsgTitleEmpty))
	v.field(in.Description, MsgDescriptionRequired, notEmpty(MsgDescriptionEmpty))
	if ownerID == 0 {
		v = append(v, MsgOwnerRequired)
	}
	return v.err()
}
