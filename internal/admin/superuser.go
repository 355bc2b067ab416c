package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
)

const maxAttempts = 3

var errTooManyAttempts = errors.New("too many invalid attempts")

// SuperuserCreator is the part of services.UserService the command needs.
type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, in services.NewUser) (*models.User, error)
}

// CreateSuperuser prompts for an email, a name and a password and creates
// a staff admin account. Invalid answers are asked again a few times.
type CreateSuperuser struct {
	Users SuperuserCreator
	In    *bufio.Reader
	Out   io.Writer
}

func (c *CreateSuperuser) Run(ctx context.Context) (*models.User, error) {
	email, err := c.ask("Email address", func(s string) string {
		if s == "" {
			return "This field cannot be blank."
		}
		return ""
	})
	if err != nil {
		return nil, err
	}

	first, err := GetSimpleText(c.In, "First name", c.Out)
	if err != nil {
		return nil, err
	}
	last, err := GetSimpleText(c.In, "Last name", c.Out)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		password, err := c.password()
		if err != nil {
			return nil, err
		}
		if password == "" {
			continue
		}

		u, err := c.Users.CreateSuperuser(ctx, services.NewUser{
			Email:     email,
			Password:  password,
			FirstName: first,
			LastName:  last,
		})

		var verr *common.ValidationError
		switch {
		case err == nil:
			fmt.Fprintln(c.Out, "Superuser created successfully.")
			return u, nil
		case errors.As(err, &verr) && len(verr.Fields["password"]) > 0 && len(verr.Fields) == 1:
			fmt.Fprintln(c.Out, "Error: "+strings.Join(verr.Fields["password"], " "))
		case errors.As(err, &verr):
			return nil, fmt.Errorf("invalid input: %s", formatFields(verr.Fields))
		default:
			return nil, err
		}
	}
	return nil, errTooManyAttempts
}

func (c *CreateSuperuser) ask(prompt string, check func(string) string) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := GetSimpleText(c.In, prompt, c.Out)
		if err != nil {
			return "", err
		}
		msg := check(v)
		if msg == "" {
			return v, nil
		}
		fmt.Fprintln(c.Out, "Error: "+msg)
	}
	return "", errTooManyAttempts
}

// password reads the password twice. It returns "" after telling the user
// what was wrong with the pair.
func (c *CreateSuperuser) password() (string, error) {
	pw, err := GetPassword("Password", c.Out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)

	again, err := GetPassword("Password (again)", c.Out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(again)

	switch {
	case len(pw) == 0:
		fmt.Fprintln(c.Out, "Error: Blank passwords aren't allowed.")
		return "", nil
	case string(pw) != string(again):
		fmt.Fprintln(c.Out, "Error: Your passwords didn't match.")
		return "", nil
	}
	return string(pw), nil
}

func formatFields(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fields[k], " "))
	}
	return strings.Join(parts, "; ")
}
