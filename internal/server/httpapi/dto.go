package httpapi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
)

// Responses list their fields explicitly; nothing is serialized straight
// from a model.

type tokenResponse struct {
	Token *auth.TokenPair `json:"token"`
	Msg   string          `json:"msg"`
}

type msgResponse struct {
	Msg string `json:"msg"`
}

type accessResponse struct {
	Access string `json:"access"`
}

type profileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newProfileResponse(u *models.User) profileResponse {
	return profileResponse{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
	IsStaff   bool   `json:"is_staff"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
		IsStaff:   u.IsStaff,
	}
}

type clientResponse struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ClientPhone string    `json:"client_phone"`
	Address     string    `json:"address"`
	CreatedBy   *string   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// displayName renders a creator as full name, else email, else null.
func displayName(u *models.User) *string {
	if u == nil {
		return nil
	}
	name := u.DisplayName()
	return &name
}

func newClientResponse(d services.ClientDetail) clientResponse {
	c := d.Client
	return clientResponse{
		ID:          c.ID,
		ClientName:  c.Name,
		ClientEmail: c.Email,
		ClientPhone: c.Phone,
		Address:     c.Address,
		CreatedBy:   displayName(d.Creator),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type memberResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type projectResponse struct {
	ID                 string           `json:"id"`
	ProjectName        string           `json:"project_name"`
	ProjectDescription string           `json:"project_description"`
	ProjectClient      *memberResponse  `json:"project_client"`
	WorkingUsers       []memberResponse `json:"working_users"`
	CreatedBy          *string          `json:"created_by"`
	CreatedAt          time.Time        `json:"created_at"`
}

func newProjectResponse(d services.ProjectDetail) projectResponse {
	p := d.Project
	resp := projectResponse{
		ID:                 p.ID,
		ProjectName:        p.Name,
		ProjectDescription: p.Description,
		WorkingUsers:       make([]memberResponse, 0, len(d.WorkingUsers)),
		CreatedBy:          displayName(d.Creator),
		CreatedAt:          p.CreatedAt,
	}
	if d.Client != nil {
		resp.ProjectClient = &memberResponse{ID: d.Client.ID, Email: d.Client.Email}
	}
	for _, u := range d.WorkingUsers {
		resp.WorkingUsers = append(resp.WorkingUsers, memberResponse{ID: u.ID, Email: u.Email})
	}
	return resp
}

type attachmentResponse struct {
	Key    string `json:"key"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

func newAttachmentResponse(t *models.AttachmentTicket) attachmentResponse {
	return attachmentResponse{Key: t.Key, Method: t.Method, URL: t.URL}
}

// Requests.

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type resetEmailRequest struct {
	Email string `json:"email"`
}

type attachmentRequest struct {
	FileName string `json:"file_name"`
}

type clientPatchRequest struct {
	ClientName  *string `json:"client_name"`
	ClientEmail *string `json:"client_email"`
	ClientPhone *string `json:"client_phone"`
	Address     *string `json:"address"`
}

func (r clientPatchRequest) patch() services.ClientPatch {
	return services.ClientPatch{Name: r.ClientName, Email: r.ClientEmail, Phone: r.ClientPhone, Address: r.Address}
}

// nullableID tells an explicit null apart from an absent field.
type nullableID struct {
	Set   bool
	Value *string
}

func (n *nullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type projectPatchRequest struct {
	ProjectName        *string    `json:"project_name"`
	ProjectDescription *string    `json:"project_description"`
	ProjectClient      nullableID `json:"project_client"`
	WorkingUsers       *[]string  `json:"working_users"`
}

func (r projectPatchRequest) patch() services.ProjectPatch {
	return services.ProjectPatch{
		Name:           r.ProjectName,
		Description:    r.ProjectDescription,
		ClientSet:      r.ProjectClient.Set,
		ClientID:       r.ProjectClient.Value,
		WorkingUserIDs: r.WorkingUsers,
	}
}
