package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (a *api) me(token string) userBody {
	a.t.Helper()
	var u userBody
	w := a.do(http.MethodGet, "/profile", token, nil, &u)
	require.Equal(a.t, http.StatusOK, w.Code)
	return u
}

func TestClients_CRUD(t *testing.T) {
	a := newAPI(t, guard.Open, nil)
	alice := a.register("alice@x.com")
	bob := a.register("bob@x.com")

	w := a.do(http.MethodGet, "/clients", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var created clientResponse
	w = a.do(http.MethodPost, "/clients", alice, map[string]any{
		"client_name": "Acme", "client_email": "ops@acme.io", "client_phone": "555", "address": "1 Main St",
		"created_by": "someone else",
	}, &created)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, "Test alice", *created.CreatedBy)

	var updated clientResponse
	w = a.do(http.MethodPut, "/clients/"+created.ID, bob, map[string]any{
		"client_name": "Acme Ltd", "client_email": "ops@acme.io", "address": "1 Main St",
	}, &updated)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Acme Ltd", updated.ClientName)
	assert.Equal(t, "Test alice", *updated.CreatedBy)

	w = a.do(http.MethodPatch, "/clients/"+created.ID, bob, map[string]any{"client_phone": "777"}, &updated)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "777", updated.ClientPhone)
	assert.Equal(t, "Acme Ltd", updated.ClientName)

	var list []clientResponse
	w = a.do(http.MethodGet, "/clients", bob, nil, &list)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, list, 1)

	w = a.do(http.MethodPost, "/clients", bob, map[string]any{
		"client_name": "Other", "client_email": "ops@acme.io", "address": "x",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":{"client_email":["client with this client email already exists."]}}`, w.Body.String())

	w = a.do(http.MethodDelete, "/clients/"+created.ID, bob, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodGet, "/clients/"+created.ID, bob, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/clients/not-a-uuid", bob, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClients_PathIDForms(t *testing.T) {
	a := newAPI(t, guard.Open, nil)
	alice := a.register("forms@x.com")

	var created clientResponse
	w := a.do(http.MethodPost, "/clients", alice, map[string]any{
		"client_name": "Forms", "client_email": "forms@acme.io", "address": "2 Main St",
	}, &created)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, id := range []string{strings.ToUpper(created.ID), "urn:uuid:" + created.ID} {
		var got clientResponse
		w = a.do(http.MethodGet, "/clients/"+id, alice, nil, &got)
		require.Equal(t, http.StatusOK, w.Code, id)
		assert.Equal(t, created.ID, got.ID)
	}
}

func TestClients_OwnerPolicy(t *testing.T) {
	a := newAPI(t, guard.Owner, nil)
	alice := a.register("alice@x.com")
	bob := a.register("bob@x.com")

	var created clientResponse
	w := a.do(http.MethodPost, "/clients", alice, map[string]any{
		"client_name": "Acme", "client_email": "ops@acme.io", "address": "1 Main St",
	}, &created)
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodDelete, "/clients/"+created.ID, bob, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"errors":{"detail":"You do not have permission to perform this action."}}`, w.Body.String())

	w = a.do(http.MethodDelete, "/clients/"+created.ID, alice, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProjects_CRUDAndMyProjects(t *testing.T) {
	a := newAPI(t, guard.Open, nil)
	alice := a.register("alice@x.com")
	bob := a.register("bob@x.com")
	bobID := a.me(bob).ID

	var client clientResponse
	w := a.do(http.MethodPost, "/clients", alice, map[string]any{
		"client_name": "Acme", "client_email": "ops@acme.io", "address": "1 Main St",
	}, &client)
	require.Equal(t, http.StatusCreated, w.Code)

	var project projectResponse
	w = a.do(http.MethodPost, "/projects", alice, map[string]any{
		"project_name":        "Portal",
		"project_description": "Customer portal",
		"project_client":      client.ID,
		"working_users":       []string{bobID},
	}, &project)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Portal", project.ProjectName)
	require.NotNil(t, project.ProjectClient)
	assert.Equal(t, memberResponse{ID: client.ID, Email: "ops@acme.io"}, *project.ProjectClient)
	assert.Equal(t, []memberResponse{{ID: bobID, Email: "bob@x.com"}}, project.WorkingUsers)
	assert.Equal(t, "Test alice", *project.CreatedBy)

	var mine []projectResponse
	w = a.do(http.MethodGet, "/projects/my-projects", bob, nil, &mine)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mine, 1)
	assert.Equal(t, project.ID, mine[0].ID)

	w = a.do(http.MethodGet, "/projects/my-projects", alice, nil, &mine)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mine)

	var patched projectResponse
	w = a.do(http.MethodPatch, "/projects/"+project.ID, bob, map[string]any{"project_client": nil}, &patched)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, patched.ProjectClient)
	assert.Len(t, patched.WorkingUsers, 1)

	w = a.do(http.MethodPost, "/projects", alice, map[string]any{
		"project_name": "Ghost", "project_description": "x", "working_users": []string{uuid.NewString()},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var eb errBody
	w = a.do(http.MethodPost, "/projects", alice, map[string]any{"project_name": "Empty"}, &eb)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, eb.Errors, "project_description")

	w = a.do(http.MethodDelete, "/projects/"+project.ID, alice, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(http.MethodGet, "/projects/"+project.ID, alice, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjects_DeletedCreatorRendersNull(t *testing.T) {
	a := newAPI(t, guard.Open, nil)
	alice := a.register("alice@x.com")
	bob := a.register("bob@x.com")
	aliceID := a.me(alice).ID

	var project projectResponse
	w := a.do(http.MethodPost, "/projects", alice, map[string]any{
		"project_name": "Portal", "project_description": "Customer portal",
	}, &project)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodDelete, "/users/"+aliceID, alice, nil, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var got map[string]any
	w = a.do(http.MethodGet, "/projects/"+project.ID, bob, nil, &got)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, got["created_by"])
	assert.Nil(t, got["project_client"])
	assert.Equal(t, []any{}, got["working_users"])
}

func TestUsers_Endpoints(t *testing.T) {
	a := newAPI(t, guard.Open, nil)
	alice := a.register("alice@x.com")

	var created userResponse
	w := a.do(http.MethodPost, "/users", alice, map[string]any{"email": "carol@x.com", "first_name": "Carol"}, &created)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, created.IsActive)

	var list []map[string]any
	w = a.do(http.MethodGet, "/users", alice, nil, &list)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, list, 2)
	for _, u := range list {
		assert.NotContains(t, u, "password")
		assert.NotContains(t, u, "password_hash")
	}

	var updated userResponse
	w = a.do(http.MethodPatch, "/users/"+created.ID, alice, map[string]any{"last_name": "Jones"}, &updated)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Jones", updated.LastName)
	assert.Equal(t, "Carol", updated.FirstName)

	// Carol has no usable password yet.
	w = a.do(http.MethodPost, "/login", "", map[string]string{"email": "carol@x.com", "password": ""}, nil)
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestAttachments_RequireProject(t *testing.T) {
	a := newAPI(t, guard.Open, nil)
	alice := a.register("alice@x.com")

	w := a.do(http.MethodPost, "/projects/"+uuid.NewString()+"/attachments", alice, map[string]string{"file_name": "a.txt"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/projects/"+uuid.NewString()+"/attachments", alice, map[string]string{"file_name": "../a"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
