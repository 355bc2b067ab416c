package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acme() ClientInput {
	return ClientInput{Name: "Acme", Email: "ops@Acme.io", Phone: "555-0100", Address: "1 Main St"}
}

func TestClientService_Create(t *testing.T) {
	e := newTestEnv(t, guard.Open, nil)
	ctx := context.Background()
	u, caller := e.mkUser(t, "owner@example.com")

	_, err := e.clients.Create(ctx, nil, acme())
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	d, err := e.clients.Create(ctx, caller, acme())
	require.NoError(t, err)
	require.NotNil(t, d.Client.CreatedBy)
	assert.Equal(t, u.ID, *d.Client.CreatedBy)
	assert.Equal(t, "ops@acme.io", d.Client.Email)
	require.NotNil(t, d.Creator)
	assert.Equal(t, u.Email, d.Creator.Email)

	_, err = e.clients.Create(ctx, caller, acme())
	fields := validationFields(t, err)
	assert.Equal(t, []string{"client with this client email already exists."}, fields["client_email"])
}

func TestClientService_Create_Validation(t *testing.T) {
	e := newTestEnv(t, guard.Open, nil)
	_, caller := e.mkUser(t, "owner@example.com")

	_, err := e.clients.Create(context.Background(), caller, ClientInput{Email: "nope", Phone: "0123456789012345"})
	fields := validationFields(t, err)
	assert.Equal(t, []string{msgRequired}, fields["client_name"])
	assert.Equal(t, []string{msgRequired}, fields["address"])
	assert.Equal(t, []string{msgInvalidEmail}, fields["client_email"])
	assert.Equal(t, []string{"Ensure this field has no more than 15 characters."}, fields["client_phone"])
}

func TestClientService_Update_KeepsCreator(t *testing.T) {
	e := newTestEnv(t, guard.Open, nil)
	ctx := context.Background()
	owner, oc := e.mkUser(t, "owner@example.com")
	_, other := e.mkUser(t, "other@example.com")

	d, err := e.clients.Create(ctx, oc, acme())
	require.NoError(t, err)

	in := acme()
	in.Name = "Acme Ltd"
	got, err := e.clients.Update(ctx, other, d.Client.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", got.Client.Name)
	assert.Equal(t, owner.ID, *got.Client.CreatedBy)

	addr := "2 Side St"
	got, err = e.clients.Patch(ctx, other, d.Client.ID, ClientPatch{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "2 Side St", got.Client.Address)
	assert.Equal(t, "Acme Ltd", got.Client.Name)
	assert.Equal(t, owner.ID, *got.Client.CreatedBy)
}

func TestClientService_OwnerPolicy(t *testing.T) {
	e := newTestEnv(t, guard.Owner, nil)
	ctx := context.Background()
	_, oc := e.mkUser(t, "owner@example.com")
	_, other := e.mkUser(t, "other@example.com")
	staff, err := e.users.CreateSuperuser(ctx, NewUser{Email: "staff@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	d, err := e.clients.Create(ctx, oc, acme())
	require.NoError(t, err)

	_, err = e.clients.Update(ctx, other, d.Client.ID, acme())
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.ErrorIs(t, e.clients.Delete(ctx, other, d.Client.ID), common.ErrForbidden)

	_, err = e.clients.Update(ctx, callerFor(staff), d.Client.ID, acme())
	assert.NoError(t, err)
	assert.NoError(t, e.clients.Delete(ctx, oc, d.Client.ID))
}

func TestClientService_Delete_CascadesProjects(t *testing.T) {
	e := newTestEnv(t, guard.Open, nil)
	ctx := context.Background()
	_, caller := e.mkUser(t, "owner@example.com")

	c, err := e.clients.Create(ctx, caller, acme())
	require.NoError(t, err)
	p, err := e.projects.Create(ctx, caller, ProjectInput{Name: "Site", Description: "Web", ClientID: &c.Client.ID})
	require.NoError(t, err)

	require.NoError(t, e.clients.Delete(ctx, caller, c.Client.ID))

	_, err = e.projects.Get(ctx, caller, p.Project.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = e.clients.Get(ctx, caller, c.Client.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, e.clients.Delete(ctx, caller, c.Client.ID), common.ErrNotFound)
}
