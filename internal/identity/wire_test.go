package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emplo-ai/emplo/internal/core/domain"
)

func TestDecodeIdentity(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.Identity
	}{
		{
			name: "canonical",
			body: `{"id":"u1","email":"a@x.com","firstName":"Ann","lastName":"Lee","role":"employer"}`,
			want: domain.Identity{ID: "u1", Email: "a@x.com", FirstName: "Ann", LastName: "Lee", Role: domain.RoleEmployer},
		},
		{
			name: "aliases",
			body: `{"id":"u1","email":"a@x.com","name":"Ann Marie Lee","userType":"candidate","created_at":"2024-01-01"}`,
			want: domain.Identity{ID: "u1", Email: "a@x.com", FirstName: "Ann", LastName: "Marie Lee", Role: domain.RoleCandidate},
		},
		{
			name: "numeric id",
			body: `{"id":42,"email":"a@x.com"}`,
			want: domain.Identity{ID: "42", Email: "a@x.com"},
		},
		{
			name: "canonical names win over name",
			body: `{"id":"u1","firstName":"Ann","name":"Other Person"}`,
			want: domain.Identity{ID: "u1", FirstName: "Ann"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeIdentity([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeGrant(t *testing.T) {
	grant, err := decodeGrant([]byte(`{"id":"u1","user":"jane@example.com","email":"jane@example.com","access_token":"tok"}`))
	require.NoError(t, err)

	// The service falls back to the email as display name; that is not a name.
	assert.Equal(t, domain.Identity{ID: "u1", Email: "jane@example.com"}, grant.Identity)
	assert.Equal(t, "bearer", grant.TokenType)
	assert.Equal(t, "tok", grant.Token)
}

func TestDecodeGrant_NullUser(t *testing.T) {
	grant, err := decodeGrant([]byte(`{"id":"u1","user":null,"email":"a@x.com","access_token":"tok","token_type":"Bearer"}`))
	require.NoError(t, err)
	assert.Equal(t, "u1", grant.Identity.ID)
	assert.Equal(t, "Bearer", grant.TokenType)
}

func TestDecodePatch(t *testing.T) {
	p, err := decodePatch([]byte(`{"name":"Ann Lee","userType":"employer"}`))
	require.NoError(t, err)
	require.NotNil(t, p.FirstName)
	require.NotNil(t, p.LastName)
	require.NotNil(t, p.Role)
	assert.Equal(t, "Ann", *p.FirstName)
	assert.Equal(t, "Lee", *p.LastName)
	assert.Equal(t, domain.RoleEmployer, *p.Role)
	assert.Nil(t, p.Email)

	empty, err := decodePatch(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestEncodePatch(t *testing.T) {
	email := "b@x.com"
	role := domain.RoleCandidate
	w := encodePatch(domain.IdentityPatch{Email: &email, Role: &role})

	require.NotNil(t, w.Email)
	require.NotNil(t, w.Role)
	assert.Equal(t, "candidate", *w.Role)
	assert.Nil(t, w.FirstName)
	assert.Nil(t, w.Name)
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "m", serverMessage([]byte(`{"message":"m","detail":"d"}`)))
	assert.Equal(t, "d", serverMessage([]byte(`{"detail":"d"}`)))
	assert.Equal(t, "", serverMessage([]byte(`{"detail":{"code":1}}`)))
	assert.Equal(t, "", serverMessage([]byte(`oops`)))
}
