package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	dbutil "github.com/trezcool/igreja/tests"
)

func Test_personApi(t *testing.T) {
	app := setup(t)
	_, token := app.createUser(t, "Secretária", "sec@igreja.com", user.ProfileSecretary)

	other := dbutil.CreateChurch(t, app.db, "Outra Igreja", church.PlanBasic)
	stranger := dbutil.CreatePerson(t, app.db, other.ID, "Estranho", person.StatusMember)

	var created person.Person
	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/people", token, marshalObj(t, person.Input{
			Name: "Maria Souza", Email: "maria@mail.com", Mobile: "(11) 91234-5678",
		}))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshalBody(t, rec, &created)
		assert.Equal(t, "Maria Souza", created.Name)
		assert.Equal(t, person.StatusVisitor, created.Status)
	})

	tests := []httpTest{
		{
			name:     "create without name",
			method:   http.MethodPost,
			path:     "/v1/people",
			token:    token,
			body:     []byte(`{"email": "x@mail.com"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name": "este campo é obrigatório"}`),
		},
		{
			name:     "unknown person",
			method:   http.MethodGet,
			path:     "/v1/people/unknown",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "person not found"}),
		},
		{
			name:     "person of another church",
			method:   http.MethodGet,
			path:     "/v1/people/" + stranger.ID,
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "person not found"}),
		},
		{
			name:     "duplicate by email",
			method:   http.MethodGet,
			path:     "/v1/people/duplicates?name=Outra&email=MARIA@mail.com",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"duplicate": true}`),
		},
		{
			name:     "not a duplicate",
			method:   http.MethodGet,
			path:     "/v1/people/duplicates?name=Joana",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"duplicate": false}`),
		},
		{
			name:     "lgpd export needs church settings",
			method:   http.MethodGet,
			path:     "/v1/people/" + created.ID + "/export",
			token:    token,
			wantCode: http.StatusOK,
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/people", token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)

		var people []person.Person
		unmarshalBody(t, rec, &people)
		require.Len(t, people, 1)
		assert.Equal(t, created.ID, people[0].ID)
	})

	t.Run("update status", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/people/"+created.ID+"/status", token,
			marshalObj(t, StatusRequest{Status: person.StatusMember}))
		app.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/people/"+created.ID, token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got person.Person
		unmarshalBody(t, rec, &got)
		assert.Equal(t, person.StatusMember, got.Status)
	})
}
