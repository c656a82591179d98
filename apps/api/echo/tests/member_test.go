package tests

import (
	"bytes"
	"encoding/json"
	"image"
	_ "image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/kitabu/apps/api/echo"
	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/donation"
	"github.com/trezcool/kitabu/core/member"
	"github.com/trezcool/kitabu/tests"
)

func Test_memberApi(t *testing.T) {
	env := setup(t)

	ada := member.Member{RollNo: "7", Name: "Ada"}
	adaL := member.Member{RollNo: "7", Name: "Ada", LastName: "Lovelace", PhoneNo: "0812345678"}

	runTests(t, env, []httpTest{
		{
			name:     "empty roster",
			method:   http.MethodGet,
			path:     "/v1/members",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/v1/members",
			body:     []byte(`{"roll_no": 7, "name": " Ada "}`),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, MemberResponse{Member: ada}),
		},
		{
			name:     "create duplicate",
			method:   http.MethodPost,
			path:     "/v1/members",
			body:     []byte(`{"roll_no": "007", "name": "Bob"}`),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a member with roll number 7 already exists"}),
		},
		{
			name:     "create without roll number",
			method:   http.MethodPost,
			path:     "/v1/members",
			body:     []byte(`{"name": "Bob"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"roll_no": "this field is required"}`),
		},
		{
			name:     "create with invalid roll number",
			method:   http.MethodPost,
			path:     "/v1/members",
			body:     []byte(`{"roll_no": true, "name": "Bob"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "roll number: must be a string or a number"}),
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/v1/members/007",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ada),
		},
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/v1/members/8",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "member 8 not found"}),
		},
		{
			name:     "update",
			method:   http.MethodPut,
			path:     "/v1/members/7",
			body:     []byte(`{"last_name": "Lovelace", "phone_no": "0812345678"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MemberResponse{Member: adaL}),
		},
		{
			name:     "update keeps empty fields",
			method:   http.MethodPut,
			path:     "/v1/members/7",
			body:     []byte(`{"name": ""}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MemberResponse{Member: adaL}),
		},
		{
			name:     "update unknown",
			method:   http.MethodPut,
			path:     "/v1/members/8",
			body:     []byte(`{"name": "Bob"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "member 8 not found"}),
		},
		{
			name:     "query",
			method:   http.MethodGet,
			path:     "/v1/members",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []member.Member{adaL}),
		},
		{
			name:     "delete without roll number",
			method:   http.MethodPost,
			path:     "/v1/members/delete",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"rollNo": "this field is required"}`),
		},
		{
			name:     "delete unknown",
			method:   http.MethodDelete,
			path:     "/v1/members/8",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "member 8 not found"}),
		},
		{
			name:     "delete",
			method:   http.MethodPost,
			path:     "/v1/members/delete",
			body:     []byte(`{"rollNo": "7"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, DeleteMemberResponse{
				Success: true,
				Message: "member 7 deleted, 0.00 removed from the donations ledger",
			}),
		},
		{
			name:     "placeholder kept",
			method:   http.MethodGet,
			path:     "/v1/members",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []member.Member{{RollNo: "7"}}),
		},
		{
			name:     "fill in placeholder",
			method:   http.MethodPost,
			path:     "/v1/members",
			body:     []byte(`{"roll_no": "7", "name": "Dee"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MemberResponse{Member: member.Member{RollNo: "7", Name: "Dee"}}),
		},
	})
}

func Test_memberApi_deleteStripsDonations(t *testing.T) {
	env := setup(t)
	testutil.PutDoc(t, env.db, core.DocMembers, member.Roster{{RollNo: "7", Name: "Ada"}, {RollNo: "9", Name: "Bob"}})

	runTests(t, env, []httpTest{
		{
			name:     "donate",
			method:   http.MethodPost,
			path:     "/v1/donations",
			body:     []byte(`{"year": 2024, "month": "March", "rollNo": "7", "amount": 800}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success": true, "message": "donation of 800.00 recorded for member 7 in March 2024 (donation 800.00, fine 0.00)"}`),
		},
		{
			name:     "fine",
			method:   http.MethodPost,
			path:     "/v1/donations",
			body:     []byte(`{"year": 2023, "month": "May", "rollNo": "7", "amount": 100, "kind": "fine"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success": true, "message": "fine of 100.00 recorded for member 7 in May 2023 (donation 0.00, fine 100.00)"}`),
		},
		{
			name:     "other member",
			method:   http.MethodPost,
			path:     "/v1/donations",
			body:     []byte(`{"year": 2024, "month": "March", "rollNo": "9", "amount": 5}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success": true, "message": "donation of 5.00 recorded for member 9 in March 2024 (donation 5.00, fine 0.00)"}`),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     "/v1/members/7",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, DeleteMemberResponse{
				Success:      true,
				Message:      "member 7 deleted, 900.00 removed from the donations ledger",
				RemovedTotal: 900,
			}),
		},
		{
			name:     "ledger",
			method:   http.MethodGet,
			path:     "/v1/donations",
			wantCode: http.StatusOK,
			wantData: []byte(`{"2023": {"May": {}}, "2024": {"March": {"9": {"donation": 5, "fine": 0}}}}`),
		},
		{
			name:     "counters",
			method:   http.MethodGet,
			path:     "/v1/additional",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, donation.Counters{donation.CounterDonatedRemoved: 900}),
		},
		{
			name:     "overall",
			method:   http.MethodGet,
			path:     "/v1/summary/overall",
			wantCode: http.StatusOK,
			wantData: []byte(`{"totalDonations": 5, "totalFines": 0, "totalExpenses": 0, "donatedRemoved": 900, "netAmount": 905}`),
		},
	})
}

func newImageForm(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withImage {
		fw, err := w.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 128, 96))))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func Test_memberApi_imageUpload(t *testing.T) {
	env := setup(t)

	send := func(method, path string, fields map[string]string) *httptest.ResponseRecorder {
		body, ctype := newImageForm(t, fields, true)
		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		env.app.ServeHTTP(rec, req)
		return rec
	}

	rec := send(http.MethodPost, "/v1/members", map[string]string{"roll_no": "007", "name": "Ada"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp MemberResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.RollNo("7"), resp.Member.RollNo)
	assert.Equal(t, "Ada", resp.Member.Name)
	firstRef := resp.Member.ImageRef
	require.True(t, strings.HasPrefix(firstRef, uploadsPrefix+"/"), firstRef)
	assert.True(t, strings.HasSuffix(firstRef, ".jpg"), firstRef)

	// the photo is served
	req, img := newRequest(http.MethodGet, firstRef)
	env.app.ServeHTTP(img, req)
	assert.Equal(t, http.StatusOK, img.Code)
	cfg, format, err := image.DecodeConfig(img.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)

	// a new photo replaces the old one
	rec = send(http.MethodPut, "/v1/members/7", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, firstRef, resp.Member.ImageRef)

	req, img = newRequest(http.MethodGet, firstRef)
	env.app.ServeHTTP(img, req)
	assert.Equal(t, http.StatusNotFound, img.Code)

	// a rejected request does not keep its photo
	rec = send(http.MethodPost, "/v1/members", map[string]string{"roll_no": "7", "name": "Bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func Test_memberApi_invalidImage(t *testing.T) {
	env := setup(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("roll_no", "7"))
	fw, err := w.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/members", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"image": "unsupported or corrupt image"}`),
	}, rec)
}
