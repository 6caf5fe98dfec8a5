package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/osdops/sdutrack/core/org"
	"github.com/osdops/sdutrack/core/user"
)

func Test_orgApi_register(t *testing.T) {
	admin := createUser(t, "Admin", "org-admin", "org-admin@test.edu.ph", user.AdminRoles, "")
	leader := createUser(t, "Leader", "org-leader", "org-leader@test.edu.ph", user.LeaderRoles, "")
	adminToken := getToken(t, admin)
	leaderToken := getToken(t, leader)

	body := marshallObj(t, map[string]string{
		"name":    "Circulo Mathematica",
		"acronym": "CM",
		"email":   "cm@test.edu.ph",
	})

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "admins only", token: leaderToken, body: body, wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "name is required", token: adminToken, body: marshallObj(t, map[string]string{"acronym": "XX"}), wantCode: http.StatusBadRequest},
		{name: "invalid email", token: adminToken, body: marshallObj(t, map[string]string{"name": "X Org", "email": "nope"}), wantCode: http.StatusBadRequest},
		{name: "ok", token: adminToken, body: body, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/orgs", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var o org.Organization
				if err := json.Unmarshal(rec.Body.Bytes(), &o); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if o.Name != "Circulo Mathematica" || o.Acronym != "CM" || o.Email != "cm@test.edu.ph" {
					t.Errorf("unexpected organization: %+v", o)
				}
				if !o.IsActive {
					t.Error("new organization should be active")
				}
			}
		})
	}
}

func Test_orgApi_requirements(t *testing.T) {
	o := createOrg(t, "Junior Engineers Society", "JES")
	other := createOrg(t, "Debate Society", "DS")

	admin := createUser(t, "Admin", "req-admin", "req-admin@test.edu.ph", user.AdminRoles, "")
	member := createUser(t, "Member", "req-member", "req-member@test.edu.ph", user.LeaderRoles, o.ID)
	outsider := createUser(t, "Outsider", "req-outsider", "req-outsider@test.edu.ph", user.LeaderRoles, other.ID)
	adminToken := getToken(t, admin)
	memberToken := getToken(t, member)
	outsiderToken := getToken(t, outsider)

	t.Run("other org members are kept in the dark", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/orgs/"+o.ID+"/requirements", outsiderToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound)}, rec)
	})

	var reqs []org.Requirement
	t.Run("members see their own requirements", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/orgs/"+o.ID+"/requirements", memberToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &reqs); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if want := 3 + len(org.DefaultAccreditationDocs); len(reqs) != want {
			t.Errorf("len(reqs) = %v; want %v", len(reqs), want)
		}
		for _, r := range reqs {
			if r.Status != org.StatusPending {
				t.Errorf("requirement %q status = %v; want %v", r.Name, r.Status, org.StatusPending)
			}
		}
	})

	t.Run("reviews are SDU-only", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"new_status": "approved"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/orgs/requirements/"+reqs[0].ID+"/transition", memberToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("unknown requirement", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"new_status": "approved"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/orgs/requirements/nope/transition", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"new_status": "archived"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/orgs/requirements/"+reqs[0].ID+"/transition", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("approving everything completes the accreditation", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"new_status": "approved"})
		for _, r := range reqs {
			req, rec := newAuthRequest(http.MethodPost, "/v1/orgs/requirements/"+r.ID+"/transition", adminToken, body)
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("transition(%s) code = %v; want %v", r.Name, rec.Code, http.StatusOK)
			}
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/orgs/"+o.ID+"/accreditation", memberToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var acc org.Accreditation
		if err := json.Unmarshal(rec.Body.Bytes(), &acc); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if !acc.IsEverythingApproved {
			t.Error("accreditation should be complete")
		}
	})

	t.Run("requesting a revision drops the aggregate", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"new_status": "revision_requested", "revision_notes": "Outdated roster."})
		req, rec := newAuthRequest(http.MethodPost, "/v1/orgs/requirements/"+reqs[0].ID+"/transition", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var r org.Requirement
		if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if r.RevisionNotes != "Outdated roster." {
			t.Errorf("revision notes = %q", r.RevisionNotes)
		}
		if len(r.Logs) == 0 {
			t.Error("transition should be logged")
		}

		acc, err := orgSvc.GetAccreditation(context.Background(), o.ID)
		if err != nil {
			t.Fatalf("GetAccreditation(): %v", err)
		}
		if acc.IsEverythingApproved {
			t.Error("accreditation should no longer be complete")
		}
	})
}

func Test_orgApi_deactivate(t *testing.T) {
	o := createOrg(t, "Chess Club", "CC")

	admin := createUser(t, "Admin", "deact-admin", "deact-admin@test.edu.ph", user.AdminRoles, "")
	member := createUser(t, "Member", "deact-member", "deact-member@test.edu.ph", user.LeaderRoles, o.ID)

	t.Run("admins only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/orgs/"+o.ID+"/deactivate", getToken(t, member))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/orgs/"+o.ID+"/deactivate", getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var got org.Organization
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.IsActive {
			t.Error("organization should be deactivated")
		}
	})
}
