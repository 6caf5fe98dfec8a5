package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/osdops/sdutrack/core/accomp"
	"github.com/osdops/sdutrack/core/user"
)

func Test_accompApi_submit(t *testing.T) {
	o := createOrg(t, "Robotics Guild", "RG")
	other := createOrg(t, "Glee Club", "GC")

	member := createUser(t, "Member", "sub-member", "sub-member@test.edu.ph", user.LeaderRoles, o.ID)
	memberToken := getToken(t, member)

	body := func(orgID, category, title string) []byte {
		return marshallObj(t, map[string]string{"org_id": orgID, "category": category, "title": title})
	}

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "title is required", token: memberToken, body: body(o.ID, "ppas", ""), wantCode: http.StatusBadRequest},
		{name: "unknown category", token: memberToken, body: body(o.ID, "sports", "Varsity Cup"), wantCode: http.StatusBadRequest},
		{name: "own org only", token: memberToken, body: body(other.ID, "ppas", "Tree Planting Drive"), wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "ok", token: memberToken, body: body(o.ID, "ppas", "Tree Planting Drive"), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var s accomp.SubAccomplishment
				if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if s.OrgID != o.ID || s.Category != accomp.CategoryPPAs || s.Title != "Tree Planting Drive" {
					t.Errorf("unexpected sub-accomplishment: %+v", s)
				}
			}
		})
	}
}

func Test_accompApi_retrieveRubric(t *testing.T) {
	member := createUser(t, "Member", "rub-member", "rub-member@test.edu.ph", user.LeaderRoles, "")
	token := getToken(t, member)

	t.Run("unknown category", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accomplishments/rubrics/sports", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound)}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accomplishments/rubrics/ppas", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var resp struct {
			Category  accomp.Category       `json:"category"`
			Label     string                `json:"label"`
			Rubric    accomp.Rubric         `json:"rubric"`
			Checklist []accomp.ChecklistDoc `json:"checklist"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Category != accomp.CategoryPPAs || resp.Label != "PPAs" {
			t.Errorf("unexpected rubric response: %+v", resp)
		}
		if resp.Rubric.MaxPoints != 30 || len(resp.Rubric.Criteria) != 3 {
			t.Errorf("unexpected rubric: %+v", resp.Rubric)
		}
	})
}

func Test_accompApi_gradeAndTotal(t *testing.T) {
	o := createOrg(t, "Future Educators Club", "FEC")

	admin := createUser(t, "Admin", "grd-admin", "grd-admin@test.edu.ph", user.AdminRoles, "")
	member := createUser(t, "Member", "grd-member", "grd-member@test.edu.ph", user.LeaderRoles, o.ID)
	adminToken := getToken(t, admin)
	memberToken := getToken(t, member)

	submit := func(category, title string) accomp.SubAccomplishment {
		t.Helper()
		body := marshallObj(t, map[string]string{"org_id": o.ID, "category": category, "title": title})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments", memberToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit(%s) code = %v; want %v", title, rec.Code, http.StatusCreated)
		}
		var s accomp.SubAccomplishment
		if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		return s
	}

	s1 := submit("meetings_assemblies", "General Assembly")
	s2 := submit("institutional_involvement", "University Week")

	t.Run("grading is SDU-only", func(t *testing.T) {
		body := marshallObj(t, map[string]interface{}{"breakdown": map[string]int{"Meeting Documentation": 3}})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments/"+s1.ID+"/grade", memberToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("unknown criterion", func(t *testing.T) {
		body := marshallObj(t, map[string]interface{}{"breakdown": map[string]int{"Vibes": 3}})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments/"+s1.ID+"/grade", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("grading awards clamped points", func(t *testing.T) {
		body := marshallObj(t, map[string]interface{}{
			"breakdown": map[string]int{"Meeting Documentation": 7, "Participation & Engagement": 2},
			"comments":  "Complete minutes.",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments/"+s1.ID+"/grade", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var s accomp.SubAccomplishment
		if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if s.AwardedPoints != 5 {
			t.Errorf("awarded points = %v; want 5", s.AwardedPoints)
		}
		if s.Grading == nil || s.Grading.GradedBy != admin.Username {
			t.Errorf("unexpected grading: %+v", s.Grading)
		}
	})

	t.Run("grand total sums the children", func(t *testing.T) {
		body := marshallObj(t, map[string]interface{}{
			"breakdown": map[string]int{"Attendance": 4, "Level of Participation": 3},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments/"+s2.ID+"/grade", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/accomplishments/org/"+o.ID+"/total", memberToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var acc accomp.Accomplishment
		if err := json.Unmarshal(rec.Body.Bytes(), &acc); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if acc.GrandTotal != 12 {
			t.Errorf("grand total = %v; want 12", acc.GrandTotal)
		}
	})
}

func Test_accompApi_documentsAndCompleteness(t *testing.T) {
	o := createOrg(t, "Press Corps", "PC")
	member := createUser(t, "Member", "doc-member", "doc-member@test.edu.ph", user.LeaderRoles, o.ID)
	token := getToken(t, member)

	body := marshallObj(t, map[string]string{"org_id": o.ID, "category": "external_activities", "title": "Regional Congress"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit code = %v; want %v", rec.Code, http.StatusCreated)
	}
	var s accomp.SubAccomplishment
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}

	t.Run("label is required", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"file_name": "invitation.pdf"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments/"+s.ID+"/documents", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("uploads tick the checklist", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"label": "Official Invitation", "file_name": "invitation.pdf"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accomplishments/"+s.ID+"/documents", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/accomplishments/"+s.ID+"/completeness", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var cpl accomp.Completeness
		if err := json.Unmarshal(rec.Body.Bytes(), &cpl); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(cpl.MissingRequired) != 3 {
			t.Errorf("len(MissingRequired) = %v; want 3", len(cpl.MissingRequired))
		}
	})
}
