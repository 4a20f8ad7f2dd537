package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

func newTestAPI(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second)
}

func TestAuthAPI_Login(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["remember"]; ok {
			t.Fatalf("remember must stay local, got %v", body)
		}
		w.Write([]byte(`{"access_token":"abc","token_type":"bearer","user":{"id":7,"username":"alice","role":"admin"}}`))
	})

	res, err := NewAuthAPI(c).Login(context.Background(), ports.LoginCredentials{Username: "alice", Password: "pw", Remember: true})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.AccessToken != "abc" || res.User.ID != 7 || res.User.Role != "admin" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthAPI_LoginMissingToken(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"id":1}}`))
	})
	if _, err := NewAuthAPI(c).Login(context.Background(), ports.LoginCredentials{Username: "a"}); err == nil {
		t.Fatalf("expected error for tokenless login response")
	}
}

func TestPrinterAPI_ListAcceptsBothShapes(t *testing.T) {
	bodies := []string{
		`[{"id":1,"name":"A","status":"online"},{"id":2,"name":"B","status":"offline"}]`,
		`{"items":[{"id":1,"name":"A","status":"online"},{"id":2,"name":"B","status":"offline"}],"pagination":{"page":1,"page_size":10,"total":2,"total_pages":1}}`,
	}
	for i, body := range bodies {
		var gotQuery string
		c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(body))
		})
		page, err := NewPrinterAPI(c).List(context.Background(), domain.PrinterQuery{Status: "online", Page: 1})
		if err != nil {
			t.Fatalf("shape %d: %v", i, err)
		}
		if len(page.Items) != 2 || page.Items[1].Status != domain.PrinterOffline {
			t.Fatalf("shape %d: unexpected items %+v", i, page.Items)
		}
		if gotQuery != "page=1&status=online" {
			t.Fatalf("shape %d: unexpected query %q", i, gotQuery)
		}
		if i == 1 && (page.Pagination == nil || page.Pagination.Total != 2) {
			t.Fatalf("expected pagination from wrapped shape")
		}
	}
}

func TestPrinterAPI_Paths(t *testing.T) {
	var seen []string
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		w.Write([]byte(`{"success":true}`))
	})
	api := NewPrinterAPI(c)
	ctx := context.Background()
	api.SetDefault(ctx, 3)
	api.Test(ctx, 3)
	api.Refresh(ctx, 3)
	api.RefreshAll(ctx)
	api.Capabilities(ctx, 3)
	api.Delete(ctx, 3)

	want := []string{
		"POST /printers/3/set-default",
		"POST /printers/3/test",
		"POST /printers/3/refresh",
		"POST /printers/refresh-all",
		"GET /printers/3/capabilities",
		"DELETE /printers/3",
	}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected calls:\n%v\nwant\n%v", seen, want)
	}
}

func TestJobAPI_SubmitMultipart(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("printer_id") != "4" || r.FormValue("copies") != "2" || r.FormValue("priority") != "high" {
			t.Fatalf("unexpected fields: %v", r.MultipartForm.Value)
		}
		if !strings.Contains(r.FormValue("settings"), `"color_mode":"mono"`) {
			t.Fatalf("unexpected settings: %s", r.FormValue("settings"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file: %v", err)
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "report.pdf" || string(data) != "%PDF-1.4" {
			t.Fatalf("unexpected file %s %q", hdr.Filename, data)
		}
		w.Write([]byte(`{"id":11,"title":"report.pdf","status":"pending","printer_id":4}`))
	})

	job, err := NewJobAPI(c).Submit(context.Background(), domain.JobSubmission{
		FileName:  "report.pdf",
		File:      strings.NewReader("%PDF-1.4"),
		PrinterID: 4,
		Copies:    2,
		Priority:  "high",
		Settings:  &domain.JobSettings{ColorMode: "mono"},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if job.ID != 11 || job.Status != domain.JobPending {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestJobAPI_BatchCancelBody(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if r.URL.Path != "/jobs/batch-cancel" || string(data) != `{"job_ids":[1,2,3]}` {
			t.Fatalf("unexpected request %s %s", r.URL.Path, data)
		}
	})
	if err := NewJobAPI(c).BatchCancel(context.Background(), []int64{1, 2, 3}); err != nil {
		t.Fatalf("batch cancel: %v", err)
	}
}

func TestJobAPI_PreviewBlob(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	blob, err := NewJobAPI(c).Preview(context.Background(), 9)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if blob.ContentType != "image/png" || len(blob.Data) != 4 || blob.FileName != "job_9_preview" {
		t.Fatalf("unexpected blob %+v", blob)
	}
}

func TestLogAPI_ExportFileName(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "csv" || r.URL.Query().Get("level") != "error" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("id,message\n"))
	})
	api := NewLogAPI(c)
	api.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }

	blob, err := api.Export(context.Background(), domain.LogQuery{Level: "error"}, "csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if blob.FileName != "logs_2026-03-04.csv" {
		t.Fatalf("unexpected file name %q", blob.FileName)
	}
}

func TestLogAPI_ExportUsesContentDisposition(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="server.json"`)
		w.Write([]byte("[]"))
	})
	blob, err := NewLogAPI(c).Export(context.Background(), domain.LogQuery{}, "json")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if blob.FileName != "server.json" {
		t.Fatalf("unexpected file name %q", blob.FileName)
	}
}

func TestAuthAPI_LoginRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"backend reason", `{"detail":"Incorrect username or password"}`, "Incorrect username or password"},
		{"no reason", `{}`, domain.MsgInvalidCredentials},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(tc.body))
			})
			_, err := NewAuthAPI(c).Login(context.Background(), ports.LoginCredentials{Username: "alice", Password: "wrong"})

			var de *domain.Error
			if !errors.As(err, &de) || de.Kind != domain.KindAuthentication {
				t.Fatalf("expected authentication error, got %v", err)
			}
			if !errors.Is(err, domain.ErrInvalidCredentials) || de.Message != tc.want {
				t.Fatalf("expected rejected login %q, got %+v", tc.want, de)
			}
		})
	}
}
