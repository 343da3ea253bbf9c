package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		adminToken string
		headers    map[string]string
		want       Identity
	}{
		{
			name:    "anonymous",
			headers: nil,
			want:    Identity{},
		},
		{
			name: "user headers",
			headers: map[string]string{
				UserIDHeader:    "user-1",
				UserEmailHeader: "u@example.com",
			},
			want: Identity{UserID: "user-1", Email: "u@example.com"},
		},
		{
			name:       "admin token match",
			adminToken: "s3cret",
			headers:    map[string]string{AdminTokenHeader: "s3cret"},
			want:       Identity{Admin: true},
		},
		{
			name:       "admin token mismatch",
			adminToken: "s3cret",
			headers:    map[string]string{AdminTokenHeader: "wrong"},
			want:       Identity{},
		},
		{
			name:       "admin disabled when unconfigured",
			adminToken: "",
			headers:    map[string]string{AdminTokenHeader: ""},
			want:       Identity{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = IdentityFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			WithIdentity(tt.adminToken)(next).ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("identity = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIdentityFromContext_Missing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := IdentityFromContext(req.Context()); got != (Identity{}) {
		t.Errorf("identity = %+v, want zero value", got)
	}
}
