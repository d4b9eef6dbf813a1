package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDTO "github.com/tiago-cos/prosa-sub000/internal/auth/http/dto"
)

// TestAuditLogSignature_EndToEnd records access decisions over HTTP, lists
// them as an administrator and checks that a modified row fails verification.
func TestAuditLogSignature_EndToEnd(t *testing.T) {
	forEachDriver(t, func(t *testing.T, dbDriver string) {
		ctx := setupIntegrationTest(t, dbDriver, true)
		alice := ctx.register(t, "alice")
		ctx.register(t, "bob")
		aliceSession := credentials{bearer: ctx.login(t, "alice").SessionToken}
		bobSession := credentials{bearer: ctx.login(t, "bob").SessionToken}

		resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/users/"+alice.ID, nil, aliceSession)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/users/"+alice.ID, nil, bobSession)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/users/"+alice.ID+"/keys", authDTO.CreateAPIKeyRequest{
			Name:         "foreign",
			Capabilities: []string{"Read"},
		}, bobSession)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		t.Run("non-admin-cannot-list", func(t *testing.T) {
			resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/audit-logs", nil, aliceSession)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})

		t.Run("admin-lists-decisions", func(t *testing.T) {
			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/audit-logs?limit=100", nil, credentials{bearer: ctx.adminToken})
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var list authDTO.ListAuditLogsResponse
			require.NoError(t, json.Unmarshal(body, &list))

			decisions := map[string]int{}
			for _, entry := range list.Data {
				decisions[entry.Decision]++
				assert.NotEmpty(t, entry.RequestID)
			}
			assert.GreaterOrEqual(t, decisions["allow"], 1)
			assert.GreaterOrEqual(t, decisions["not_found"], 1)
			assert.GreaterOrEqual(t, decisions["forbidden"], 1)
		})

		auditLogUseCase, err := ctx.container.AuditLogUseCase()
		require.NoError(t, err)

		from := time.Now().Add(-time.Hour)
		to := time.Now().Add(time.Hour)

		t.Run("untampered-logs-verify", func(t *testing.T) {
			report, err := auditLogUseCase.Verify(context.Background(), &from, &to)
			require.NoError(t, err)
			assert.Positive(t, report.Checked)
			assert.Equal(t, report.Checked, report.Valid)
			assert.Empty(t, report.Invalid)
		})

		t.Run("tampered-logs-fail", func(t *testing.T) {
			_, err := ctx.db.Exec("UPDATE audit_logs SET resource_kind = 'shelf'")
			require.NoError(t, err)

			report, err := auditLogUseCase.Verify(context.Background(), &from, &to)
			require.NoError(t, err)
			assert.Positive(t, report.Checked)
			assert.Zero(t, report.Valid)
			assert.Len(t, report.Invalid, report.Checked)
		})
	})
}
