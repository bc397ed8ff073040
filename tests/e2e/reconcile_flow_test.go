//go:build e2e

package e2e_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/internal/service/assessment"
	"github.com/attestiq/compliance-backend/internal/service/attest"
)

// TestE2E_ReconcileSweep verifies that deleting an assessment leaves its
// records behind until the sweep collects them, attestations included.
func TestE2E_ReconcileSweep(t *testing.T) {
	core := setupCore(t)
	ctx, _ := callerCtx("alice")

	doc := createReadyDocument(t, core, ctx, "policy.pdf")
	draft, err := core.Assessments.Create(ctx, assessment.CreateInput{
		Name:        "doomed review",
		PromptPacks: []string{"gdpr"},
		DocumentIDs: []uuid.UUID{doc.ID},
	})
	require.NoError(t, err)

	_, err = core.Assessments.Run(ctx, draft.ID)
	require.NoError(t, err)

	requirements, err := core.Requirements.List(ctx, draft.ID)
	require.NoError(t, err)
	require.NotEmpty(t, requirements)

	attested, err := core.Attest.UpsertForSubject(ctx, attest.UpsertInput{
		SubjectID:   requirements[0].ID,
		SubjectType: domain.SubjectTypeRequirement,
		Status:      domain.AttestationStatusHave,
	})
	require.NoError(t, err)

	// Delete does not cascade.
	require.NoError(t, core.Assessments.Delete(ctx, draft.ID))

	orphaned, err := core.Requirements.List(ctx, draft.ID)
	require.NoError(t, err)
	assert.Len(t, orphaned, len(requirements))

	stats, err := core.Reconcile.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Assessments)
	assert.Equal(t, int64(len(requirements)), stats.Records[domain.EntityTypeRequirement])
	assert.Equal(t, int64(1), stats.Attestations)

	swept, err := core.Requirements.List(ctx, draft.ID)
	require.NoError(t, err)
	assert.Empty(t, swept)

	_, err = core.Attest.GetForSubject(ctx, attested.SubjectID, domain.SubjectTypeRequirement)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The sweep itself is audited under the reconciler actor, the deleted
	// attestation included.
	actor := "reconciler"
	trail, err := core.AuditLog.Query(ctx, domain.AuditFilter{Actor: &actor})
	require.NoError(t, err)
	assert.NotEmpty(t, trail)

	targetType := domain.EntityTypeAttestation
	attestationDeletes, err := core.AuditLog.Query(ctx, domain.AuditFilter{
		Actor:      &actor,
		TargetType: &targetType,
		TargetID:   &attested.ID,
	})
	require.NoError(t, err)
	require.Len(t, attestationDeletes, 1)
	assert.Equal(t, domain.AuditActionDelete, attestationDeletes[0].Action)
}
