package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homemates/homemates-server/internal/api/testutils"
	"github.com/homemates/homemates-server/internal/models"
)

func TestRecordDebt(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	bob := testutils.CreateTestUser(t, testCtx, "Bob")
	groupID := testutils.CreateTestGroup(t, testCtx, alice, bob)

	// Test case 1: Successful debt
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/groups/%s/debts", groupID),
		models.RecordDebtRequest{ToUserID: bob.ID, Amount: 25.505, Currency: "USD"},
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.DebtResponse
	testutils.DecodeResponse(t, w, &resp)
	require.NotNil(t, resp.Debt)
	assert.Equal(t, alice.ID, resp.Debt.FromUserID)
	assert.Equal(t, bob.ID, resp.Debt.ToUserID)
	assert.InDelta(t, 25.51, resp.Debt.Amount, 0.001)

	// Test case 2: Counterparty outside the group
	stranger := testutils.CreateTestUser(t, testCtx, "Stranger")
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/groups/%s/debts", groupID),
		models.RecordDebtRequest{ToUserID: stranger.ID, Amount: 10, Currency: "USD"},
		testutils.AuthHeaders(alice.Token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 3: Owing yourself
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/groups/%s/debts", groupID),
		models.RecordDebtRequest{ToUserID: alice.ID, Amount: 10, Currency: "USD"},
		testutils.AuthHeaders(alice.Token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 4: Non-positive amount rejected by binding
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/groups/%s/debts", groupID),
		models.RecordDebtRequest{ToUserID: bob.ID, Amount: -5, Currency: "USD"},
		testutils.AuthHeaders(alice.Token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimplifyMutualDebts(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	bob := testutils.CreateTestUser(t, testCtx, "Bob")
	groupID := testutils.CreateTestGroup(t, testCtx, alice, bob)

	testutils.SeedDebt(t, testCtx, groupID, alice, bob, 50, "USD")
	testutils.SeedDebt(t, testCtx, groupID, bob, alice, 20, "USD")

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/settlements/simplify", groupID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SimplifyDebtsResponse
	testutils.DecodeResponse(t, w, &resp)

	// Mutual debts net to a single payment; nothing to optimize further.
	require.Len(t, resp.Settlements, 1)
	assert.False(t, resp.Optimized)
	assert.Equal(t, alice.ID, resp.Settlements[0].FromUserID)
	assert.Equal(t, bob.ID, resp.Settlements[0].ToUserID)
	assert.InDelta(t, 30, resp.Settlements[0].Amount, 0.001)
	assert.Equal(t, "Alice", resp.Settlements[0].FromUserName)
	assert.Equal(t, "Bob", resp.Settlements[0].ToUserName)
	assert.Equal(t, 1, resp.Stats.OriginalCount)
	assert.Equal(t, 1, resp.Stats.OptimizedCount)
}

func TestSimplifyCycleCancels(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	bob := testutils.CreateTestUser(t, testCtx, "Bob")
	carol := testutils.CreateTestUser(t, testCtx, "Carol")
	groupID := testutils.CreateTestGroup(t, testCtx, alice, bob, carol)

	testutils.SeedDebt(t, testCtx, groupID, alice, bob, 30, "USD")
	testutils.SeedDebt(t, testCtx, groupID, bob, carol, 30, "USD")
	testutils.SeedDebt(t, testCtx, groupID, carol, alice, 30, "USD")

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/settlements/simplify", groupID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SimplifyDebtsResponse
	testutils.DecodeResponse(t, w, &resp)

	// A perfect cycle settles with zero payments.
	assert.Empty(t, resp.Settlements)
	assert.True(t, resp.Optimized)
	assert.Equal(t, 3, resp.Stats.OriginalCount)
	assert.Equal(t, 0, resp.Stats.OptimizedCount)
	assert.InDelta(t, 100, resp.Stats.ReductionPercent, 0.001)
}

func TestSettleUpPersistsPlan(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	bob := testutils.CreateTestUser(t, testCtx, "Bob")
	carol := testutils.CreateTestUser(t, testCtx, "Carol")
	dave := testutils.CreateTestUser(t, testCtx, "Dave")
	groupID := testutils.CreateTestGroup(t, testCtx, alice, bob, carol, dave)

	// Alice is a pure intermediary: she owes Dave exactly what Bob and
	// Carol owe her, so payments should route around her.
	testutils.SeedDebt(t, testCtx, groupID, alice, dave, 100, "USD")
	testutils.SeedDebt(t, testCtx, groupID, bob, alice, 60, "USD")
	testutils.SeedDebt(t, testCtx, groupID, carol, alice, 40, "USD")

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/groups/%s/settlements/settle-up", groupID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.SettleUpResponse
	testutils.DecodeResponse(t, w, &resp)
	require.Len(t, resp.Settlements, 2)
	assert.True(t, resp.Optimized)
	assert.Equal(t, bob.ID, resp.Settlements[0].FromUserID)
	assert.Equal(t, dave.ID, resp.Settlements[0].ToUserID)
	assert.InDelta(t, 60, resp.Settlements[0].Amount, 0.001)
	assert.Equal(t, carol.ID, resp.Settlements[1].FromUserID)
	assert.Equal(t, dave.ID, resp.Settlements[1].ToUserID)
	assert.InDelta(t, 40, resp.Settlements[1].Amount, 0.001)

	// The plan is recorded and listed back
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/settlements", groupID),
		nil,
		testutils.AuthHeaders(bob.Token),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var listed models.SettlementListResponse
	testutils.DecodeResponse(t, w, &listed)
	require.Len(t, listed.Settlements, 2)
	for _, s := range listed.Settlements {
		assert.True(t, s.Optimized)
		assert.Equal(t, alice.ID, s.CreatedBy)
		assert.Equal(t, "settle up", s.Note)
	}
}

func TestRecordManualSettlement(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	bob := testutils.CreateTestUser(t, testCtx, "Bob")
	groupID := testutils.CreateTestGroup(t, testCtx, alice, bob)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/groups/%s/settlements", groupID),
		models.RecordSettlementRequest{ToUserID: bob.ID, Amount: 12.34, Currency: "AUD", Note: "rent"},
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.SettlementResponse
	testutils.DecodeResponse(t, w, &resp)
	require.NotNil(t, resp.Settlement)
	assert.False(t, resp.Settlement.Optimized)
	assert.Equal(t, "rent", resp.Settlement.Note)
	assert.InDelta(t, 12.34, resp.Settlement.Amount, 0.001)
}

func TestSettlementEndpointsAccessControl(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	mallory := testutils.CreateTestUser(t, testCtx, "Mallory")
	groupID := testutils.CreateTestGroup(t, testCtx, alice)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/settlements/simplify", groupID),
		nil,
		testutils.AuthHeaders(mallory.Token),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/settlements/simplify", uuid.New().String()),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
