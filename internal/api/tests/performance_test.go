package api_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homemates/homemates-server/internal/api/testutils"
	"github.com/homemates/homemates-server/internal/models"
)

// seedGroceryExpense creates one 100 USD expense paid by alice, split evenly
// with bob. Alice has paid her share before the due date; bob has not.
func seedGroceryExpense(t *testing.T, testCtx *testutils.TestContext, groupID string, alice, bob testutils.TestUser) {
	t.Helper()

	now := time.Now()
	assignedAt := now.Add(-14 * 24 * time.Hour)
	dueAt := now.Add(-7 * 24 * time.Hour)
	paidAt := now.Add(-10 * 24 * time.Hour)

	expense := &models.Expense{
		GroupID:     groupID,
		PaidBy:      alice.ID,
		Description: "groceries",
		Amount:      100,
		Currency:    "USD",
	}
	shares := []models.ExpenseShare{
		{UserID: alice.ID, Amount: 50, Paid: true, AssignedAt: assignedAt, DueAt: dueAt, PaidAt: &paidAt},
		{UserID: bob.ID, Amount: 50, Paid: false, AssignedAt: assignedAt, DueAt: dueAt},
	}
	require.NoError(t, testCtx.Repository.CreateExpense(context.Background(), expense, shares))
}

func TestUserExpenseScore(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	bob := testutils.CreateTestUser(t, testCtx, "Bob")
	carol := testutils.CreateTestUser(t, testCtx, "Carol")
	groupID := testutils.CreateTestGroup(t, testCtx, alice, bob, carol)

	seedGroceryExpense(t, testCtx, groupID, alice, bob)

	// Alice: full prompt payment (100), one contributed expense (10),
	// no settlements initiated. 0.5*100 + 0.3*10 = 53.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/members/%s/score", groupID, alice.ID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ScoreResponse
	testutils.DecodeResponse(t, w, &resp)
	assert.Equal(t, 53, resp.Score)
	assert.False(t, resp.Neutral)
	assert.Equal(t, "expense", resp.Domain)
	assert.InDelta(t, 0, resp.OutstandingAmount, 0.001)
	assert.InDelta(t, 100, resp.Subscores["paymentRate"], 0.001)

	// Bob: nothing paid, so only the promptness default contributes.
	// 0.5*(0.7*0 + 0.3*100) = 15, with his 50 still outstanding.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/members/%s/score", groupID, bob.ID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusOK, w.Code)

	testutils.DecodeResponse(t, w, &resp)
	assert.Equal(t, 15, resp.Score)
	assert.False(t, resp.Neutral)
	assert.InDelta(t, 50, resp.OutstandingAmount, 0.001)

	// Carol has no history at all: neutral, not zero.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/members/%s/score", groupID, carol.ID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusOK, w.Code)

	testutils.DecodeResponse(t, w, &resp)
	assert.Equal(t, 50, resp.Score)
	assert.True(t, resp.Neutral)
}

func TestUserTaskScore(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	groupID := testutils.CreateTestGroup(t, testCtx, alice)

	now := time.Now()
	for i, title := range []string{"dishes", "trash"} {
		completedAt := now.Add(time.Duration(-2-i) * 24 * time.Hour)
		task := &models.Task{
			GroupID:     groupID,
			AssignedTo:  alice.ID,
			Title:       title,
			Status:      models.TaskStatusCompleted,
			AssignedAt:  now.Add(time.Duration(-7-i) * 24 * time.Hour),
			DueAt:       now.Add(time.Duration(-1-i) * 24 * time.Hour),
			CompletedAt: &completedAt,
		}
		require.NoError(t, testCtx.Repository.CreateTask(context.Background(), task))
	}

	// Everything done on time, no swaps: 0.40*100 + 0.25*100 = 65.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/members/%s/score?domain=task", groupID, alice.ID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ScoreResponse
	testutils.DecodeResponse(t, w, &resp)
	assert.Equal(t, 65, resp.Score)
	assert.False(t, resp.Neutral)
	assert.Equal(t, "task", resp.Domain)
	assert.InDelta(t, 100, resp.Subscores["completion"], 0.001)
	assert.InDelta(t, 100, resp.Subscores["onTime"], 0.001)
}

func TestGroupPerformanceLeaderboard(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	bob := testutils.CreateTestUser(t, testCtx, "Bob")
	carol := testutils.CreateTestUser(t, testCtx, "Carol")
	groupID := testutils.CreateTestGroup(t, testCtx, alice, bob, carol)

	seedGroceryExpense(t, testCtx, groupID, alice, bob)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/performance", groupID),
		nil,
		testutils.AuthHeaders(bob.Token),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.LeaderboardResponse
	testutils.DecodeResponse(t, w, &resp)
	require.Len(t, resp.Entries, 3)

	// Alice (53) over neutral Carol (50) over Bob (15).
	assert.Equal(t, []string{alice.ID, carol.ID, bob.ID}, []string{
		resp.Entries[0].UserID, resp.Entries[1].UserID, resp.Entries[2].UserID,
	})
	assert.Equal(t, 1, resp.Entries[0].Rank)
	assert.Equal(t, 2, resp.Entries[1].Rank)
	assert.Equal(t, 3, resp.Entries[2].Rank)
	assert.Equal(t, "Alice", resp.Entries[0].Name)
	assert.True(t, resp.Entries[1].Neutral)
}

func TestScoreEndpointValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	alice := testutils.CreateTestUser(t, testCtx, "Alice")
	mallory := testutils.CreateTestUser(t, testCtx, "Mallory")
	groupID := testutils.CreateTestGroup(t, testCtx, alice)

	// Unknown domain
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/members/%s/score?domain=laundry", groupID, alice.ID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Scoring someone who is not in the group
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/members/%s/score", groupID, mallory.ID),
		nil,
		testutils.AuthHeaders(alice.Token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Outsiders cannot read the leaderboard
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/groups/%s/performance", groupID),
		nil,
		testutils.AuthHeaders(mallory.Token),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
