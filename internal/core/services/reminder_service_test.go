package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"courseflow/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendQueueDigestsNotifiesReviewers(t *testing.T) {
	var mu sync.Mutex
	var received []notifyPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p notifyPayload
		require.NoError(t, json.Unmarshal(body, &p))
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	t.Setenv("NOTIFY_WEBHOOK_URL", server.URL)

	f := newApprovalFixture(t)
	course := f.createCourse(t)
	_, err := f.service.SelfAssign(context.Background(), course.ID, f.instructor.ID)
	require.NoError(t, err)

	reminder := NewReminderService(
		repositories.NewCourseRepository(f.db),
		f.userRepo,
		NewNotificationService(),
	)
	reminder.SendQueueDigests()

	// Exactly the pending queue is non-empty, reviewed by the department head
	mu.Lock()
	defer mu.Unlock()
	var digests []notifyPayload
	for _, p := range received {
		if p.Data["status"] == "pending" {
			digests = append(digests, p)
		}
	}
	require.Len(t, digests, 1)
	assert.Equal(t, f.deptHead.Email, digests[0].Recipient)
	assert.Contains(t, digests[0].Data["courses"], "SE301")

	// Pure read plus notify; workflow state is untouched
	updated, err := f.service.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", updated.Status)
}
