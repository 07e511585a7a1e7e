package notifier

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/infrastructure/outbox"
)

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) Send(subject, body, to string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, subject)
	return nil
}

func newTestStore(t *testing.T) *outbox.Store {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDispatcherEnqueues(t *testing.T) {
	store := newTestStore(t)
	tmpl := TemplateConfig{Subject: "New Task Created | Review and Take Action", Body: "body", To: "ops@example.com"}
	dispatcher := NewDispatcher(store, tmpl, nil)

	task := &domain.Task{Title: "write report"}
	require.NoError(t, dispatcher.TaskCreated(context.Background(), task))

	jobs, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, tmpl.Subject, jobs[0].Subject)
	assert.Equal(t, tmpl.To, jobs[0].To)
}

func TestDispatcherWithoutRecipientIsNoop(t *testing.T) {
	store := newTestStore(t)
	dispatcher := NewDispatcher(store, TemplateConfig{Subject: "s"}, nil)

	require.NoError(t, dispatcher.TaskCreated(context.Background(), &domain.Task{Title: "t"}))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestDrainDeliversAndPurges(t *testing.T) {
	store := newTestStore(t)
	mailer := &fakeMailer{}
	processor := NewProcessor(store, mailer, nil, ProcessorConfig{})

	for _, subject := range []string{"a", "b", "c"} {
		require.NoError(t, store.Enqueue(outbox.Job{Subject: subject, Body: "b", To: "t"}))
	}

	require.NoError(t, processor.Drain())

	assert.Len(t, mailer.sent, 3)
	assert.Zero(t, processor.Size(), "delivered jobs must leave the outbox")
}

func TestDrainRetriesThenDrops(t *testing.T) {
	store := newTestStore(t)
	mailer := &fakeMailer{err: errors.New("smtp unreachable")}
	processor := NewProcessor(store, mailer, nil, ProcessorConfig{MaxRetries: 3})

	require.NoError(t, store.Enqueue(outbox.Job{Subject: "s", Body: "b", To: "t"}))

	// first two failures keep the job queued with a bumped retry count
	for i := 1; i <= 2; i++ {
		require.NoError(t, processor.Drain())
		jobs, err := store.GetBatch(10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, i, jobs[0].Retries)
	}

	// third failure exhausts the budget and the job is dropped
	require.NoError(t, processor.Drain())
	assert.Zero(t, processor.Size())
}

func TestDrainFailureDoesNotBlockOtherJobs(t *testing.T) {
	store := newTestStore(t)
	mailer := &fakeMailer{}
	processor := NewProcessor(store, mailer, nil, ProcessorConfig{})

	require.NoError(t, store.Enqueue(outbox.Job{Subject: "early", Body: "b", To: "t", Timestamp: time.Now().Add(-time.Second)}))
	require.NoError(t, store.Enqueue(outbox.Job{Subject: "late", Body: "b", To: "t"}))

	require.NoError(t, processor.Drain())
	assert.Equal(t, []string{"early", "late"}, mailer.sent)
}

func TestProcessorStartStop(t *testing.T) {
	store := newTestStore(t)
	processor := NewProcessor(store, &fakeMailer{}, nil, ProcessorConfig{Interval: time.Second})

	processor.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	processor.Stop(ctx)
}
