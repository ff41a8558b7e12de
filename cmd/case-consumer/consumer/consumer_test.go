package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famcase/caseview/common/broker"
	"github.com/famcase/caseview/common/logger"
	"github.com/famcase/caseview/common/models"
)

// memApplier records applied events in memory and advances offsets like
// the real applier does, with injectable one-shot failures.
type memApplier struct {
	mu        sync.Mutex
	applied   []*models.Envelope
	offsets   map[int]string
	attempts  map[string]int
	failNext  int
	withdrawn map[string]bool
}

func newMemApplier() *memApplier {
	return &memApplier{
		offsets:   make(map[int]string),
		attempts:  make(map[string]int),
		withdrawn: make(map[string]bool),
	}
}

func (m *memApplier) Apply(ctx context.Context, partition int, messageID string, env *models.Envelope) (*ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext > 0 {
		m.failNext--
		return nil, errors.New("store unavailable")
	}

	result := &ApplyResult{}
	switch env.Kind {
	case models.EventSubmissionUpserted:
		m.applied = append(m.applied, env)
		m.attempts[env.SubmissionID]++
		result.DeliveryAttempts = m.attempts[env.SubmissionID]
		result.Applied = true
	case models.EventCustodyChanged:
		m.applied = append(m.applied, env)
		result.Applied = true
	case models.EventSubmissionWithdrawn:
		result.Applied = m.withdrawn[env.SubmissionID]
		delete(m.withdrawn, env.SubmissionID)
	}

	m.offsets[partition] = messageID
	return result, nil
}

func (m *memApplier) Get(ctx context.Context, partition int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offsets[partition], nil
}

func (m *memApplier) appliedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.applied)
}

func newTestConsumer(t *testing.T, b broker.Broker, applier *memApplier) *PartitionConsumer {
	t.Helper()

	validator, err := NewPayloadValidator()
	require.NoError(t, err)

	log := logger.New("error", "text")
	backoff := Backoff{Interval: time.Millisecond}
	return NewPartitionConsumer(b, applier, applier, validator, backoff, time.Millisecond, log, 0)
}

func submissionEvent(t *testing.T, submissionID, ownerID, subjectID string) []byte {
	t.Helper()

	payload := models.Payload{
		Dependent: models.Dependent{Name: "Alva", BirthDate: models.MustDate("2016-03-14")},
		Language:  "nb",
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	env := models.Envelope{
		Kind:         models.EventSubmissionUpserted,
		SubmissionID: submissionID,
		OwnerID:      ownerID,
		SubjectID:    subjectID,
		Payload:      raw,
		Timestamp:    time.Date(2021, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return value
}

func TestRunOnce_AppliesSubmissionEvent(t *testing.T) {
	ctx := context.Background()
	b := broker.NewMemoryBroker(1)
	applier := newMemApplier()
	pc := newTestConsumer(t, b, applier)

	id, err := b.Publish(ctx, "subject-1", submissionEvent(t, "sub-1", "owner-1", "subject-1"))
	require.NoError(t, err)

	processed, err := pc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, applier.appliedCount())
	assert.Equal(t, id, applier.offsets[0])
	assert.Equal(t, 0, b.Depth(0), "event must be acked after commit")
}

func TestRunOnce_RetriesAfterTransientFailure(t *testing.T) {
	ctx := context.Background()
	b := broker.NewMemoryBroker(1)
	applier := newMemApplier()
	applier.failNext = 2
	pc := newTestConsumer(t, b, applier)

	_, err := b.Publish(ctx, "subject-1", submissionEvent(t, "sub-1", "owner-1", "subject-1"))
	require.NoError(t, err)

	processed, err := pc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, applier.appliedCount(), "event lands exactly once after retries")
	assert.Equal(t, 0, b.Depth(0))
}

func TestRunOnce_ReplayIncrementsDeliveryAttempts(t *testing.T) {
	ctx := context.Background()
	b := broker.NewMemoryBroker(1)
	applier := newMemApplier()
	pc := newTestConsumer(t, b, applier)

	value := submissionEvent(t, "sub-1", "owner-1", "subject-1")
	_, err := b.Publish(ctx, "subject-1", value)
	require.NoError(t, err)
	_, err = b.Publish(ctx, "subject-1", value)
	require.NoError(t, err)

	processed, err := pc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, applier.attempts["sub-1"], "replay counted, not duplicated")
}

func TestRunOnce_SkipsAlreadyCommitted(t *testing.T) {
	ctx := context.Background()
	b := broker.NewMemoryBroker(1)
	applier := newMemApplier()
	pc := newTestConsumer(t, b, applier)

	id, err := b.Publish(ctx, "subject-1", submissionEvent(t, "sub-1", "owner-1", "subject-1"))
	require.NoError(t, err)

	// Committed past this event in a previous life; the crash happened
	// between commit and ack.
	applier.offsets[0] = id

	processed, err := pc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, applier.appliedCount(), "committed event must not be reapplied")
	assert.Equal(t, 0, b.Depth(0), "skipped event is still acked")
}

func TestRunOnce_WithdrawalOfAbsentKeyIsNoOp(t *testing.T) {
	ctx := context.Background()
	b := broker.NewMemoryBroker(1)
	applier := newMemApplier()
	pc := newTestConsumer(t, b, applier)

	env := models.Envelope{Kind: models.EventSubmissionWithdrawn, SubmissionID: "never-seen"}
	value, err := json.Marshal(env)
	require.NoError(t, err)
	_, err = b.Publish(ctx, "subject-1", value)
	require.NoError(t, err)

	processed, err := pc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, b.Depth(0), "no-op withdrawal is still consumed")
}

func TestRunOnce_CustodyEvent(t *testing.T) {
	ctx := context.Background()
	b := broker.NewMemoryBroker(1)
	applier := newMemApplier()
	pc := newTestConsumer(t, b, applier)

	hasCustody := true
	env := models.Envelope{
		Kind:       models.EventCustodyChanged,
		OwnerID:    "owner-1",
		SubjectID:  "subject-1",
		HasCustody: &hasCustody,
		Timestamp:  time.Date(2021, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	value, err := json.Marshal(env)
	require.NoError(t, err)
	_, err = b.Publish(ctx, "subject-1", value)
	require.NoError(t, err)

	processed, err := pc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	require.Equal(t, 1, applier.appliedCount())
	assert.Equal(t, models.EventCustodyChanged, applier.applied[0].Kind)
}

func TestDecode_Classification(t *testing.T) {
	validator, err := NewPayloadValidator()
	require.NoError(t, err)
	pc := &PartitionConsumer{validator: validator}

	tests := []struct {
		name  string
		value string
	}{
		{"missing kind", `{"submission_id":"sub-1"}`},
		{"unknown kind", `{"kind":"SOMETHING_ELSE","submission_id":"sub-1"}`},
		{"not json", `{{{`},
		{"submission without payload", `{"kind":"NEW_OR_UPDATED_SUBMISSION","submission_id":"s","owner_id":"o","subject_id":"c","timestamp":"2021-09-01T12:00:00Z"}`},
		{"custody without flag", `{"kind":"CUSTODY_CHANGED","owner_id":"o","subject_id":"c","timestamp":"2021-09-01T12:00:00Z"}`},
		{"payload missing dependent", `{"kind":"NEW_OR_UPDATED_SUBMISSION","submission_id":"s","owner_id":"o","subject_id":"c","payload":{"language":"nb"},"timestamp":"2021-09-01T12:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pc.decode([]byte(tt.value))
			require.Error(t, err)
			assert.Equal(t, KindMalformed, Classify(err))
		})
	}
}

func TestDecode_ValidSubmission(t *testing.T) {
	validator, err := NewPayloadValidator()
	require.NoError(t, err)
	pc := &PartitionConsumer{validator: validator}

	env, err := pc.decode(submissionEvent(t, "sub-1", "owner-1", "subject-1"))
	require.NoError(t, err)
	assert.Equal(t, models.EventSubmissionUpserted, env.Kind)
	assert.Equal(t, "sub-1", env.SubmissionID)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindMalformed, Classify(Malformedf("bad event")))
	assert.Equal(t, KindMalformed, Classify(fmt.Errorf("apply: %w", Malformedf("bad event"))))
	assert.Equal(t, KindTransient, Classify(errors.New("connection refused")))
}
