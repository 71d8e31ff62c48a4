package distribution

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/storage/data"
	"github.com/sib-utrecht/portal/totp"
)

const (
	financeSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	eventsSecret  = "JBSWY3DPEHPK3PXP"
)

type memoryStore struct {
	committees map[string]*data.Committee
	err        error
	jitter     bool
	lookups    atomic.Int32
}

func (m *memoryStore) GetCommitteeSecret(ctx context.Context, id string) (*data.Committee, error) {
	m.lookups.Add(1)
	if m.jitter {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.committees[id], nil
}

func testStore() *memoryStore {
	return &memoryStore{committees: map[string]*data.Committee{
		"finance": {Id: "finance", Name: "Finance", Members: []string{"m1", "m2"}, Secret: financeSecret},
		"events":  {Id: "events", Name: "Events", Members: []string{"m1"}, Secret: eventsSecret},
		"board":   {Id: "board", Name: "Board", Members: []string{"m9"}, Secret: eventsSecret},
		"broken":  {Id: "broken", Name: "Broken", Members: []string{"m1"}, Secret: "!!not base32!!"},
	}}
}

func testService(store SecretStore, at time.Time) *Service {
	return New(store, clockwork.NewFakeClockAt(at))
}

var member = &portal.Identity{Email: "m1@sib.test", ConscriboId: "m1"}

func Test_Generate_Scenario(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	res, err := testService(testStore(), at).Generate(context.Background(), member, []string{"finance", "events"})
	require.NoError(t, err)

	require.Len(t, res.Secrets, 2)
	for _, code := range res.Secrets {
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
	finance, _ := totp.Generate(financeSecret, at)
	events, _ := totp.Generate(eventsSecret, at)
	assert.Equal(t, []string{finance, events}, res.Secrets)

	// next multiple of 30 after 1_700_000_000, in ms
	assert.Equal(t, int64(1_700_000_010_000), res.EndTime.UnixMilli())
}

func Test_Generate_Duplicates(t *testing.T) {
	res, err := testService(testStore(), time.Unix(1_700_000_000, 0)).
		Generate(context.Background(), member, []string{"finance", "events", "finance"})
	require.NoError(t, err)
	require.Len(t, res.Secrets, 3)
	assert.Equal(t, res.Secrets[0], res.Secrets[2])
}

func Test_Generate_Empty(t *testing.T) {
	store := testStore()
	res, err := testService(store, time.Unix(1_700_000_000, 0)).Generate(context.Background(), member, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Secrets)
	assert.NotNil(t, res.Secrets)
	assert.Equal(t, int64(1_700_000_010), res.EndTime.Unix())
	assert.Equal(t, int32(0), store.lookups.Load())
}

func Test_Generate_Unauthorized(t *testing.T) {
	store := testStore()
	_, err := testService(store, time.Now()).Generate(context.Background(), nil, []string{"finance"})
	assert.ErrorIs(t, err, portal.ErrUnauthorized)
	assert.Equal(t, int32(0), store.lookups.Load())
}

func Test_Generate_Forbidden(t *testing.T) {
	res, err := testService(testStore(), time.Now()).
		Generate(context.Background(), member, []string{"finance", "board", "events"})

	var forbidden *ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	assert.Equal(t, "board", forbidden.Id)
	assert.Equal(t, "unauthorized: not a member of committee Board", err.Error())
	assert.Empty(t, res.Secrets)
}

func Test_Generate_NotFound(t *testing.T) {
	res, err := testService(testStore(), time.Now()).
		Generate(context.Background(), member, []string{"finance", "nope", "events"})

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nope", notFound.Id)
	assert.Empty(t, res.Secrets)
}

func Test_Generate_NotFoundBeforeForbidden(t *testing.T) {
	// the unknown id comes after the forbidden committee but every id
	// has to resolve before membership is considered
	_, err := testService(testStore(), time.Now()).
		Generate(context.Background(), member, []string{"board", "nope"})
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func Test_Generate_EmptyStableIdNeverMatches(t *testing.T) {
	store := testStore()
	store.committees["open"] = &data.Committee{Id: "open", Name: "Open", Members: []string{""}, Secret: eventsSecret}

	_, err := testService(store, time.Now()).
		Generate(context.Background(), &portal.Identity{Email: "x@sib.test"}, []string{"open"})
	var forbidden *ForbiddenError
	assert.True(t, errors.As(err, &forbidden))
}

func Test_Generate_StoreError(t *testing.T) {
	store := testStore()
	store.err = errors.New("connection reset")
	_, err := testService(store, time.Now()).Generate(context.Background(), member, []string{"finance"})
	assert.ErrorIs(t, err, store.err)
}

func Test_Generate_InvalidSecret(t *testing.T) {
	_, err := testService(testStore(), time.Now()).Generate(context.Background(), member, []string{"finance", "broken"})
	var invalid *totp.InvalidSecretError
	assert.True(t, errors.As(err, &invalid))
}

func Test_Generate_PreservesOrderUnderConcurrency(t *testing.T) {
	store := testStore()
	store.jitter = true
	at := time.Unix(1_700_000_000, 0)
	finance, _ := totp.Generate(financeSecret, at)
	events, _ := totp.Generate(eventsSecret, at)

	ids := make([]string, 0, 40)
	expected := make([]string, 0, 40)
	for i := 0; i < 20; i++ {
		ids = append(ids, "events", "finance")
		expected = append(expected, events, finance)
	}

	res, err := testService(store, at).Generate(context.Background(), member, ids)
	require.NoError(t, err)
	assert.Equal(t, expected, res.Secrets)
}

func Test_Generate_SharedEndTimeAcrossStep(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_009, 500_000_000))
	service := New(testStore(), clock)

	res, err := service.Generate(context.Background(), member, []string{"finance", "events"})
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_010), res.EndTime.Unix())

	clock.Advance(time.Second)
	next, err := service.Generate(context.Background(), member, []string{"finance", "events"})
	require.NoError(t, err)
	assert.Equal(t, res.EndTime.Add(totp.Step), next.EndTime)
}

func Test_Outcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "unauthorized", outcome(portal.ErrUnauthorized))
	assert.Equal(t, "not_found", outcome(&NotFoundError{}))
	assert.Equal(t, "forbidden", outcome(&ForbiddenError{}))
	assert.Equal(t, "error", outcome(errors.New("x")))
}
