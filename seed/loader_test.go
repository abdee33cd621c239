package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"webhook-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const jsonSeed = `{
  "pending": [
    {"transaction_id":"abc123","amount":"49.90","currency":"BRL","event":"payment_success","timestamp":"2023-10-01T12:00:00Z"},
    {"transaction_id":"abc124","amount":"10.00","currency":"USD","event":"payment_success","timestamp":"2023-10-01T13:00:00Z"}
  ]
}`

const yamlSeed = `
pending:
  - transaction_id: abc123
    amount: "49.90"
    currency: BRL
    event: payment_success
    timestamp: "2023-10-01T12:00:00Z"
`

func TestParseJSON(t *testing.T) {
	records, err := ParseJSON([]byte(jsonSeed))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "abc123", records[0].TransactionID)
	assert.Equal(t, "49.90", records[0].Amount)
}

func TestParseYAML(t *testing.T) {
	records, err := ParseYAML([]byte(yamlSeed))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.PaymentRecord{
		TransactionID: "abc123",
		Amount:        "49.90",
		Currency:      "BRL",
		Event:         "payment_success",
		Timestamp:     "2023-10-01T12:00:00Z",
	}, records[0])
}

func TestParseJSON_MissingField(t *testing.T) {
	_, err := ParseJSON([]byte(`{"pending":[{"transaction_id":"abc123","amount":"1.00"}]}`))
	assert.ErrorContains(t, err, "invalid seed record")
}

func TestParseJSON_DuplicateID(t *testing.T) {
	rec := `{"transaction_id":"abc123","amount":"1","currency":"BRL","event":"e","timestamp":"2023-10-01T12:00:00Z"}`
	_, err := ParseJSON([]byte(`{"pending":[` + rec + `,` + rec + `]}`))
	assert.ErrorContains(t, err, "duplicate transaction_id")
}

func TestLoadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "seed.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlSeed), 0o600))
	jsonPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonSeed), 0o600))

	records, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

type fakeStore struct {
	reset    bool
	seeded   []models.PaymentRecord
	inserted int64
	resetErr error
}

func (f *fakeStore) ResetAll(ctx context.Context) error {
	f.reset = true
	return f.resetErr
}

func (f *fakeStore) SeedPending(ctx context.Context, records []models.PaymentRecord) (int64, error) {
	f.seeded = records
	return f.inserted, nil
}

func TestApply_ResetThenSeed(t *testing.T) {
	store := &fakeStore{inserted: 2}
	records, _ := ParseJSON([]byte(jsonSeed))

	n, err := Apply(context.Background(), store, records, true, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, store.reset)
	assert.Len(t, store.seeded, 2)
}

func TestApply_ResetFailureStops(t *testing.T) {
	store := &fakeStore{resetErr: errors.New("locked")}

	_, err := Apply(context.Background(), store, nil, true, zap.NewNop())

	assert.ErrorContains(t, err, "locked")
	assert.Nil(t, store.seeded)
}
