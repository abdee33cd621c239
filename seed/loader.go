package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"webhook-service/models"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store is the part of the payment repository used for setup.
type Store interface {
	ResetAll(ctx context.Context) error
	SeedPending(ctx context.Context, records []models.PaymentRecord) (int64, error)
}

// File is the seed document: a list of pending payments.
type File struct {
	Pending []models.PaymentRecord `json:"pending" yaml:"pending" validate:"dive"`
}

var validate = validator.New()

// LoadFile reads and validates a seed file. The format is chosen by
// extension: .yaml/.yml for YAML, anything else JSON.
func LoadFile(path string) ([]models.PaymentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

func ParseJSON(data []byte) ([]models.PaymentRecord, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed json: %w", err)
	}
	return check(f)
}

func ParseYAML(data []byte) ([]models.PaymentRecord, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	return check(f)
}

func check(f File) ([]models.PaymentRecord, error) {
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid seed record: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Pending))
	for _, r := range f.Pending {
		if _, dup := seen[r.TransactionID]; dup {
			return nil, fmt.Errorf("duplicate transaction_id %q in seed", r.TransactionID)
		}
		seen[r.TransactionID] = struct{}{}
	}
	return f.Pending, nil
}

// Apply optionally truncates every set and then inserts records as pending.
// Ids already present are skipped. It returns the number inserted.
func Apply(ctx context.Context, store Store, records []models.PaymentRecord, reset bool, logger *zap.Logger) (int64, error) {
	if reset {
		if err := store.ResetAll(ctx); err != nil {
			return 0, fmt.Errorf("reset payment tables: %w", err)
		}
		logger.Info("Payment tables reset")
	}

	n, err := store.SeedPending(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("seed pending payments: %w", err)
	}
	logger.Info("Pending payments seeded",
		zap.Int("records", len(records)),
		zap.Int64("inserted", n),
	)
	return n, nil
}
