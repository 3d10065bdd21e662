package datasource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/equiscore/pkg/models"
)

var validate = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// LoadSnapshot reads a company snapshot from a JSON or YAML file.
func LoadSnapshot(path string) (*models.Snapshot, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatCSV {
		return nil, fmt.Errorf("%s: snapshot must be json or yaml: %w", path, ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	snap, err := DecodeSnapshot(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// DecodeSnapshot decodes and validates a snapshot.
func DecodeSnapshot(r io.Reader, format Format) (*models.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap models.Snapshot
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&snap); err != nil {
			return nil, fmt.Errorf("decoding json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decoding yaml snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("snapshot format %q: %w", format, ErrUnsupportedFormat)
	}

	if err := ValidateSnapshot(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ValidateSnapshot checks the required company fields and statement maps and
// rewrites statement keys such as "FY2024" or "2024" to canonical "fy_2024"
// labels.
func ValidateSnapshot(snap *models.Snapshot) error {
	if err := validate().Struct(snap); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidSnapshot, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var err error
	if snap.BalanceSheet, err = canonicalYears(snap.BalanceSheet); err != nil {
		return fmt.Errorf("%w: balance_sheet: %v", ErrInvalidSnapshot, err)
	}
	if snap.IncomeStatement, err = canonicalYears(snap.IncomeStatement); err != nil {
		return fmt.Errorf("%w: income_statement: %v", ErrInvalidSnapshot, err)
	}
	if snap.CashFlow, err = canonicalYears(snap.CashFlow); err != nil {
		return fmt.Errorf("%w: cash_flow: %v", ErrInvalidSnapshot, err)
	}
	if snap.PerShare, err = canonicalYears(snap.PerShare); err != nil {
		return fmt.Errorf("%w: per_share_data: %v", ErrInvalidSnapshot, err)
	}
	return nil
}

func canonicalYears[T any](m map[string]T) (map[string]T, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]T, len(m))
	for label, v := range m {
		year, err := models.ParseFiscalYear(label)
		if err != nil {
			return nil, err
		}
		key := models.FiscalYearLabel(year)
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate fiscal year %d", year)
		}
		out[key] = v
	}
	return out, nil
}
