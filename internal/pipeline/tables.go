package pipeline

import (
	"context"
	"errors"
	"fmt"

	"posclean/internal"
	"posclean/internal/tableio"
)

var ErrNoCleaner = errors.New("no cleaning function")

var (
	itemColumns = map[string]string{
		"code":       "item_code",
		"descrption": "item_desc",
		"type":       "item_type",
		"brand":      "item_brand",
		"size":       "item_size",
	}
	promotionColumns = map[string]string{
		"code":         "item_code",
		"supermarkets": "supermarket_code",
	}
	salesColumns = map[string]string{
		"code":        "item_code",
		"amount":      "transaction_amount",
		"units":       "quantity",
		"supermarket": "supermarket_code",
		"customerId":  "customer_id",
	}
	supermarketColumns = map[string]string{
		"supermarket_No": "supermarket_code",
		"postal-code":    "postal_code",
	}
)

// CleanResult carries what a cleaner produced besides the rewritten table.
type CleanResult struct {
	Items []internal.ItemRecord
	Stats NormalizeStats
}

type Cleaner func(ctx context.Context, t *tableio.Table) (CleanResult, error)

// Cleaners maps source file names to their cleaning function.
func (n *Normalizer) Cleaners() map[string]Cleaner {
	return map[string]Cleaner{
		"item.csv":         n.CleanItemsTable,
		"promotion.csv":    relabel(promotionColumns),
		"sales.csv":        relabel(salesColumns),
		"supermarkets.csv": relabel(supermarketColumns),
	}
}

func (n *Normalizer) CleanerFor(fileName string) (Cleaner, error) {
	c, ok := n.Cleaners()[fileName]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoCleaner, fileName)
	}
	return c, nil
}

func relabel(mapping map[string]string) Cleaner {
	return func(_ context.Context, t *tableio.Table) (CleanResult, error) {
		t.Rename(mapping)
		return CleanResult{Stats: NormalizeStats{Rows: len(t.Rows)}}, nil
	}
}
