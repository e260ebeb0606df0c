package pipeline

import (
	"context"

	"posclean/internal"
	"posclean/internal/tableio"
	"posclean/internal/util"
)

// CleanItemsTable relabels an item table, runs every row through the normalizer and
// writes the derived columns back. Columns it does not know about are left in place.
func (n *Normalizer) CleanItemsTable(ctx context.Context, t *tableio.Table) (CleanResult, error) {
	t.Rename(itemColumns)

	cols := map[string]int{}
	for _, name := range []string{"item_code", "item_desc", "item_type", "item_brand", "item_size"} {
		idx, err := t.MustIndex(name)
		if err != nil {
			return CleanResult{}, err
		}
		cols[name] = idx
	}
	uomIdx := t.AddColumn("item_uom")
	noteIdx := t.AddColumn("item_note")

	raws := make([]internal.RawItem, len(t.Rows))
	for i := range t.Rows {
		raws[i] = internal.RawItem{
			Code:        t.Cell(i, cols["item_code"]),
			Description: t.Cell(i, cols["item_desc"]),
			Type:        t.Cell(i, cols["item_type"]),
			Brand:       t.Cell(i, cols["item_brand"]),
			Size:        t.Cell(i, cols["item_size"]),
		}
	}

	items, stats, err := n.NormalizeAll(ctx, raws)
	if err != nil {
		return CleanResult{}, err
	}

	for i, item := range items {
		t.SetCell(i, cols["item_desc"], item.Desc)
		t.SetCell(i, cols["item_brand"], item.Brand)
		t.SetCell(i, cols["item_size"], FormatSize(item))
		t.SetCell(i, uomIdx, item.UOM)
		t.SetCell(i, noteIdx, item.Note)
	}

	return CleanResult{Items: items, Stats: stats}, nil
}

func FormatSize(item internal.ItemRecord) *string {
	if !item.Size.Valid {
		return nil
	}
	return util.StringPtr(item.Size.Decimal.String())
}
