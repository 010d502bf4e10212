package pdf

import (
	"context"
	"errors"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrEmptySheet = errors.New("empty_label_sheet")

// LabelRow is one printable product label. PNG holds the rendered barcode.
type LabelRow struct {
	Name  string
	SKU   string
	Price string
	PNG   []byte
}

func (p *PDFProvider) GenerateLabelSheet(ctx context.Context, rows []LabelRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "{current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, p.shopName+" labels", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.AddRow(35,
			col.New(5).Add(
				text.New(row.Name, props.Text{Size: 10, Style: fontstyle.Bold}),
				text.New(row.SKU, props.Text{Size: 9, Top: 6}),
				text.New(row.Price, props.Text{Size: 12, Top: 12}),
			),
			image.NewFromBytesCol(7, row.PNG, extension.Png, props.Rect{
				Center:  true,
				Percent: 90,
			}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
