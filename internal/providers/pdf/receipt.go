package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReceiptData struct {
	ReceiptNumber string
	Date          string
	ExchangeRate  string
	Notes         string

	Items    []ReceiptItem
	Payments []ReceiptPayment

	TotalUSD  string
	TotalVES  string
	PaidUSD   string
	ChangeUSD string
}

type ReceiptItem struct {
	Description string
	SKU         string
	Qty         int64
	UnitPrice   string
	Amount      string
}

type ReceiptPayment struct {
	Method string
	Amount string
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(12, p.shopName, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Receipt: "+receipt.ReceiptNumber, props.Text{Top: 0}),
			text.New("Date: "+receipt.Date, props.Text{Top: 4}),
			text.New("Rate (VES/USD): "+receipt.ExchangeRate, props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range receipt.Items {
		m.AddRow(10,
			col.New(6).Add(
				text.New(item.Description, props.Text{Size: 9}),
				text.New(item.SKU, props.Text{Size: 7, Top: 4}),
			),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total USD", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, receipt.TotalUSD, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total VES", props.Text{Size: 9}),
		text.NewCol(2, receipt.TotalVES, props.Text{Size: 9, Align: align.Right}),
	)

	for _, payment := range receipt.Payments {
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, payment.Method, props.Text{Size: 8}),
			text.NewCol(2, payment.Amount, props.Text{Size: 8, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Change USD", props.Text{Size: 9}),
		text.NewCol(2, receipt.ChangeUSD, props.Text{Size: 9, Align: align.Right}),
	)

	if receipt.Notes != "" {
		m.AddRow(15,
			text.NewCol(12, receipt.Notes, props.Text{Size: 8, Top: 5}),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
