package pdf

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("pdf",
	fx.Provide(New),
)

type Provider interface {
	GenerateLabelSheet(ctx context.Context, rows []LabelRow) ([]byte, error)
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type PDFProvider struct {
	shopName string
}

func New() Provider {
	return &PDFProvider{shopName: "MotoPOS"}
}
