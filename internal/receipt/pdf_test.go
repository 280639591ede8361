package receipt

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/order-dashboard/internal/model"
)

func renderUncompressed(t *testing.T, o model.Order) (*PDFDrawer, []byte) {
	t.Helper()
	d := NewPDFDrawer()
	d.SetCompression(false)
	Render(d, testBusiness(), o)
	data, err := d.Bytes()
	require.NoError(t, err)
	return d, data
}

func TestPDFContainsReceiptText(t *testing.T) {
	_, data := renderUncompressed(t, fullOrder())

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	for _, want := range []string{
		"MAHITHRAA SRI CRACKERS",
		"Customer Order Details",
		"Token No.: 41",
		"Sparkler 10cm",
		"Total Amount: Rs.450.00",
	} {
		assert.Contains(t, string(data), want)
	}
}

func TestPDFEmptyCart(t *testing.T) {
	o := fullOrder()
	o.Cart = nil
	d, data := renderUncompressed(t, o)
	assert.Contains(t, string(data), "No items in cart")
	assert.Equal(t, 1, d.Pages())
}

func TestPDFLongCartAddsPages(t *testing.T) {
	o := fullOrder()
	o.Cart = nil
	for i := 0; i < 50; i++ {
		o.Cart = append(o.Cart, model.LineItem{ProductName: "Rocket", Price: decimal.NewFromInt(5), Quantity: 2})
	}
	d, _ := renderUncompressed(t, o)
	assert.Equal(t, 3, d.Pages())
}

func TestPDFTruncatesLongNames(t *testing.T) {
	o := fullOrder()
	o.Cart = []model.LineItem{{
		ProductName: "Giant Multi Colour Celebration Sky Shot 240 Rounds",
		Price:       decimal.NewFromInt(2400),
		Quantity:    1,
	}}
	_, data := renderUncompressed(t, o)
	assert.Contains(t, string(data), "Giant Multi Colour Celebration Sky Shot ...")
	assert.NotContains(t, string(data), "240 Rounds")
}
