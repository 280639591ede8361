// Package receipt renders a customer order as a printable A4 receipt and
// delivers it to one or more sinks.
package receipt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/nhle/order-dashboard/internal/model"
)

// Layout constants, in millimetres on an A4 page.
const (
	pageCenterX   = 105.0
	marginX       = 20.0
	tableX        = 10.0
	tableWidth    = 190.0
	rowHeight     = 8.0
	pageBreakY    = 250.0
	pageTopY      = 20.0
	itemsHeadingY = 140.0

	maxItemName = 40
	placeholder = "N/A"
)

// Font styles understood by a Drawer.
const (
	StyleNormal = ""
	StyleBold   = "B"
)

// Drawer is the drawing surface a receipt is rendered onto. Coordinates are
// millimetres from the top-left corner; y is the text baseline.
type Drawer interface {
	SetFont(style string, size float64)
	Text(x, y float64, s string)
	CenteredText(x, y float64, s string)
	FillRect(x, y, w, h float64, r, g, b int)
	AddPage()
}

// Render draws the receipt for o onto d.
func Render(d Drawer, biz model.BusinessConfig, o model.Order) {
	d.SetFont(StyleNormal, 18)
	d.CenteredText(pageCenterX, 20, biz.Name)

	d.SetFont(StyleNormal, 10)
	y := 30.0
	for _, line := range biz.AddressLines {
		d.CenteredText(pageCenterX, y, line)
		y += 5
	}
	if biz.Phone != "" {
		d.CenteredText(pageCenterX, y, "Phone no.: "+biz.Phone)
	}

	d.SetFont(StyleNormal, 14)
	d.Text(marginX, 55, "Customer Order Details")

	d.SetFont(StyleNormal, 10)
	d.Text(marginX, 70, "Token No.: "+tokenText(o.TokenNumber))
	d.Text(marginX, 75, "Invoice No.: "+orNA(o.InvoiceNumber))
	d.Text(marginX, 80, "Order Date: "+dateText(o))
	d.Text(marginX, 85, "Status: "+orNA(string(o.Status)))
	d.Text(marginX, 90, "PDF Downloaded: "+yesNo(o.PDFDownloaded))

	d.Text(marginX, 105, "Customer Details:")
	d.Text(marginX, 110, "Name: "+orNA(o.Customer))
	d.Text(marginX, 115, "Phone: "+orNA(o.Phone))
	d.Text(marginX, 120, "Address: "+orNA(o.Address))
	d.Text(marginX, 125, "City: "+orNA(o.City))

	y = itemsHeadingY
	d.Text(marginX, y, "Order Items:")
	y += 10

	if len(o.Cart) > 0 {
		d.FillRect(tableX, y, tableWidth, rowHeight, 240, 240, 240)
		d.Text(12, y+5, "Item")
		d.Text(120, y+5, "Qty")
		d.Text(140, y+5, "Price")
		d.Text(170, y+5, "Total")
		y += 10

		for _, item := range o.Cart {
			if y > pageBreakY {
				d.AddPage()
				y = pageTopY
			}
			d.Text(12, y+5, ItemName(item.ProductName))
			d.Text(122, y+5, strconv.Itoa(item.Quantity))
			d.Text(142, y+5, Money(item.Price))
			d.Text(172, y+5, Money(item.LineTotal()))
			y += rowHeight
		}
	} else {
		d.Text(marginX, y+5, "No items in cart")
		y += 10
	}

	y += 10
	d.SetFont(StyleBold, 10)
	d.Text(marginX, y, "Total Amount: "+Money(o.TotalAmount))
}

// ItemName returns the product name as printed in the item table: names
// longer than 40 characters are cut and suffixed with "...".
func ItemName(name string) string {
	if name == "" {
		return placeholder
	}
	if utf8.RuneCountInString(name) <= maxItemName {
		return name
	}
	return string([]rune(name)[:maxItemName]) + "..."
}

// Money formats an amount with two decimals. The core PDF fonts have no
// rupee glyph, so the "Rs." abbreviation is used.
func Money(d decimal.Decimal) string {
	return "Rs." + d.StringFixed(2)
}

// FileName returns the receipt file name for o.
func FileName(o model.Order) string {
	token := "unknown"
	if o.TokenNumber != 0 {
		token = strconv.Itoa(o.TokenNumber)
	}
	customer := o.Customer
	if strings.TrimSpace(customer) == "" {
		customer = "unknown"
	}
	name := fmt.Sprintf("customer_order_token_%s_%s.pdf", token, customer)
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

func tokenText(token int) string {
	if token == 0 {
		return placeholder
	}
	return strconv.Itoa(token)
}

func dateText(o model.Order) string {
	if o.OrderDate.IsZero() {
		return placeholder
	}
	return o.OrderDate.Local().Format("02/01/2006")
}

func orNA(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
