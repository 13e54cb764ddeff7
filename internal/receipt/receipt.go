// Package receipt формирует PDF-чек по оформленному заказу.
package receipt

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/linemk/lego-store/internal/domain/models"
)

const (
	DefaultStoreName = "Lego Store"
	DefaultFooter    = "Thank you for your purchase!"

	// TimeLayout - формат даты заказа в чеке
	TimeLayout = "02.01.2006 15:04"

	rule        = "------------------------------------------"
	marginMM    = 20.0
	pageWidthMM = 210.0
)

type align string

const (
	alignLeft   align = "L"
	alignCenter align = "C"
	alignRight  align = "R"
)

// block - одна строка макета чека
type block struct {
	text  string
	size  float64
	style string
	align align
	line  bool    // горизонтальная линия вместо текста
	after float64 // отступ после, мм
}

type Renderer struct {
	StoreName string
	Footer    string
	// Compress включает сжатие потоков PDF; без сжатия текст чека виден в байтах файла
	Compress bool
}

func NewRenderer(storeName, footer string) *Renderer {
	if storeName == "" {
		storeName = DefaultStoreName
	}
	if footer == "" {
		footer = DefaultFooter
	}
	return &Renderer{StoreName: storeName, Footer: footer, Compress: true}
}

// Render пишет чек заказа в w. Заказ должен быть загружен вместе со строками
func (r *Renderer) Render(w io.Writer, order *models.Order) error {
	const op = "receipt.Renderer.Render"

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.SetTitle(fmt.Sprintf("Ticket %d", order.ID), true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, b := range r.layout(order) {
		if b.line {
			y := pdf.GetY()
			pdf.Line(marginMM, y, pageWidthMM-marginMM, y)
			pdf.Ln(b.after)
			continue
		}
		pdf.SetFont("Helvetica", b.style, b.size)
		pdf.MultiCell(0, b.size*0.5, tr(b.text), "", string(b.align), false)
		pdf.Ln(b.after)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Lines возвращает текст чека построчно, в том порядке, в каком он попадает в PDF
func (r *Renderer) Lines(order *models.Order) []string {
	var lines []string
	for _, b := range r.layout(order) {
		if b.line {
			continue
		}
		lines = append(lines, b.text)
	}
	return lines
}

func (r *Renderer) layout(order *models.Order) []block {
	blocks := []block{
		{text: rule, size: 20, align: alignCenter},
		{text: r.StoreName, size: 20, align: alignCenter},
		{text: rule, size: 20, align: alignCenter, after: 6},
		{text: "TICKET", size: 20, style: "B", align: alignCenter, after: 6},
		{text: fmt.Sprintf("Order ID: %d", order.ID), size: 12, align: alignLeft},
		{text: "Customer: " + order.CustomerName, size: 12, align: alignLeft},
		{text: "Date: " + order.CreatedAt.Format(TimeLayout), size: 12, align: alignLeft, after: 4},
		{line: true, after: 4},
		{text: "Products:", size: 14, style: "U", align: alignLeft, after: 2},
	}

	for _, l := range order.Lines {
		blocks = append(blocks,
			block{text: l.ProductName, size: 10, align: alignLeft},
			block{
				text: fmt.Sprintf("  Quantity: %d x $%s = $%s",
					l.Quantity, l.UnitPrice.StringFixed(2), l.LineTotal().StringFixed(2)),
				size:  10,
				align: alignLeft,
				after: 2,
			},
		)
	}

	return append(blocks,
		block{line: true, after: 4},
		block{text: "TOTAL: $" + order.Total.StringFixed(2), size: 14, style: "B", align: alignRight, after: 10},
		block{text: r.Footer, size: 10, align: alignCenter},
	)
}

// FileName - имя файла чека: ticket-<имя покупателя>-<id заказа>.pdf
func FileName(order *models.Order) string {
	return "ticket-" + sanitize(order.CustomerName) + "-" + strconv.FormatInt(order.ID, 10) + ".pdf"
}

// sanitize оставляет в имени только буквы, цифры, '-' и '_'; пробелы становятся '_'
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "customer"
	}
	return b.String()
}
