package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// 版面常量（单位mm，A4纵向）
const (
	pageMargin = 25.0

	titleSize   = 22.0
	headingSize = 12.0
	normalSize  = 10.0
	smallSize   = 9.0
)

// 文本颜色
var (
	textPrimary   = statusColor{0, 0, 0}
	textSecondary = statusColor{100, 100, 100}
	textMuted     = statusColor{160, 160, 160}

	borderLight = statusColor{230, 230, 230}
	borderDark  = statusColor{100, 100, 100}
)

// Generate 将渲染模型生成为PDF字节流。
// 输出是确定性的：相同模型永远得到逐字节相同的结果
// （文档创建时间固定，不写入任何真实时钟）。
func Generate(m Model) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(time.Unix(0, 0).UTC())
	doc.SetModificationDate(time.Unix(0, 0).UTC())
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	pageWidth, pageHeight := doc.GetPageSize()
	totalFormatted := FormatAmount(m.Invoice.Currency, m.Invoice.Total)

	yPos := pageMargin + 10

	// ========== 标题栏 ==========
	setTextColor(doc, textPrimary)
	doc.SetFont("Helvetica", "B", titleSize)
	doc.Text(pageMargin, yPos, "INVOICE")

	// 发票号右对齐
	doc.SetFont("Helvetica", "", headingSize)
	textRight(doc, pageWidth-pageMargin, yPos, m.Invoice.Number)

	yPos += 3

	// 标题下分隔线
	setDrawColor(doc, borderDark)
	doc.SetLineWidth(0.5)
	doc.Line(pageMargin, yPos, pageWidth-pageMargin, yPos)

	yPos += 12

	// ========== 日期/币种/状态行 ==========
	doc.SetFont("Helvetica", "", smallSize)
	setTextColor(doc, textSecondary)
	doc.Text(pageMargin, yPos, fmt.Sprintf("Date: %s", formatDate(m.Invoice.IssuedAt)))
	doc.Text(pageMargin+70, yPos, fmt.Sprintf("Currency: %s", m.Invoice.Currency))

	setTextColor(doc, colorOf(m.Invoice.Status))
	textRight(doc, pageWidth-pageMargin, yPos, fmt.Sprintf("Status: %s", StatusLabel(m.Invoice.Status)))

	yPos += 15

	// ========== 参与方双栏（FROM / BILL TO） ==========
	partiesStartY := yPos

	leftEndY := partiesStartY
	if m.Issuer != nil {
		leftEndY = renderParty(doc, pageMargin, partiesStartY, "FROM", *m.Issuer)
	}

	rightColX := pageWidth/2 + 10
	rightEndY := renderParty(doc, rightColX, partiesStartY, "BILL TO", m.Client)

	yPos = maxFloat(leftEndY, rightEndY)
	if minY := partiesStartY + 45; yPos < minY {
		yPos = minY
	}
	yPos += 15

	// ========== 明细表 ==========
	setDrawColor(doc, borderDark)
	doc.SetLineWidth(0.5)
	doc.Line(pageMargin, yPos, pageWidth-pageMargin, yPos)
	yPos += 7

	setTextColor(doc, textPrimary)
	doc.SetFont("Helvetica", "B", normalSize)
	doc.Text(pageMargin, yPos, "Description")
	textRight(doc, pageWidth-pageMargin, yPos, "Amount")

	yPos += 7

	setDrawColor(doc, borderLight)
	doc.SetLineWidth(0.3)
	doc.Line(pageMargin, yPos, pageWidth-pageMargin, yPos)
	yPos += 8

	// 单一汇总行
	doc.SetFont("Helvetica", "", normalSize)
	setTextColor(doc, textSecondary)
	doc.Text(pageMargin, yPos, "Invoice Total")

	setTextColor(doc, textPrimary)
	textRight(doc, pageWidth-pageMargin, yPos, totalFormatted)

	yPos += 8

	// ========== 合计栏 ==========
	setDrawColor(doc, borderDark)
	doc.SetLineWidth(0.8)
	doc.Line(pageMargin, yPos, pageWidth-pageMargin, yPos)
	yPos += 10

	doc.SetFont("Helvetica", "B", headingSize)
	setTextColor(doc, textPrimary)
	doc.Text(pageMargin, yPos, "TOTAL")
	textRight(doc, pageWidth-pageMargin, yPos, totalFormatted)

	yPos += 3

	// 合计下双线
	doc.SetLineWidth(0.8)
	doc.Line(pageMargin, yPos, pageWidth-pageMargin, yPos)
	doc.SetLineWidth(0.3)
	doc.Line(pageMargin, yPos+1.5, pageWidth-pageMargin, yPos+1.5)

	// ========== 页脚 ==========
	footerY := pageHeight - 25

	setDrawColor(doc, borderLight)
	doc.SetLineWidth(0.3)
	doc.Line(pageMargin, footerY-5, pageWidth-pageMargin, footerY-5)

	doc.SetFont("Helvetica", "", smallSize)
	setTextColor(doc, textMuted)
	textCenter(doc, pageWidth/2, footerY, "Thank you for your business.")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderParty 渲染一个参与方栏目，返回结束的y坐标
func renderParty(doc *fpdf.Fpdf, x, y float64, header string, p Party) float64 {
	doc.SetFont("Helvetica", "B", normalSize)
	setTextColor(doc, textPrimary)
	doc.Text(x, y, header)
	y += 6

	doc.Text(x, y, p.Name)
	y += 5

	doc.SetFont("Helvetica", "", smallSize)
	setTextColor(doc, textSecondary)

	if p.TaxID != "" {
		doc.Text(x, y, fmt.Sprintf("Tax ID: %s", p.TaxID))
		y += 4
	}

	doc.Text(x, y, p.Address)
	y += 4
	doc.Text(x, y, fmt.Sprintf("%s, %s", p.City, p.PostalCode))
	y += 4
	doc.Text(x, y, p.Email)
	y += 4

	if p.Website != "" {
		doc.Text(x, y, p.Website)
		y += 4
	}

	return y
}

// ========== 绘制辅助方法 ==========

func setTextColor(doc *fpdf.Fpdf, c statusColor) {
	doc.SetTextColor(c.r, c.g, c.b)
}

func setDrawColor(doc *fpdf.Fpdf, c statusColor) {
	doc.SetDrawColor(c.r, c.g, c.b)
}

// textRight 以x为右边界绘制文本
func textRight(doc *fpdf.Fpdf, x, y float64, s string) {
	doc.Text(x-doc.GetStringWidth(s), y, s)
}

// textCenter 以x为中心绘制文本
func textCenter(doc *fpdf.Fpdf, x, y float64, s string) {
	doc.Text(x-doc.GetStringWidth(s)/2, y, s)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
