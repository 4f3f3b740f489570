package pdf

import (
	"fmt"
	"strings"
	"time"
)

// Party 单据上的参与方快照（开票方或客户方）
type Party struct {
	Name       string
	TaxID      string
	Address    string
	City       string
	PostalCode string
	Email      string
	Website    string
}

// Invoice 单据上的发票快照
type Invoice struct {
	Number   string
	Status   string
	IssuedAt time.Time
	Currency string
	Total    float64
}

// Model 渲染模型 - 纯数据快照，渲染过程不回读任何存储
type Model struct {
	Invoice Invoice
	Client  Party
	Issuer  *Party // 可为空，为空时省略FROM栏
}

// statusColor 状态标签颜色
type statusColor struct {
	r, g, b int
}

var statusColors = map[string]statusColor{
	"draft":     {120, 120, 120},
	"finalized": {70, 130, 180},
	"paid":      {60, 130, 80},
	"cancelled": {140, 70, 70},
}

// colorOf 获取状态颜色，未知状态按草稿处理
func colorOf(status string) statusColor {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return statusColors["draft"]
}

// StatusLabel 状态显示标签
func StatusLabel(status string) string {
	return strings.ToUpper(status)
}

// formatDate 单据日期格式，如 "September 1, 2026"
func formatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// Filename 根据发票号生成下载文件名，过滤文件名中不安全的字符
func Filename(invoiceNumber string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, invoiceNumber)
	return fmt.Sprintf("invoice-%s.pdf", sanitized)
}
