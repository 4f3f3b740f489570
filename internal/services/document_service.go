package services

import (
	"factura/internal/models"
	"factura/pkg/pdf"
)

// DocumentService 单据服务 - 组装一致的数据快照并交给纯渲染函数。
// 客户公司缺失按NotFound上抛；开票方公司缺失不是错误，FROM栏省略
type DocumentService struct {
	invoices  *InvoiceService
	companies *CompanyService
}

// NewDocumentService 创建单据服务实例
func NewDocumentService(invoices *InvoiceService, companies *CompanyService) *DocumentService {
	return &DocumentService{
		invoices:  invoices,
		companies: companies,
	}
}

// RenderInvoice 渲染发票PDF，返回字节流和建议的下载文件名
func (s *DocumentService) RenderInvoice(tenantID string, invoiceID uint) ([]byte, string, error) {
	invoice, err := s.invoices.GetByID(tenantID, invoiceID)
	if err != nil {
		return nil, "", err
	}

	client, err := s.companies.GetByID(tenantID, invoice.CompanyID)
	if err != nil {
		return nil, "", err
	}

	issuer, err := s.companies.GetIssuer(tenantID)
	if err != nil {
		return nil, "", err
	}

	model := pdf.Model{
		Invoice: pdf.Invoice{
			Number:   invoice.InvoiceNumber,
			Status:   invoice.Status,
			IssuedAt: invoice.CreatedAt,
			Currency: invoice.Currency,
			Total:    invoice.Total,
		},
		Client: toParty(client),
	}
	if issuer != nil {
		issuerParty := toParty(issuer)
		model.Issuer = &issuerParty
	}

	data, err := pdf.Generate(model)
	if err != nil {
		return nil, "", err
	}

	return data, pdf.Filename(invoice.InvoiceNumber), nil
}

// toParty 公司记录转渲染快照
func toParty(company *models.Company) pdf.Party {
	return pdf.Party{
		Name:       company.Name,
		TaxID:      company.TaxID,
		Address:    company.Address,
		City:       company.City,
		PostalCode: company.PostalCode,
		Email:      company.Email,
		Website:    company.Website,
	}
}
