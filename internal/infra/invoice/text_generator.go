package invoice

import (
	"fmt"
	"strings"
	"time"

	domaininvoice "translation_marketplace/internal/domain/invoice"
	"translation_marketplace/internal/domain/request"

	"github.com/google/uuid"
)

// CompanyInfo is the issuing company's letterhead.
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// TextGenerator renders invoices as plain-text artifacts.
type TextGenerator struct {
	Company CompanyInfo
}

func NewTextGenerator(company CompanyInfo) *TextGenerator {
	return &TextGenerator{Company: company}
}

func (g *TextGenerator) Generate(req *request.Request, issuedAt time.Time) (*domaininvoice.Invoice, error) {
	if req.ClientPriceCents <= 0 {
		return nil, fmt.Errorf("request %s has no client price; invoice requires a quoted request", req.ID)
	}

	number := fmt.Sprintf("INV-%s", strings.ToUpper(uuid.New().String()[:8]))

	var b strings.Builder
	line := strings.Repeat("═", 58)
	fmt.Fprintf(&b, "╔%s╗\n", line)
	fmt.Fprintf(&b, "║ Invoice # %-46s ║\n", number)
	fmt.Fprintf(&b, "║ Date: %-50s ║\n", issuedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "╠%s╣\n", line)
	fmt.Fprintf(&b, "║ %-56s ║\n", g.Company.Name)
	fmt.Fprintf(&b, "║ %-56s ║\n", g.Company.Address)
	fmt.Fprintf(&b, "║ Phone: %-49s ║\n", g.Company.Phone)
	fmt.Fprintf(&b, "║ Email: %-49s ║\n", g.Company.Email)
	fmt.Fprintf(&b, "╠%s╣\n", line)
	fmt.Fprintf(&b, "║ Bill To: %-47s ║\n", req.Client.Name)
	fmt.Fprintf(&b, "║          %-47s ║\n", req.Client.Email)
	fmt.Fprintf(&b, "╠%s╣\n", line)
	fmt.Fprintf(&b, "║ • Service: %-45s ║\n", req.Type)
	fmt.Fprintf(&b, "║ • Description: %-41s ║\n", truncate(req.Title, 41))
	fmt.Fprintf(&b, "║ • Languages: %-43s ║\n", req.SourceLanguage+" → "+req.TargetLanguage)
	fmt.Fprintf(&b, "║ • Amount: $%-45.2f ║\n", float64(req.ClientPriceCents)/100)
	fmt.Fprintf(&b, "╚%s╝\n", line)

	return &domaininvoice.Invoice{
		Number:      number,
		Filename:    fmt.Sprintf("invoice_%s.txt", number),
		ContentType: "text/plain",
		Data:        []byte(b.String()),
	}, nil
}

// truncate shortens s to at most n runes, never splitting a multibyte
// character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
