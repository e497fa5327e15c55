package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator: интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateReceipt(data ReceiptData) (string, error)
}

// ReceiptGenerator пишет квитанции в RootDir.
type ReceiptGenerator struct {
	RootDir  string // корень хранения, например "./files"
	FontPath string // TTF с кириллицей; если файла нет, встроенный Helvetica
	fontName string
}

type ReceiptData struct {
	Provider       string
	ExternalID     string
	SubscriptionID string
	Amount         int64 // минимальные единицы валюты
	Currency       string
	PaidAt         time.Time
}

func NewReceiptGenerator(rootDir, fontPath string) *ReceiptGenerator {
	return &ReceiptGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
}

// GenerateReceipt возвращает путь квитанции относительно RootDir.
func (g *ReceiptGenerator) GenerateReceipt(data ReceiptData) (string, error) {
	filename := fmt.Sprintf("receipt_%s_%s.pdf", safeName(data.Provider), safeName(data.ExternalID))
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment receipt "+data.ExternalID, true)
	pdf.SetAuthor("hasyx", true)
	pdf.SetMargins(20, 20, 20)
	font := g.setupFont(pdf)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(font, "B", 18)
	pdf.CellFormat(0, 10, "PAYMENT RECEIPT", "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 12)
	pdf.CellFormat(0, 7, data.PaidAt.Format("02.01.2006 15:04 MST"), "", 1, "C", false, 0, "")
	g.hr(pdf)

	g.kvLine(pdf, font, "Provider", data.Provider)
	g.kvLine(pdf, font, "Transaction", data.ExternalID)
	if data.SubscriptionID != "" {
		g.kvLine(pdf, font, "Subscription", data.SubscriptionID)
	}
	g.kvLine(pdf, font, "Amount", formatAmount(data.Amount, data.Currency))

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

// ===== вспомогательное =====

func (g *ReceiptGenerator) setupFont(pdf *gofpdf.Fpdf) string {
	if _, err := os.Stat(g.FontPath); err != nil {
		return "Helvetica"
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	return g.fontName
}

func (g *ReceiptGenerator) kvLine(pdf *gofpdf.Fpdf, font, key, val string) {
	pdf.SetFont(font, "B", 11)
	pdf.CellFormat(45, 7, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 7, val, "", 1, "L", false, 0, "")
}

func (g *ReceiptGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 3)
}

func (g *ReceiptGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // безопасность
	return filepath.Join(g.RootDir, filename), nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

func formatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return strings.TrimSpace(fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, strings.ToUpper(currency)))
}
