package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator renders a volunteer's reward statement. Kept as an interface so
// handlers and services can be tested without touching the filesystem.
type Generator interface {
	GenerateStatement(data StatementData) (string, error)
}

type StatementLine struct {
	When        time.Time
	Description string
	Amount      int
}

type StatementData struct {
	Username       string
	Level          string
	TotalTokens    int
	TasksCompleted int
	Lines          []StatementLine
	CreatedAt      time.Time
	Filename       string // file name without path; generated when empty
}

// StatementGenerator writes PDFs under RootDir.
type StatementGenerator struct {
	RootDir string
}

func NewStatementGenerator(rootDir string) *StatementGenerator {
	return &StatementGenerator{RootDir: filepath.Clean(rootDir)}
}

func (g *StatementGenerator) GenerateStatement(data StatementData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("statement_%s_%s.pdf", data.Username, data.CreatedAt.Format("20060102"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, "Task Rewarder — token statement")
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 7, fmt.Sprintf("Volunteer: %s", data.Username))
	doc.Ln(6)
	doc.Cell(0, 7, fmt.Sprintf("Level: %s", data.Level))
	doc.Ln(6)
	doc.Cell(0, 7, fmt.Sprintf("Tasks completed: %d", data.TasksCompleted))
	doc.Ln(6)
	doc.Cell(0, 7, fmt.Sprintf("Token balance: %d", data.TotalTokens))
	doc.Ln(6)
	doc.Cell(0, 7, fmt.Sprintf("Generated: %s", data.CreatedAt.Format("2006-01-02 15:04")))
	doc.Ln(10)

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(35, 8, "Date", "1", 0, "", false, 0, "")
	doc.CellFormat(120, 8, "Description", "1", 0, "", false, 0, "")
	doc.CellFormat(25, 8, "Tokens", "1", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for _, line := range data.Lines {
		doc.CellFormat(35, 7, line.When.Format("2006-01-02"), "1", 0, "", false, 0, "")
		doc.CellFormat(120, 7, line.Description, "1", 0, "", false, 0, "")
		doc.CellFormat(25, 7, "+"+strconv.Itoa(line.Amount), "1", 1, "R", false, 0, "")
	}

	if err := doc.OutputFileAndClose(absPath); err != nil {
		return "", fmt.Errorf("write statement pdf: %w", err)
	}
	return absPath, nil
}

func (g *StatementGenerator) ensureTarget(filename string) (string, error) {
	dir := filepath.Join(g.RootDir, "statements")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create statements dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(filename)), nil
}
