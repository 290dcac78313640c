package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/report"
	"github.com/Shivay00001/Reality-Lab/api/internal/session"
)

const (
	cbModePrefix = "mode:"
	cbScan       = "scan"
	cbExport     = "export"
	cbExportPDF  = "export_pdf"
	cbReset      = "reset"
)

// Вкладки модальностей, по одной кнопке на модальность.
func makeModeKeyboard(current forensic.Modality) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(forensic.Modalities))
	for _, m := range forensic.Modalities {
		label := string(m)
		if m == current {
			label = "• " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbModePrefix+string(m)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func makeScanKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Initiate Deep Scan", cbScan),
	))
}

func makeResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Export JSON", cbExport),
			tgbotapi.NewInlineKeyboardButtonData("Export PDF", cbExportPDF),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("New Investigation", cbReset),
		),
	)
}

const helpText = "Reality Lab: forensic AI-content detection.\n\n" +
	"1. Pick a modality: /mode TEXT | IMAGE | AUDIO | VIDEO | DOCUMENT\n" +
	"2. Paste text or send a file (up to 30MB)\n" +
	"3. /scan to run the deep scan\n\n" +
	"Other commands: /status, /reset, /export [pdf], /engine [name]"

// statusText: краткое описание сессии для /status.
func statusText(s session.Snapshot) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Modality: %s\nState: %s\n", s.Modality, s.State)
	switch {
	case s.File != nil:
		_, _ = fmt.Fprintf(&b, "Input: %s (%s, %d bytes)\n", s.File.Name, s.File.MIMEType, s.File.Size)
	case s.Modality == forensic.ModalityText && strings.TrimSpace(s.Text) != "":
		_, _ = fmt.Fprintf(&b, "Input: %d characters of text\n", len([]rune(s.Text)))
	default:
		b.WriteString("Input: none\n")
	}
	if s.Error != "" {
		_, _ = fmt.Fprintf(&b, "Error: %s\n", s.Error)
	}
	if s.Result != nil {
		_, _ = fmt.Fprintf(&b, "Last verdict: %s (%d%%)\n", s.Result.Verdict.Label(), s.Result.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

// resultText: карточка вердикта плюс дисклеймер.
func resultText(r forensic.Result) string {
	return report.Card(r) + "\n\n" + report.Disclaimer
}
