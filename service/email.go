package service

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"expense-manager/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled is returned when email.enabled is false
var ErrEmailDisabled = errors.New("email is disabled, set email.enabled=true")

// ReportMailer 报表邮件服务
type ReportMailer struct {
	cfg  *config.EmailConfig
	send func(*gomail.Message) error
}

// NewReportMailer 创建报表邮件服务
func NewReportMailer(cfg *config.EmailConfig) *ReportMailer {
	m := &ReportMailer{cfg: cfg}
	m.send = m.dialAndSend
	return m
}

var breakdownTemplate = template.Must(template.New("breakdown").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 720px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: #2563eb; color: white; padding: 24px; text-align: center; }
        table { border-collapse: collapse; width: 100%; }
        th, td { padding: 8px 12px; border-bottom: 1px solid #e5e7eb; text-align: right; }
        th:first-child, td:first-child { text-align: left; }
        .swatch { display: inline-block; width: 10px; height: 10px; border-radius: 2px; margin-right: 6px; }
        .total td { font-weight: 600; }
        .footer { padding: 16px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Monthly spending</h1></div>
        <p style="padding: 0 24px;">Hi <strong>{{.Name}}</strong>, here is the {{.Scope}} breakdown for the last {{len .Months}} months.</p>
        <table>
            <tr><th>Category</th>{{range .Months}}<th>{{.}}</th>{{end}}</tr>
            {{range .Lines}}<tr><td><span class="swatch" style="background: {{.Color}}"></span>{{.Category}}</td>{{range .Amounts}}<td>{{printf "%.2f" .}}</td>{{end}}</tr>
            {{end}}<tr class="total"><td>Total</td>{{range .Totals}}<td>{{printf "%.2f" .Amount}}</td>{{end}}</tr>
        </table>
        <div class="footer">This message was sent automatically, please do not reply</div>
    </div>
</body>
</html>
`))

type breakdownLine struct {
	Category string
	Color    template.CSS
	Amounts  []float64
}

// renderBreakdown pivots the rows into one table line per category
func renderBreakdown(name string, b *Breakdown) (string, error) {
	index := make(map[uint]int)
	var lines []breakdownLine
	monthPos := make(map[string]int, len(b.Months))
	for i, m := range b.Months {
		monthPos[m] = i
	}
	for _, r := range b.Rows {
		i, ok := index[r.CategoryID]
		if !ok {
			i = len(lines)
			index[r.CategoryID] = i
			lines = append(lines, breakdownLine{
				Category: r.Category,
				Color:    template.CSS(r.Color),
				Amounts:  make([]float64, len(b.Months)),
			})
		}
		lines[i].Amounts[monthPos[r.Month]] = r.Amount
	}

	var buf bytes.Buffer
	err := breakdownTemplate.Execute(&buf, map[string]any{
		"Name":   name,
		"Scope":  string(b.Scope),
		"Months": b.Months,
		"Lines":  lines,
		"Totals": b.Totals,
	})
	if err != nil {
		return "", fmt.Errorf("render breakdown: %w", err)
	}
	return buf.String(), nil
}

// SendMonthlyBreakdown 发送月度报表邮件
func (m *ReportMailer) SendMonthlyBreakdown(to, name string, b *Breakdown) error {
	if !m.cfg.Enabled {
		return ErrEmailDisabled
	}
	if to == "" {
		return validationError("recipient address is required")
	}
	if b == nil || len(b.Months) == 0 {
		return validationError("report has no months")
	}

	body, err := renderBreakdown(name, b)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	msg.SetHeader("From", msg.FormatAddress(from, "Expense Manager"))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Spending report: %s to %s", b.Months[0], b.Months[len(b.Months)-1]))
	msg.SetBody("text/html", body)

	return m.send(msg)
}

func (m *ReportMailer) dialAndSend(msg *gomail.Message) error {
	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
