// Package render formats transport state for terminals.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

type statsRow struct {
	label string
	value uint64
	alert bool
}

func renderColumn(title string, rows []statsRow) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(title))
	for _, row := range rows {
		style := valueStyle
		if row.alert && row.value > 0 {
			style = alertStyle
		}
		s.WriteString("\n")
		s.WriteString(labelStyle.Render(row.label))
		s.WriteString(style.Render(fmt.Sprintf("%d", row.value)))
	}
	return boxStyle.Render(s.String())
}

// Stats renders a stats snapshot as boxed TX/RX/session columns.
func Stats(linkURL string, stats ppogatt.StatsSnapshot) string {
	state := valueStyle.Render(stats.State.String())
	if stats.State != ppogatt.LinkEstablished {
		state = alertStyle.Render(stats.State.String())
	}
	header := fmt.Sprintf("%s %s", titleStyle.Render(linkURL), state)

	tx := renderColumn("TX", []statsRow{
		{label: "data", value: stats.TxData},
		{label: "retransmit", value: stats.TxRetransmit, alert: true},
		{label: "ack", value: stats.TxAck},
		{label: "reset req", value: stats.TxResetReq},
		{label: "reset ack", value: stats.TxResetAck},
		{label: "busy", value: stats.TxBusy},
		{label: "errors", value: stats.TxErrors, alert: true},
		{label: "ready timeout", value: stats.ReadyTimeouts, alert: true},
	})
	rx := renderColumn("RX", []statsRow{
		{label: "frames", value: stats.RxFrames},
		{label: "delivered", value: stats.RxDelivered},
		{label: "duplicate", value: stats.RxDuplicate},
		{label: "withheld", value: stats.RxWithheld},
		{label: "ack", value: stats.RxAck},
		{label: "malformed", value: stats.RxMalformed, alert: true},
		{label: "unknown", value: stats.RxUnknown, alert: true},
		{label: "overflow", value: stats.RxOverflow, alert: true},
		{label: "oversize", value: stats.RxOversize, alert: true},
	})
	sess := renderColumn("SESSION", []statsRow{
		{label: "session", value: stats.Session},
		{label: "resets", value: stats.Resets},
		{label: "escalations", value: stats.Escalations, alert: true},
		{label: "failures", value: stats.Failures, alert: true},
	})
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, tx, rx, sess))
}
