package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/config"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/network"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	greenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	redStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// VLANPreviewOptions selects the batch to preview.
type VLANPreviewOptions struct {
	ConfigPath string
	Username   string
	Resources  []string
	Timestamp  time.Time
	JSON       bool
}

// VLANPreview is the planned switch change of one batch.
type VLANPreview struct {
	VLANID      int      `json:"vlanId"`
	VLANName    string   `json:"vlanName"`
	Description string   `json:"description"`
	Ports       []int    `json:"ports"`
	Unmapped    []string `json:"unmapped,omitempty"`
	Commands    []string `json:"commands"`
}

// VLANPreview writes the VLAN a successful EVENT_START batch for the given
// resources would get. The switch is never contacted.
func VLANPreview(out io.Writer, opts VLANPreviewOptions) error {
	file, err := config.LoadNetworkFile(opts.ConfigPath)
	if err != nil {
		return err
	}
	netCfg, err := file.NetworkConfig()
	if err != nil {
		return fmt.Errorf("invalid network configuration: %w", err)
	}

	preview, err := planPreview(netCfg, opts)
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(preview)
	}
	_, err = io.WriteString(out, renderVLANPreview(opts.Username, preview))
	return err
}

func planPreview(netCfg network.Config, opts VLANPreviewOptions) (*VLANPreview, error) {
	bc := reservation.BatchContext{
		Username:  opts.Username,
		EventType: reservation.EventStart,
		Timestamp: opts.Timestamp.UTC(),
	}

	tx, unmapped, ok := network.NewConfigurator(netCfg, nil).Plan(bc, opts.Resources)
	if !ok {
		return nil, fmt.Errorf("none of %s maps to a switch port", strings.Join(opts.Resources, ", "))
	}

	return &VLANPreview{
		VLANID:      tx.VLANID,
		VLANName:    tx.Name,
		Description: tx.Description,
		Ports:       tx.Ports,
		Unmapped:    unmapped,
		Commands:    tx.Commands(netCfg.InterfacePrefix),
	}, nil
}

func renderVLANPreview(username string, p *VLANPreview) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  VLAN preview: %s", username)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n\n")

	writeRow(&b, "VLAN", fmt.Sprintf("%d", p.VLANID))
	writeRow(&b, "Name", p.VLANName)
	writeRow(&b, "Description", p.Description)

	ports := make([]string, len(p.Ports))
	for i, port := range p.Ports {
		ports[i] = fmt.Sprintf("%d", port)
	}
	writeRow(&b, "Ports", greenStyle.Render(strings.Join(ports, ", ")))
	if len(p.Unmapped) > 0 {
		writeRow(&b, "Unmapped", redStyle.Render(strings.Join(p.Unmapped, ", ")))
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Commands"))
	b.WriteString("\n")
	for _, c := range p.Commands {
		b.WriteString("    " + c + "\n")
	}
	b.WriteString("\n")

	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %s %s\n", dimStyle.Render(fmt.Sprintf("%-12s", label)), value)
}
