package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	router "github.com/dkeye/Huddle/internal/adapters/http"
	"github.com/dkeye/Huddle/internal/discovery"
)

var (
	flagAddr     string
	flagDiscover bool
	flagTimeout  time.Duration
)

var (
	primary          = lipgloss.Color("#7C3AED")
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1)
	tableRowStyle    = lipgloss.NewStyle().Padding(0, 1)
	tableRowAltStyle = lipgloss.NewStyle().Padding(0, 1).Faint(true)
	mutedStyle       = lipgloss.NewStyle().Faint(true)
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show rooms and participant counts of a running server",
	Long: `Query a running Huddle server for its health counters and active rooms.

Examples:
  huddle status
  huddle status --addr http://10.0.0.5:8080
  huddle status --discover`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs := []string{flagAddr}
		if flagDiscover {
			servers, err := discovery.FindServers(cmd.Context(), flagTimeout)
			if err != nil {
				return err
			}
			if len(servers) == 0 {
				return fmt.Errorf("no Huddle servers found on the local network")
			}
			addrs = addrs[:0]
			for _, s := range servers {
				addrs = append(addrs, "http://"+s.Addr)
			}
		}
		client := &http.Client{Timeout: flagTimeout}
		for _, addr := range addrs {
			out, err := status(cmd.Context(), client, addr)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&flagAddr, "addr", "http://localhost:8080", "server base URL")
	statusCmd.Flags().BoolVar(&flagDiscover, "discover", false, "find servers with mDNS instead of --addr")
	statusCmd.Flags().DurationVar(&flagTimeout, "timeout", 3*time.Second, "request and discovery timeout")
}

func status(ctx context.Context, client *http.Client, addr string) (string, error) {
	addr = strings.TrimRight(addr, "/")
	var health router.HealthResponse
	if err := getJSON(ctx, client, addr+"/api/health", &health); err != nil {
		return "", err
	}
	var rooms router.ListRoomsResponse
	if err := getJSON(ctx, client, addr+"/api/rooms", &rooms); err != nil {
		return "", err
	}
	return renderHealth(addr, health) + "\n" + renderRooms(rooms), nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", url, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func styled(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row%2 == 0:
				return tableRowStyle
			default:
				return tableRowAltStyle
			}
		}).
		Render()
}

func renderHealth(addr string, h router.HealthResponse) string {
	return styled([]string{"Metric", "Value"}, [][]string{
		{"Server", addr},
		{"Status", h.Status},
		{"Rooms", strconv.Itoa(h.Rooms)},
		{"Participants", strconv.Itoa(h.Participants)},
		{"Connections", strconv.Itoa(h.Connections)},
	})
}

func renderRooms(list router.ListRoomsResponse) string {
	if len(list.Rooms) == 0 {
		return mutedStyle.Render("No active rooms")
	}
	rows := make([][]string, 0, len(list.Rooms))
	for _, r := range list.Rooms {
		rows = append(rows, []string{
			string(r.ID),
			r.Name,
			strconv.Itoa(r.ParticipantCount),
			r.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return styled([]string{"Room ID", "Name", "Participants", "Created"}, rows)
}
